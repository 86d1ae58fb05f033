package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"kindra/internal/donation/models"
	"kindra/internal/donation/service"
	id "kindra/pkg/domain"
	dErrors "kindra/pkg/domain-errors"
	"kindra/pkg/platform/httputil"
)

type createCampaignRequest struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	Currency     string          `json:"currency"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	Category     string          `json:"category"`
	Urgency      string          `json:"urgency"`
	IsFeatured   bool            `json:"is_featured"`
}

func (h *Handler) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	c, err := h.svc.CreateCampaign(r.Context(), service.CreateCampaignRequest{
		Title:        body.Title,
		Description:  body.Description,
		TargetAmount: body.TargetAmount,
		Currency:     body.Currency,
		StartDate:    body.StartDate,
		EndDate:      body.EndDate,
		Category:     models.CampaignCategory(body.Category),
		Urgency:      body.Urgency,
		IsFeatured:   body.IsFeatured,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleCampaignStatus(w http.ResponseWriter, r *http.Request) {
	campaignID, err := campaignIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	c, err := h.svc.UpdateCampaignStatus(r.Context(), campaignID, models.CampaignStatus(body.Status))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	status := models.CampaignStatus(r.URL.Query().Get("status"))
	campaigns, err := h.svc.ListCampaigns(r.Context(), status, queryLimit(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, campaigns)
}

func (h *Handler) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID, err := campaignIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.svc.GetCampaign(r.Context(), campaignID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleGetCampaignBySlug(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetCampaignBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleCampaignProgress(w http.ResponseWriter, r *http.Request) {
	campaignID, err := campaignIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.svc.Progress(r.Context(), campaignID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleListCampaignDonations(w http.ResponseWriter, r *http.Request) {
	campaignID, err := campaignIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	donations, err := h.svc.ListDonationsByCampaign(r.Context(), campaignID, queryLimit(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, donations)
}

func campaignIDParam(r *http.Request) (id.CampaignID, error) {
	campaignID, err := id.ParseCampaignID(chi.URLParam(r, "campaignID"))
	if err != nil {
		return id.CampaignID{}, dErrors.New(dErrors.CodeValidation, "invalid campaign id")
	}
	return campaignID, nil
}
