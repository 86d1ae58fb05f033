package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kindra/internal/donation/models"
	"kindra/internal/donation/service"
	id "kindra/pkg/domain"
	dErrors "kindra/pkg/domain-errors"
	"kindra/pkg/platform/httputil"
)

type submitMaterialRequest struct {
	Category            string `json:"category"`
	Description         string `json:"description"`
	Quantity            string `json:"quantity"`
	PickupAddress       string `json:"pickup_address"`
	PreferredPickupDate string `json:"preferred_pickup_date"`
	PreferredPickupTime string `json:"preferred_pickup_time"`
	DonorEmail          string `json:"donor_email"`
	DonorName           string `json:"donor_name"`
}

func (h *Handler) handleSubmitMaterial(w http.ResponseWriter, r *http.Request) {
	var body submitMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	pickupDate, err := time.Parse("2006-01-02", body.PreferredPickupDate)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "preferred_pickup_date must be YYYY-MM-DD"))
		return
	}
	m, err := h.svc.SubmitMaterial(r.Context(), service.SubmitMaterialRequest{
		Category:            models.ItemCategory(body.Category),
		Description:         body.Description,
		Quantity:            body.Quantity,
		PickupAddress:       body.PickupAddress,
		PreferredPickupDate: pickupDate,
		PreferredPickupTime: body.PreferredPickupTime,
		DonorEmail:          body.DonorEmail,
		DonorName:           body.DonorName,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) handleGetMaterial(w http.ResponseWriter, r *http.Request) {
	materialID, err := materialIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	m, err := h.svc.GetMaterial(r.Context(), materialID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) handleListMaterials(w http.ResponseWriter, r *http.Request) {
	status := models.MaterialStatus(r.URL.Query().Get("status"))
	materials, err := h.svc.ListMaterials(r.Context(), status, queryLimit(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, materials)
}

func (h *Handler) handleMaterialAcknowledgment(w http.ResponseWriter, r *http.Request) {
	materialID, err := materialIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	m, doc, err := h.svc.MaterialAcknowledgment(r.Context(), materialID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="acknowledgment-`+m.ID.String()+`.txt"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

type materialAction string

const (
	actionCollect    materialAction = "collect"
	actionReject     materialAction = "reject"
	actionCancel     materialAction = "cancel"
	actionDistribute materialAction = "distribute"
)

func (h *Handler) handleMaterialAction(action materialAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		materialID, err := materialIDParam(r)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		var body struct {
			Notes string `json:"notes"`
		}
		// The body is optional for all material actions.
		_ = json.NewDecoder(r.Body).Decode(&body)

		var m *models.MaterialDonation
		switch action {
		case actionCollect:
			m, err = h.svc.MarkCollected(r.Context(), materialID, body.Notes)
		case actionReject:
			m, err = h.svc.RejectMaterial(r.Context(), materialID, body.Notes)
		case actionCancel:
			m, err = h.svc.CancelMaterial(r.Context(), materialID)
		case actionDistribute:
			m, err = h.svc.MarkDistributed(r.Context(), materialID, body.Notes)
		}
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, m)
	}
}

func materialIDParam(r *http.Request) (id.MaterialDonationID, error) {
	materialID, err := id.ParseMaterialDonationID(chi.URLParam(r, "materialID"))
	if err != nil {
		return id.MaterialDonationID{}, dErrors.New(dErrors.CodeValidation, "invalid material donation id")
	}
	return materialID, nil
}
