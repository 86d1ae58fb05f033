package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"kindra/internal/donation/models"
	"kindra/internal/donation/service"
	id "kindra/pkg/domain"
	dErrors "kindra/pkg/domain-errors"
	"kindra/pkg/platform/httputil"
)

// intakeRequest is the shared payment channel payload. The channel itself
// comes from the route, never from the body.
type intakeRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	TransactionID string          `json:"transaction_id"`
	PhoneNumber   string          `json:"phone_number"`
	CampaignID    string          `json:"campaign_id"`
	DonorEmail    string          `json:"donor_email"`
	DonorName     string          `json:"donor_name"`
	IsAnonymous   bool            `json:"is_anonymous"`
	Message       string          `json:"message"`
}

func (h *Handler) handleIntake(method models.PaymentMethod) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var body intakeRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}

		req := service.CreateDonationRequest{
			Amount:        body.Amount,
			Currency:      body.Currency,
			Method:        method,
			TransactionID: body.TransactionID,
			PhoneNumber:   body.PhoneNumber,
			DonorEmail:    body.DonorEmail,
			DonorName:     body.DonorName,
			IsAnonymous:   body.IsAnonymous,
			Message:       body.Message,
		}
		if body.CampaignID != "" {
			campaignID, err := id.ParseCampaignID(body.CampaignID)
			if err != nil {
				httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid campaign_id"))
				return
			}
			req.CampaignID = &campaignID
		}

		d, err := h.svc.CreateDonation(ctx, req)
		if err != nil {
			h.logger.WarnContext(ctx, "donation intake failed",
				"method", string(method), "error", err.Error())
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, d)
	}
}

func (h *Handler) handleGetDonation(w http.ResponseWriter, r *http.Request) {
	donationID, err := id.ParseDonationID(chi.URLParam(r, "donationID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid donation id"))
		return
	}
	d, err := h.svc.GetDonation(r.Context(), donationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	donationID, err := id.ParseDonationID(chi.URLParam(r, "donationID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid donation id"))
		return
	}
	receipt, err := h.svc.ReceiptForDonation(r.Context(), donationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, receipt)
}

func (h *Handler) handleReceiptDocument(w http.ResponseWriter, r *http.Request) {
	receiptID, err := id.ParseReceiptID(chi.URLParam(r, "receiptID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid receipt id"))
		return
	}
	receipt, doc, err := h.svc.ReceiptDocument(r.Context(), receiptID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+receipt.ReceiptNumber+`.txt"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (h *Handler) handleInbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.inbox == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "notifications are not configured"))
		return
	}
	userID, err := currentUserID(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	notifications, err := h.inbox.Inbox(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "inbox read failed",
			"user_id", userID.String(), "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "failed to load notifications"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, notifications)
}

func (h *Handler) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := h.svc.ListReceipts(r.Context(), queryLimit(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, receipts)
}

// queryLimit parses the optional limit parameter; the service clamps it.
func queryLimit(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return n
}
