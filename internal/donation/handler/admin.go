package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kindra/internal/donation/models"
	id "kindra/pkg/domain"
	dErrors "kindra/pkg/domain-errors"
	"kindra/pkg/platform/httputil"
)

func (h *Handler) handlePendingDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := h.svc.ListPendingDonations(r.Context(), queryLimit(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, donations)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	donationID, err := donationIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.svc.Approve(r.Context(), donationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, finalizeResponse{
		Donation:         result.Donation,
		Receipt:          result.Receipt,
		AlreadyFinalized: result.AlreadyFinalized,
	})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.handleDonationDecision(w, r, h.svc.Reject)
}

func (h *Handler) handleRefund(w http.ResponseWriter, r *http.Request) {
	h.handleDonationDecision(w, r, h.svc.Refund)
}

type decisionFunc = func(ctx context.Context, donationID id.DonationID, reason string) (*models.Donation, error)

func (h *Handler) handleDonationDecision(w http.ResponseWriter, r *http.Request, decide decisionFunc) {
	donationID, err := donationIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	d, err := decide(r.Context(), donationID, body.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleDeleteDonation(w http.ResponseWriter, r *http.Request) {
	donationID, err := donationIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.DeleteDonation(r.Context(), donationID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	drifted, err := h.svc.RecomputeAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "manual reconcile failed", "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"drifted": drifted})
}

func (h *Handler) handleDonorDonations(w http.ResponseWriter, r *http.Request) {
	donorID, err := id.ParseDonorID(chi.URLParam(r, "donorID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid donor id"))
		return
	}
	donations, err := h.svc.ListDonationsByDonor(r.Context(), donorID, queryLimit(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, donations)
}

func (h *Handler) handleReconcileCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID, err := campaignIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	drifted, err := h.svc.RecomputeCampaign(r.Context(), campaignID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"drifted": drifted})
}

func donationIDParam(r *http.Request) (id.DonationID, error) {
	donationID, err := id.ParseDonationID(chi.URLParam(r, "donationID"))
	if err != nil {
		return id.DonationID{}, dErrors.New(dErrors.CodeValidation, "invalid donation id")
	}
	return donationID, nil
}
