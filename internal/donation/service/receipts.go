package service

import (
	"context"
	"errors"

	"kindra/internal/donation/models"
	id "kindra/pkg/domain"
	dErrors "kindra/pkg/domain-errors"
	"kindra/pkg/platform/sentinel"
	"kindra/pkg/requestcontext"
)

// ReceiptForDonation returns the receipt record for a donation.
func (s *Service) ReceiptForDonation(ctx context.Context, donationID id.DonationID) (*models.Receipt, error) {
	r, err := s.receipts.FindByDonationID(ctx, donationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "receipt not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load receipt")
	}
	return r, nil
}

// ListReceipts lists issued receipts, newest first.
func (s *Service) ListReceipts(ctx context.Context, limit int) ([]*models.Receipt, error) {
	out, err := s.receipts.List(ctx, clampLimit(limit))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list receipts")
	}
	return out, nil
}

// ReceiptDocument returns the rendered document for a receipt, producing and
// persisting it on first access. The record is authoritative; the document
// is always reproducible from it.
func (s *Service) ReceiptDocument(ctx context.Context, receiptID id.ReceiptID) (*models.Receipt, []byte, error) {
	r, err := s.receipts.FindByID(ctx, receiptID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "receipt not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load receipt")
	}
	if r.Rendered() {
		return r, r.Document, nil
	}
	if s.renderer == nil {
		return nil, nil, dErrors.New(dErrors.CodeUnavailable, "receipt rendering is not configured")
	}

	d, err := s.donations.FindByID(ctx, r.DonationID)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load donation for receipt")
	}
	donorName, campaignLabel := s.documentLabels(ctx, d)
	doc, err := s.renderer.Render(r, d, donorName, campaignLabel)
	if err != nil {
		return nil, nil, err
	}
	if err := s.receipts.SaveDocument(ctx, r.ID, doc, requestcontext.Now(ctx)); err != nil {
		// Serve the document anyway; the next access renders again.
		s.logger.WarnContext(ctx, "receipt document save failed",
			"receipt_id", r.ID.String(), "error", err.Error())
	}
	return r, doc, nil
}
