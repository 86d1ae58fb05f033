package service

import (
	"context"
	"errors"

	"kindra/internal/donation/models"
	id "kindra/pkg/domain"
	dErrors "kindra/pkg/domain-errors"
	"kindra/pkg/platform/sentinel"
)

// GetDonation loads a single ledger entry.
func (s *Service) GetDonation(ctx context.Context, donationID id.DonationID) (*models.Donation, error) {
	d, err := s.donations.FindByID(ctx, donationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load donation")
	}
	return d, nil
}

// ListDonationsByCampaign lists a campaign's donations, newest first.
func (s *Service) ListDonationsByCampaign(ctx context.Context, campaignID id.CampaignID, limit int) ([]*models.Donation, error) {
	out, err := s.donations.ListByCampaign(ctx, campaignID, clampLimit(limit))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list donations")
	}
	return out, nil
}

// ListDonationsByDonor lists a donor's donations, newest first.
func (s *Service) ListDonationsByDonor(ctx context.Context, donorID id.DonorID, limit int) ([]*models.Donation, error) {
	out, err := s.donations.ListByDonor(ctx, donorID, clampLimit(limit))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list donations")
	}
	return out, nil
}

// ListPendingDonations lists entries awaiting approval.
func (s *Service) ListPendingDonations(ctx context.Context, limit int) ([]*models.Donation, error) {
	out, err := s.donations.ListByStatus(ctx, models.DonationPending, clampLimit(limit))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list pending donations")
	}
	return out, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}
