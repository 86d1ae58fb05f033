package service

import (
	"context"
	"errors"
	"fmt"

	"kindra/internal/audit"
	"kindra/internal/donation/models"
	notifmodels "kindra/internal/notification/models"
	id "kindra/pkg/domain"
	dErrors "kindra/pkg/domain-errors"
	"kindra/pkg/platform/sentinel"
	"kindra/pkg/requestcontext"
)

// Approve finalizes a PENDING donation on behalf of staff review. It is the
// same operation as channel-driven finalization; approval only adds its own
// audit trail.
func (s *Service) Approve(ctx context.Context, donationID id.DonationID) (*FinalizeResult, error) {
	result, err := s.Finalize(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if !result.AlreadyFinalized {
		s.audit(ctx, audit.ActionApprove, "donation", donationID.String(), "donation approved by staff")
	}
	return result, nil
}

// Reject moves a PENDING donation to FAILED. Rejected donations never touch
// the aggregates.
func (s *Service) Reject(ctx context.Context, donationID id.DonationID, reason string) (*models.Donation, error) {
	d, err := s.donations.FindByID(ctx, donationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load donation")
	}

	now := requestcontext.Now(ctx)
	moved, err := s.donations.TransitionStatus(ctx, d.ID, models.DonationPending, models.DonationFailed, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "reject donation")
	}
	if !moved {
		reloaded, err := s.donations.FindByID(ctx, d.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "reload donation")
		}
		if reloaded.Status == models.DonationFailed {
			return reloaded, nil
		}
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition, "cannot reject a %s donation", reloaded.Status)
	}

	d.Status = models.DonationFailed
	d.UpdatedAt = now
	s.audit(ctx, audit.ActionReject, "donation", d.ID.String(),
		fmt.Sprintf("donation rejected: %s", reason))
	s.notifyDonor(ctx, d, notifmodels.Message{
		Title:    "Donation could not be processed",
		Body:     fmt.Sprintf("Your donation of %s %s could not be processed. %s", d.Currency, d.Amount.StringFixed(2), reason),
		Kind:     notifmodels.KindWarning,
		Category: notifmodels.CategoryDonation,
	})
	return d, nil
}

// Refund moves a COMPLETED donation to REFUNDED and recomputes the affected
// aggregates from the ledger. Recomputation rather than a synchronous
// decrement keeps the cached totals correct even if a crash separates the
// two steps: the next reconciliation sweep repairs them.
func (s *Service) Refund(ctx context.Context, donationID id.DonationID, reason string) (*models.Donation, error) {
	d, err := s.donations.FindByID(ctx, donationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load donation")
	}

	now := requestcontext.Now(ctx)
	moved, err := s.donations.TransitionStatus(ctx, d.ID, models.DonationCompleted, models.DonationRefunded, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "refund donation")
	}
	if !moved {
		reloaded, err := s.donations.FindByID(ctx, d.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "reload donation")
		}
		if reloaded.Status == models.DonationRefunded {
			return reloaded, nil
		}
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition, "cannot refund a %s donation", reloaded.Status)
	}

	d.Status = models.DonationRefunded
	d.UpdatedAt = now
	s.recomputeAffected(ctx, d)
	s.audit(ctx, audit.ActionUpdate, "donation", d.ID.String(),
		fmt.Sprintf("donation refunded: %s", reason))
	s.notifyDonor(ctx, d, notifmodels.Message{
		Title:    "Donation refunded",
		Body:     fmt.Sprintf("Your donation of %s %s has been refunded. %s", d.Currency, d.Amount.StringFixed(2), reason),
		Kind:     notifmodels.KindInfo,
		Category: notifmodels.CategoryDonation,
	})
	return d, nil
}

// DeleteDonation removes a ledger entry and recomputes the aggregates it
// contributed to.
func (s *Service) DeleteDonation(ctx context.Context, donationID id.DonationID) error {
	d, err := s.donations.FindByID(ctx, donationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "donation not found")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "load donation")
	}
	if err := s.donations.Delete(ctx, d.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "delete donation")
	}
	s.recomputeAffected(ctx, d)
	s.audit(ctx, audit.ActionDelete, "donation", d.ID.String(),
		fmt.Sprintf("donation deleted, transaction %s", d.TransactionID))
	return nil
}

func (s *Service) recomputeAffected(ctx context.Context, d *models.Donation) {
	if d.CampaignID != nil {
		if _, err := s.RecomputeCampaign(ctx, *d.CampaignID); err != nil {
			s.logger.ErrorContext(ctx, "campaign recompute failed",
				"campaign_id", d.CampaignID.String(), "error", err.Error())
		}
	}
	if d.DonorID != nil {
		if err := s.RecomputeDonor(ctx, *d.DonorID); err != nil {
			s.logger.ErrorContext(ctx, "donor recompute failed",
				"donor_id", d.DonorID.String(), "error", err.Error())
		}
	}
}

func (s *Service) notifyDonor(ctx context.Context, d *models.Donation, msg notifmodels.Message) {
	if s.notifier == nil || d.DonorID == nil {
		return
	}
	donor, err := s.donors.FindByID(ctx, *d.DonorID)
	if err != nil || donor.UserID == nil {
		return
	}
	s.notifier.NotifyUser(ctx, *donor.UserID, msg)
}
