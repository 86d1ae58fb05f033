package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"kindra/internal/audit"
	"kindra/internal/donation/models"
	notifmodels "kindra/internal/notification/models"
	id "kindra/pkg/domain"
	dErrors "kindra/pkg/domain-errors"
	"kindra/pkg/platform/sentinel"
	"kindra/pkg/requestcontext"
)

// FinalizeResult reports what finalization did. AlreadyFinalized means the
// donation was COMPLETED before this call; the result is otherwise identical
// to the first finalization, which is what makes retries safe.
type FinalizeResult struct {
	Donation         *models.Donation
	Receipt          *models.Receipt
	AlreadyFinalized bool
}

// Finalize moves a PENDING donation to COMPLETED and credits the campaign
// and donor aggregates, all in one transaction. Receipt issuance and
// notification fan-out run after commit and are best-effort: their failure
// never undoes the credit, and both can be repaired later.
//
// Finalize is idempotent. A COMPLETED donation returns AlreadyFinalized with
// no further effects; FAILED and REFUNDED donations are rejected.
func (s *Service) Finalize(ctx context.Context, donationID id.DonationID) (*FinalizeResult, error) {
	ctx, span := s.tracer.Start(ctx, "donation.Finalize",
		trace.WithAttributes(attribute.String("donation.id", donationID.String())))
	defer span.End()
	start := time.Now()

	d, err := s.donations.FindByID(ctx, donationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.recordFinalize("not_found", start)
			return nil, dErrors.New(dErrors.CodeNotFound, "donation not found")
		}
		s.recordFinalize("error", start)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load donation")
	}

	if err := d.CanFinalize(); err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			// Already COMPLETED: idempotent success.
			s.recordFinalize("duplicate", start)
			return s.idempotentResult(ctx, d)
		}
		s.recordFinalize("invalid", start)
		return nil, err
	}

	now := requestcontext.Now(ctx)
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		claimed, err := s.donations.ClaimCompleted(ctx, d.ID, now)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "claim donation")
		}
		if !claimed {
			return errClaimLost
		}
		if d.CampaignID != nil {
			if err := s.campaigns.Credit(ctx, *d.CampaignID, d.Amount, now); err != nil {
				return dErrors.Wrap(err, dErrors.CodeUnavailable, "credit campaign")
			}
		}
		if d.DonorID != nil {
			if err := s.donors.Credit(ctx, *d.DonorID, d.Amount, now); err != nil {
				return dErrors.Wrap(err, dErrors.CodeUnavailable, "credit donor")
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errClaimLost) {
			// A concurrent finalizer won the fence. Re-read and classify.
			s.recordFinalize("duplicate", start)
			return s.resolveLostClaim(ctx, d.ID)
		}
		s.recordFinalize("error", start)
		return nil, err
	}

	d.Status = models.DonationCompleted
	d.UpdatedAt = now
	s.recordFinalize("completed", start)
	s.invalidateProgress(ctx, d.CampaignID)
	s.audit(ctx, audit.ActionUpdate, "donation", d.ID.String(),
		fmt.Sprintf("donation %s finalized: %s %s credited", d.TransactionID, d.Currency, d.Amount.StringFixed(2)))

	receipt := s.issueReceipt(ctx, d)
	s.notifyFinalized(ctx, d)

	return &FinalizeResult{Donation: d, Receipt: receipt}, nil
}

// errClaimLost signals inside the finalize transaction that the conditional
// update matched no row.
var errClaimLost = errors.New("finalization claim lost")

func (s *Service) idempotentResult(ctx context.Context, d *models.Donation) (*FinalizeResult, error) {
	receipt, err := s.receipts.FindByDonationID(ctx, d.ID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "receipt lookup failed on idempotent finalize",
			"donation_id", d.ID.String(), "error", err.Error())
	}
	return &FinalizeResult{Donation: d, Receipt: receipt, AlreadyFinalized: true}, nil
}

func (s *Service) resolveLostClaim(ctx context.Context, donationID id.DonationID) (*FinalizeResult, error) {
	d, err := s.donations.FindByID(ctx, donationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "reload donation after lost claim")
	}
	if d.Status == models.DonationCompleted {
		return s.idempotentResult(ctx, d)
	}
	return nil, dErrors.Newf(dErrors.CodeInvalidTransition, "cannot finalize a %s donation", d.Status)
}

// issueReceipt runs the separable receipt phase: create the record, enqueue
// rendering, and mark the ledger row. All failures are logged only.
func (s *Service) issueReceipt(ctx context.Context, d *models.Donation) *models.Receipt {
	if s.issuer == nil {
		return nil
	}
	receipt, err := s.issuer.Issue(ctx, d)
	if err != nil {
		s.logger.ErrorContext(ctx, "receipt issuance failed",
			"donation_id", d.ID.String(), "error", err.Error())
		return nil
	}
	if s.metrics != nil {
		s.metrics.IncrementReceiptsIssued()
	}
	donorName, campaignLabel := s.documentLabels(ctx, d)
	if s.renderer != nil {
		s.renderer.Enqueue(ctx, receipt, d, donorName, campaignLabel)
	}
	if err := s.donations.MarkReceiptSent(ctx, d.ID, requestcontext.Now(ctx)); err != nil {
		s.logger.WarnContext(ctx, "mark receipt sent failed",
			"donation_id", d.ID.String(), "error", err.Error())
	}
	return receipt
}

func (s *Service) documentLabels(ctx context.Context, d *models.Donation) (donorName, campaignLabel string) {
	donorName = d.DonorName
	if d.IsAnonymous {
		donorName = "Anonymous Donor"
	} else if d.DonorID != nil {
		if donor, err := s.donors.FindByID(ctx, *d.DonorID); err == nil {
			donorName = donor.DisplayName()
		}
	}
	if donorName == "" {
		donorName = "Anonymous Donor"
	}

	var campaign *models.Campaign
	if d.CampaignID != nil {
		if c, err := s.campaigns.FindByID(ctx, *d.CampaignID); err == nil {
			campaign = c
		}
	}
	return donorName, d.CampaignLabel(campaign)
}

func (s *Service) notifyFinalized(ctx context.Context, d *models.Donation) {
	if s.notifier == nil {
		return
	}
	_, campaignLabel := s.documentLabels(ctx, d)
	msg := notifmodels.Message{
		Title:    "Donation received",
		Body:     fmt.Sprintf("%s %s received for %s via %s.", d.Currency, d.Amount.StringFixed(2), campaignLabel, d.PaymentMethod),
		Kind:     notifmodels.KindSuccess,
		Category: notifmodels.CategoryDonation,
	}
	if s.audiences != nil {
		staff, err := s.audiences.Staff(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "staff audience resolution failed", "error", err.Error())
		} else {
			s.notifier.Notify(ctx, staff, msg)
		}
	}
	if d.DonorID != nil {
		if donor, err := s.donors.FindByID(ctx, *d.DonorID); err == nil && donor.UserID != nil {
			s.notifier.NotifyUser(ctx, *donor.UserID, notifmodels.Message{
				Title:    "Thank you for your donation",
				Body:     fmt.Sprintf("Your donation of %s %s to %s has been confirmed.", d.Currency, d.Amount.StringFixed(2), campaignLabel),
				Kind:     notifmodels.KindSuccess,
				Category: notifmodels.CategoryDonation,
			})
		}
	}
}

func (s *Service) recordFinalize(outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordFinalize(outcome, start)
	}
}

func (s *Service) invalidateProgress(ctx context.Context, campaignID *id.CampaignID) {
	if s.cache != nil && campaignID != nil {
		s.cache.Invalidate(ctx, *campaignID)
	}
}

func (s *Service) audit(ctx context.Context, action audit.Action, resourceType, resourceID, description string) {
	if s.auditor != nil {
		s.auditor.Record(ctx, audit.Event{
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			Description:  description,
		})
	}
}
