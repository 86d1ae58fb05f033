package service

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	id "kindra/pkg/domain"
	dErrors "kindra/pkg/domain-errors"
	"kindra/pkg/platform/sentinel"
	"kindra/pkg/requestcontext"
)

// reconcileConcurrency bounds the number of campaigns recomputed in parallel
// during a sweep.
const reconcileConcurrency = 8

// RecomputeCampaign rebuilds a campaign's raised aggregate from the ledger.
// Returns whether the cached value had drifted.
func (s *Service) RecomputeCampaign(ctx context.Context, campaignID id.CampaignID) (bool, error) {
	campaign, err := s.campaigns.FindByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, dErrors.New(dErrors.CodeNotFound, "campaign not found")
		}
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "load campaign")
	}

	// Sum and overwrite share one transaction so a concurrent finalize
	// cannot credit between the read and the write and get clobbered.
	drifted := false
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		authoritative, err := s.donations.SumCompletedByCampaign(ctx, campaignID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "sum campaign donations")
		}
		if authoritative.Equal(campaign.RaisedAmount) {
			return nil
		}

		s.logger.WarnContext(ctx, "campaign aggregate drift repaired",
			"campaign_id", campaignID.String(),
			"cached", campaign.RaisedAmount.String(),
			"authoritative", authoritative.String())
		if err := s.campaigns.SetRaised(ctx, campaignID, authoritative, requestcontext.Now(ctx)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "overwrite campaign aggregate")
		}
		drifted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if drifted {
		s.invalidateProgress(ctx, &campaignID)
	}
	return drifted, nil
}

// RecomputeDonor rebuilds a donor's lifetime total from the ledger.
func (s *Service) RecomputeDonor(ctx context.Context, donorID id.DonorID) error {
	authoritative, err := s.donations.SumCompletedByDonor(ctx, donorID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "sum donor donations")
	}
	if err := s.donors.SetTotal(ctx, donorID, authoritative, requestcontext.Now(ctx)); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "donor not found")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "overwrite donor total")
	}
	return nil
}

// RecomputeAll sweeps every campaign. Returns how many had drifted. The
// scheduler runs this periodically; admins can trigger it on demand.
func (s *Service) RecomputeAll(ctx context.Context) (int, error) {
	ids, err := s.campaigns.ListIDs(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "list campaigns")
	}

	var drifted atomic.Int32
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for _, campaignID := range ids {
		g.Go(func() error {
			changed, err := s.RecomputeCampaign(ctx, campaignID)
			if err != nil {
				return err
			}
			if changed {
				drifted.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(drifted.Load()), err
	}

	n := int(drifted.Load())
	if s.metrics != nil {
		s.metrics.RecordReconcile(n)
	}
	s.logger.InfoContext(ctx, "reconciliation sweep finished",
		"campaigns", len(ids), "drifted", n)
	return n, nil
}
