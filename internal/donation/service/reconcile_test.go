package service_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"kindra/internal/donation/models"
	"kindra/internal/donation/receipts"
	"kindra/internal/donation/service"
)

// txRecordingRunner counts transactions so tests can assert a code path ran
// inside one.
type txRecordingRunner struct {
	calls atomic.Int32
}

func (r *txRecordingRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls.Add(1)
	return fn(ctx)
}

type ReconcileSuite struct {
	suite.Suite
	f   *fixture
	ctx context.Context
}

func (s *ReconcileSuite) SetupTest() {
	s.f = newFixture()
	s.ctx = context.Background()
}

func TestReconcileSuite(t *testing.T) {
	suite.Run(t, new(ReconcileSuite))
}

// TestDriftRepair verifies a corrupted cached aggregate converges back to
// the ledger sum.
func (s *ReconcileSuite) TestDriftRepair() {
	campaign := s.f.seedCampaign(&s.Suite)
	d := s.f.seedPending(&s.Suite, campaign, nil, 1000)
	_, err := s.f.svc.Finalize(s.ctx, d.ID)
	s.Require().NoError(err)

	// Corrupt the cached aggregate out of band.
	s.Require().NoError(s.f.campaigns.SetRaised(s.ctx, campaign.ID, decimal.NewFromInt(999999), time.Now()))

	drifted, err := s.f.svc.RecomputeCampaign(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.True(drifted)

	got, err := s.f.campaigns.FindByID(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.True(got.RaisedAmount.Equal(decimal.NewFromInt(1000)), "aggregate equals ledger sum")
}

// TestRepairRunsInOneTx verifies the ledger sum and the aggregate overwrite
// share a transaction, so a concurrent credit cannot land between them.
func (s *ReconcileSuite) TestRepairRunsInOneTx() {
	runner := &txRecordingRunner{}
	f := newFixture()
	f.svc = service.New(
		f.donations, f.campaigns, f.donors, f.receipts, f.materials,
		runner, receipts.NewIssuer(f.receipts),
	)

	campaign := f.seedCampaign(&s.Suite)
	d := f.seedPending(&s.Suite, campaign, nil, 800)
	moved, err := f.donations.TransitionStatus(s.ctx, d.ID, models.DonationPending, models.DonationCompleted, time.Now())
	s.Require().NoError(err)
	s.Require().True(moved, "completed out of band, aggregate never credited")

	drifted, err := f.svc.RecomputeCampaign(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.True(drifted)
	s.Equal(int32(1), runner.calls.Load(), "sum and overwrite run in one transaction")

	got, err := f.campaigns.FindByID(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.True(got.RaisedAmount.Equal(decimal.NewFromInt(800)))
}

// TestRecomputeIsStable verifies recompute without drift reports none.
func (s *ReconcileSuite) TestRecomputeIsStable() {
	campaign := s.f.seedCampaign(&s.Suite)
	d := s.f.seedPending(&s.Suite, campaign, nil, 600)
	_, err := s.f.svc.Finalize(s.ctx, d.ID)
	s.Require().NoError(err)

	drifted, err := s.f.svc.RecomputeCampaign(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.False(drifted)
}

// TestRecomputeAllCountsDrift verifies the sweep visits every campaign.
func (s *ReconcileSuite) TestRecomputeAllCountsDrift() {
	healthy := s.f.seedCampaign(&s.Suite)
	broken := s.f.seedCampaign(&s.Suite)

	d1 := s.f.seedPending(&s.Suite, healthy, nil, 100)
	_, err := s.f.svc.Finalize(s.ctx, d1.ID)
	s.Require().NoError(err)

	d2 := s.f.seedPending(&s.Suite, broken, nil, 200)
	_, err = s.f.svc.Finalize(s.ctx, d2.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.f.campaigns.SetRaised(s.ctx, broken.ID, decimal.NewFromInt(7), time.Now()))

	drifted, err := s.f.svc.RecomputeAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, drifted)

	got, err := s.f.campaigns.FindByID(s.ctx, broken.ID)
	s.Require().NoError(err)
	s.True(got.RaisedAmount.Equal(decimal.NewFromInt(200)))
}

// TestRefundRecomputesAggregates verifies REFUNDED removes the contribution
// via recomputation.
func (s *ReconcileSuite) TestRefundRecomputesAggregates() {
	campaign := s.f.seedCampaign(&s.Suite)
	donor := s.f.seedDonor(&s.Suite)

	keep := s.f.seedPending(&s.Suite, campaign, donor, 300)
	refund := s.f.seedPending(&s.Suite, campaign, donor, 500)
	_, err := s.f.svc.Finalize(s.ctx, keep.ID)
	s.Require().NoError(err)
	_, err = s.f.svc.Finalize(s.ctx, refund.ID)
	s.Require().NoError(err)

	refunded, err := s.f.svc.Refund(s.ctx, refund.ID, "card dispute")
	s.Require().NoError(err)
	s.Equal(models.DonationRefunded, refunded.Status)

	gotCampaign, err := s.f.campaigns.FindByID(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.True(gotCampaign.RaisedAmount.Equal(decimal.NewFromInt(300)), "refunded amount excluded")

	gotDonor, err := s.f.donors.FindByID(s.ctx, donor.ID)
	s.Require().NoError(err)
	s.True(gotDonor.TotalDonated.Equal(decimal.NewFromInt(300)))

	// Refund is terminal and idempotent.
	again, err := s.f.svc.Refund(s.ctx, refund.ID, "retry")
	s.Require().NoError(err)
	s.Equal(models.DonationRefunded, again.Status)
}

// TestDeleteRecomputesAggregates verifies removal repairs the totals.
func (s *ReconcileSuite) TestDeleteRecomputesAggregates() {
	campaign := s.f.seedCampaign(&s.Suite)
	d := s.f.seedPending(&s.Suite, campaign, nil, 450)
	_, err := s.f.svc.Finalize(s.ctx, d.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.f.svc.DeleteDonation(s.ctx, d.ID))

	got, err := s.f.campaigns.FindByID(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.True(got.RaisedAmount.IsZero())
}
