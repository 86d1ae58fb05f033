package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"kindra/internal/donation/models"
	"kindra/internal/donation/receipts"
	"kindra/internal/donation/service"
	campaignstore "kindra/internal/donation/store/campaign"
	donationstore "kindra/internal/donation/store/donation"
	donorstore "kindra/internal/donation/store/donor"
	materialstore "kindra/internal/donation/store/material"
	receiptstore "kindra/internal/donation/store/receipt"
	"kindra/internal/notification"
	notifmodels "kindra/internal/notification/models"
	id "kindra/pkg/domain"
	dErrors "kindra/pkg/domain-errors"
	"kindra/pkg/platform/tx"
)

// fakeNotifier records fan-outs for assertions.
type fakeNotifier struct {
	mu       sync.Mutex
	staffMsg []notifmodels.Message
	userMsg  map[id.UserID][]notifmodels.Message
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{userMsg: make(map[id.UserID][]notifmodels.Message)}
}

func (f *fakeNotifier) Notify(_ context.Context, audience notification.Audience, msg notifmodels.Message) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.staffMsg = append(f.staffMsg, msg)
	return len(audience)
}

func (f *fakeNotifier) NotifyUser(_ context.Context, recipient id.UserID, msg notifmodels.Message) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userMsg[recipient] = append(f.userMsg[recipient], msg)
	return true
}

func (f *fakeNotifier) staffCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.staffMsg)
}

// fakeAudience resolves a fixed staff list.
type fakeAudience struct {
	staff notification.Audience
}

func (f *fakeAudience) Staff(context.Context) (notification.Audience, error) {
	return f.staff, nil
}

type fixture struct {
	donations *donationstore.InMemory
	campaigns *campaignstore.InMemory
	donors    *donorstore.InMemory
	receipts  *receiptstore.InMemory
	materials *materialstore.InMemory
	notifier  *fakeNotifier
	svc       *service.Service
}

func newFixture(opts ...service.Option) *fixture {
	f := &fixture{
		donations: donationstore.NewInMemory(),
		campaigns: campaignstore.NewInMemory(),
		donors:    donorstore.NewInMemory(),
		receipts:  receiptstore.NewInMemory(),
		materials: materialstore.NewInMemory(),
		notifier:  newFakeNotifier(),
	}
	staff := notification.Audience{id.UserID(uuid.New()), id.UserID(uuid.New())}
	base := []service.Option{
		service.WithNotifications(f.notifier, &fakeAudience{staff: staff}),
	}
	f.svc = service.New(
		f.donations, f.campaigns, f.donors, f.receipts, f.materials,
		tx.PassthroughRunner{}, receipts.NewIssuer(f.receipts),
		append(base, opts...)...,
	)
	return f
}

func (f *fixture) seedCampaign(s *suite.Suite) *models.Campaign {
	now := time.Now()
	c := &models.Campaign{
		ID:           id.CampaignID(uuid.New()),
		Title:        "School Meals",
		Slug:         "school-meals-" + uuid.NewString()[:8],
		TargetAmount: decimal.NewFromInt(100000),
		RaisedAmount: decimal.Zero,
		Currency:     "KES",
		StartDate:    now,
		EndDate:      now.Add(30 * 24 * time.Hour),
		Status:       models.CampaignActive,
		Category:     models.CategoryEducation,
		Urgency:      "HIGH",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.Require().NoError(f.campaigns.Create(context.Background(), c))
	return c
}

func (f *fixture) seedDonor(s *suite.Suite) *models.Donor {
	now := time.Now()
	userID := id.UserID(uuid.New())
	d := &models.Donor{
		ID:           id.DonorID(uuid.New()),
		UserID:       &userID,
		Type:         models.DonorIndividual,
		FullName:     "Jane Wanjiku",
		Email:        "jane-" + uuid.NewString()[:8] + "@example.com",
		Country:      "Kenya",
		TotalDonated: decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.Require().NoError(f.donors.Create(context.Background(), d))
	return d
}

func (f *fixture) seedPending(s *suite.Suite, campaign *models.Campaign, donor *models.Donor, amount int64) *models.Donation {
	now := time.Now()
	d := &models.Donation{
		ID:            id.NewDonationID(),
		Amount:        decimal.NewFromInt(amount),
		Currency:      "KES",
		PaymentMethod: models.PaymentMpesa,
		TransactionID: "TXN-" + uuid.NewString(),
		Status:        models.DonationPending,
		DonatedAt:     now,
		UpdatedAt:     now,
	}
	if campaign != nil {
		d.CampaignID = &campaign.ID
	}
	if donor != nil {
		d.DonorID = &donor.ID
	}
	s.Require().NoError(f.donations.Create(context.Background(), d))
	return d
}

type FinalizeSuite struct {
	suite.Suite
	f   *fixture
	ctx context.Context
}

func (s *FinalizeSuite) SetupTest() {
	s.f = newFixture()
	s.ctx = context.Background()
}

func TestFinalizeSuite(t *testing.T) {
	suite.Run(t, new(FinalizeSuite))
}

// TestFinalizeCreditsAtomically verifies the happy path: transition, campaign
// credit, donor credit, receipt, and notifications.
func (s *FinalizeSuite) TestFinalizeCreditsAtomically() {
	campaign := s.f.seedCampaign(&s.Suite)
	donor := s.f.seedDonor(&s.Suite)
	d := s.f.seedPending(&s.Suite, campaign, donor, 1000)

	result, err := s.f.svc.Finalize(s.ctx, d.ID)
	s.Require().NoError(err)
	s.False(result.AlreadyFinalized)
	s.Equal(models.DonationCompleted, result.Donation.Status)

	s.Require().NotNil(result.Receipt, "receipt must be issued")
	s.Regexp(`^REC-[0-9A-F]{8}$`, result.Receipt.ReceiptNumber)

	gotCampaign, err := s.f.campaigns.FindByID(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.True(gotCampaign.RaisedAmount.Equal(decimal.NewFromInt(1000)))

	gotDonor, err := s.f.donors.FindByID(s.ctx, donor.ID)
	s.Require().NoError(err)
	s.True(gotDonor.TotalDonated.Equal(decimal.NewFromInt(1000)))

	s.Equal(1, s.f.notifier.staffCount(), "staff should be notified once")
	s.Len(s.f.notifier.userMsg[*donor.UserID], 1, "donor should be thanked")

	ledger, err := s.f.donations.FindByID(s.ctx, d.ID)
	s.Require().NoError(err)
	s.True(ledger.ReceiptSent)
}

// TestFinalizeIsIdempotent verifies the second call observes the first
// outcome without crediting again.
func (s *FinalizeSuite) TestFinalizeIsIdempotent() {
	campaign := s.f.seedCampaign(&s.Suite)
	d := s.f.seedPending(&s.Suite, campaign, nil, 500)

	first, err := s.f.svc.Finalize(s.ctx, d.ID)
	s.Require().NoError(err)

	second, err := s.f.svc.Finalize(s.ctx, d.ID)
	s.Require().NoError(err)
	s.True(second.AlreadyFinalized)
	s.Equal(first.Receipt.ReceiptNumber, second.Receipt.ReceiptNumber)

	gotCampaign, err := s.f.campaigns.FindByID(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.True(gotCampaign.RaisedAmount.Equal(decimal.NewFromInt(500)), "credit must apply exactly once")

	s.Equal(1, s.f.notifier.staffCount(), "no duplicate notifications")
}

// TestConcurrentFinalize verifies N concurrent calls credit exactly once.
func (s *FinalizeSuite) TestConcurrentFinalize() {
	campaign := s.f.seedCampaign(&s.Suite)
	d := s.f.seedPending(&s.Suite, campaign, nil, 750)

	const goroutines = 25
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.f.svc.Finalize(s.ctx, d.ID)
			s.NoError(err)
		}()
	}
	wg.Wait()

	gotCampaign, err := s.f.campaigns.FindByID(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.True(gotCampaign.RaisedAmount.Equal(decimal.NewFromInt(750)),
		"aggregate must reflect exactly one credit: got %s", gotCampaign.RaisedAmount)

	r, err := s.f.receipts.FindByDonationID(s.ctx, d.ID)
	s.Require().NoError(err)
	s.NotNil(r, "exactly one receipt exists")
}

// TestFinalizeRejectsTerminalStates verifies FAILED and REFUNDED donations
// cannot be finalized.
func (s *FinalizeSuite) TestFinalizeRejectsTerminalStates() {
	for _, status := range []models.DonationStatus{models.DonationFailed, models.DonationRefunded} {
		s.Run(string(status), func() {
			d := s.f.seedPending(&s.Suite, nil, nil, 100)
			if status == models.DonationFailed {
				moved, err := s.f.donations.TransitionStatus(s.ctx, d.ID, models.DonationPending, models.DonationFailed, time.Now())
				s.Require().NoError(err)
				s.Require().True(moved)
			} else {
				_, err := s.f.svc.Finalize(s.ctx, d.ID)
				s.Require().NoError(err)
				moved, err := s.f.donations.TransitionStatus(s.ctx, d.ID, models.DonationCompleted, models.DonationRefunded, time.Now())
				s.Require().NoError(err)
				s.Require().True(moved)
			}

			_, err := s.f.svc.Finalize(s.ctx, d.ID)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition), "got %v", err)
		})
	}
}

// TestFinalizeUnknownDonation verifies the not-found taxonomy.
func (s *FinalizeSuite) TestFinalizeUnknownDonation() {
	_, err := s.f.svc.Finalize(s.ctx, id.NewDonationID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// TestFinalizeWithoutCampaignOrDonor verifies a general-fund anonymous
// donation finalizes with no aggregate writes.
func (s *FinalizeSuite) TestFinalizeWithoutCampaignOrDonor() {
	d := s.f.seedPending(&s.Suite, nil, nil, 200)

	result, err := s.f.svc.Finalize(s.ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(models.DonationCompleted, result.Donation.Status)
	s.NotNil(result.Receipt)
}
