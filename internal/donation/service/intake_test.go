package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"kindra/internal/donation/models"
	"kindra/internal/donation/service"
	dErrors "kindra/pkg/domain-errors"
)

type IntakeSuite struct {
	suite.Suite
	f   *fixture
	ctx context.Context
}

func (s *IntakeSuite) SetupTest() {
	s.f = newFixture()
	s.ctx = context.Background()
}

func TestIntakeSuite(t *testing.T) {
	suite.Run(t, new(IntakeSuite))
}

// TestMpesaStaysPending verifies the asynchronous channel policy: phone
// required, entry waits for confirmation.
func (s *IntakeSuite) TestMpesaStaysPending() {
	s.Run("requires phone number", func() {
		_, err := s.f.svc.CreateDonation(s.ctx, service.CreateDonationRequest{
			Amount:        decimal.NewFromInt(500),
			Method:        models.PaymentMpesa,
			TransactionID: "ws_CO_001",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("creates a pending entry", func() {
		d, err := s.f.svc.CreateDonation(s.ctx, service.CreateDonationRequest{
			Amount:        decimal.NewFromInt(500),
			Method:        models.PaymentMpesa,
			TransactionID: "ws_CO_002",
			PhoneNumber:   "254712345678",
		})
		s.Require().NoError(err)
		s.Equal(models.DonationPending, d.Status)
		s.Equal("KES", d.Currency, "default currency applies")
		s.Equal("254712345678", d.PaymentReference)
	})
}

// TestStripeSettlesAtIntake verifies instant channels finalize through the
// standard path and still get a minted transaction ID when absent.
func (s *IntakeSuite) TestStripeSettlesAtIntake() {
	campaign := s.f.seedCampaign(&s.Suite)

	d, err := s.f.svc.CreateDonation(s.ctx, service.CreateDonationRequest{
		Amount:     decimal.NewFromInt(2500),
		Method:     models.PaymentStripe,
		CampaignID: &campaign.ID,
	})
	s.Require().NoError(err)
	s.Equal(models.DonationCompleted, d.Status, "stripe settles at intake")
	s.Regexp(`^STRIPE-[0-9A-F]{12}$`, d.TransactionID)

	gotCampaign, err := s.f.campaigns.FindByID(s.ctx, campaign.ID)
	s.Require().NoError(err)
	s.True(gotCampaign.RaisedAmount.Equal(decimal.NewFromInt(2500)), "credit flows through finalization")

	r, err := s.f.receipts.FindByDonationID(s.ctx, d.ID)
	s.Require().NoError(err)
	s.NotNil(r)
}

// TestPaypalRequiresOrderID verifies the PayPal policy.
func (s *IntakeSuite) TestPaypalRequiresOrderID() {
	_, err := s.f.svc.CreateDonation(s.ctx, service.CreateDonationRequest{
		Amount: decimal.NewFromInt(100),
		Method: models.PaymentPaypal,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	d, err := s.f.svc.CreateDonation(s.ctx, service.CreateDonationRequest{
		Amount:        decimal.NewFromInt(100),
		Method:        models.PaymentPaypal,
		TransactionID: "PAYPAL-ORDER-1",
	})
	s.Require().NoError(err)
	s.Equal(models.DonationCompleted, d.Status)
}

// TestDuplicateTransactionRejected verifies a resubmitted transaction ID is
// refused with a conflict and never merged into the original entry.
func (s *IntakeSuite) TestDuplicateTransactionRejected() {
	req := service.CreateDonationRequest{
		Amount:        decimal.NewFromInt(500),
		Method:        models.PaymentMpesa,
		TransactionID: "ws_CO_DUP",
		PhoneNumber:   "254700000000",
	}
	first, err := s.f.svc.CreateDonation(s.ctx, req)
	s.Require().NoError(err)

	_, err = s.f.svc.CreateDonation(s.ctx, req)
	s.Require().Error(err, "duplicate transaction_id must be rejected")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	got, err := s.f.donations.FindByID(s.ctx, first.ID)
	s.Require().NoError(err)
	s.Equal(models.DonationPending, got.Status, "original entry untouched")
}

// TestDonorResolution verifies profiles are found or created by email.
func (s *IntakeSuite) TestDonorResolution() {
	d1, err := s.f.svc.CreateDonation(s.ctx, service.CreateDonationRequest{
		Amount:        decimal.NewFromInt(300),
		Method:        models.PaymentMpesa,
		TransactionID: "ws_CO_A",
		PhoneNumber:   "254711111111",
		DonorEmail:    "Otieno@Example.com",
		DonorName:     "Otieno",
	})
	s.Require().NoError(err)
	s.Require().NotNil(d1.DonorID)

	d2, err := s.f.svc.CreateDonation(s.ctx, service.CreateDonationRequest{
		Amount:        decimal.NewFromInt(700),
		Method:        models.PaymentMpesa,
		TransactionID: "ws_CO_B",
		PhoneNumber:   "254722222222",
		DonorEmail:    "otieno@example.com",
	})
	s.Require().NoError(err)
	s.Require().NotNil(d2.DonorID)
	s.Equal(*d1.DonorID, *d2.DonorID, "same email resolves to one profile")

	donor, err := s.f.donors.FindByID(s.ctx, *d1.DonorID)
	s.Require().NoError(err)
	s.Equal("Otieno", donor.FullName)
}

// TestAnonymousSkipsDonorProfile verifies anonymous donations carry no donor
// link even when an email is supplied.
func (s *IntakeSuite) TestAnonymousSkipsDonorProfile() {
	d, err := s.f.svc.CreateDonation(s.ctx, service.CreateDonationRequest{
		Amount:        decimal.NewFromInt(50),
		Method:        models.PaymentMpesa,
		TransactionID: "ws_CO_ANON",
		PhoneNumber:   "254733333333",
		DonorEmail:    "private@example.com",
		IsAnonymous:   true,
	})
	s.Require().NoError(err)
	s.Nil(d.DonorID)
}

// TestUnknownCampaignRejected verifies the validation taxonomy for a bad
// campaign reference.
func (s *IntakeSuite) TestUnknownCampaignRejected() {
	campaign := s.f.seedCampaign(&s.Suite)
	bogus := campaign.ID
	s.f = newFixture() // fresh stores, campaign no longer exists

	_, err := s.f.svc.CreateDonation(s.ctx, service.CreateDonationRequest{
		Amount:        decimal.NewFromInt(100),
		Method:        models.PaymentMpesa,
		TransactionID: "ws_CO_BAD",
		PhoneNumber:   "254744444444",
		CampaignID:    &bogus,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}
