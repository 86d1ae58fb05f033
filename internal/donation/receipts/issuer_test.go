package receipts_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"kindra/internal/donation/models"
	"kindra/internal/donation/receipts"
	"kindra/internal/donation/store/receipt"
	id "kindra/pkg/domain"
)

type IssuerSuite struct {
	suite.Suite
	store  *receipt.InMemory
	issuer *receipts.Issuer
	ctx    context.Context
}

func (s *IssuerSuite) SetupTest() {
	s.store = receipt.NewInMemory()
	s.issuer = receipts.NewIssuer(s.store)
	s.ctx = context.Background()
}

func TestIssuerSuite(t *testing.T) {
	suite.Run(t, new(IssuerSuite))
}

func (s *IssuerSuite) newDonation() *models.Donation {
	now := time.Now()
	return &models.Donation{
		ID:            id.NewDonationID(),
		Amount:        decimal.NewFromInt(500),
		Currency:      "KES",
		PaymentMethod: models.PaymentMpesa,
		TransactionID: "TXN-" + id.NewDonationID().String(),
		Status:        models.DonationCompleted,
		DonatedAt:     now,
		UpdatedAt:     now,
	}
}

// TestIssueIsIdempotent verifies repeated issuance returns the same receipt.
func (s *IssuerSuite) TestIssueIsIdempotent() {
	d := s.newDonation()

	first, err := s.issuer.Issue(s.ctx, d)
	s.Require().NoError(err)
	s.Regexp(`^REC-[0-9A-F]{8}$`, first.ReceiptNumber)
	s.Equal(d.ID, first.DonationID)

	second, err := s.issuer.Issue(s.ctx, d)
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)
	s.Equal(first.ReceiptNumber, second.ReceiptNumber)
}

// TestConcurrentIssue verifies concurrent issuance converges on one receipt.
func (s *IssuerSuite) TestConcurrentIssue() {
	d := s.newDonation()

	const goroutines = 20
	var wg sync.WaitGroup
	results := make([]*models.Receipt, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			r, err := s.issuer.Issue(s.ctx, d)
			if err == nil {
				results[idx] = r
			}
		}(i)
	}
	wg.Wait()

	var firstNumber string
	for _, r := range results {
		s.Require().NotNil(r, "every issuance should resolve to a receipt")
		if firstNumber == "" {
			firstNumber = r.ReceiptNumber
		}
		s.Equal(firstNumber, r.ReceiptNumber, "all callers must see the same receipt")
	}
}
