package receipt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kindra/internal/donation/models"
	id "kindra/pkg/domain"
	"kindra/pkg/platform/sentinel"
)

type ReceiptStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *ReceiptStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestReceiptStoreSuite(t *testing.T) {
	suite.Run(t, new(ReceiptStoreSuite))
}

func (s *ReceiptStoreSuite) newReceipt(number string) *models.Receipt {
	return &models.Receipt{
		ID:            id.NewReceiptID(),
		DonationID:    id.NewDonationID(),
		ReceiptNumber: number,
		TaxDeductible: true,
		TaxYear:       2026,
		GeneratedAt:   time.Now(),
	}
}

// TestCreationAndLookups verifies create and all three lookups.
func (s *ReceiptStoreSuite) TestCreationAndLookups() {
	r := s.newReceipt("REC-AB12CD34")
	s.Require().NoError(s.store.Create(s.ctx, r))

	found, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.ReceiptNumber, found.ReceiptNumber)

	found, err = s.store.FindByDonationID(s.ctx, r.DonationID)
	s.Require().NoError(err)
	s.Equal(r.ID, found.ID)

	found, err = s.store.FindByNumber(s.ctx, "REC-AB12CD34")
	s.Require().NoError(err)
	s.Equal(r.ID, found.ID)
}

// TestUniqueness verifies both the per-donation and per-number constraints.
func (s *ReceiptStoreSuite) TestUniqueness() {
	s.Run("rejects second receipt for same donation", func() {
		r1 := s.newReceipt("REC-11111111")
		s.Require().NoError(s.store.Create(s.ctx, r1))

		r2 := s.newReceipt("REC-22222222")
		r2.DonationID = r1.DonationID
		s.Require().ErrorIs(s.store.Create(s.ctx, r2), sentinel.ErrAlreadyUsed)
	})

	s.Run("rejects duplicate receipt number", func() {
		r1 := s.newReceipt("REC-33333333")
		r2 := s.newReceipt("REC-33333333")
		s.Require().NoError(s.store.Create(s.ctx, r1))
		s.Require().ErrorIs(s.store.Create(s.ctx, r2), sentinel.ErrAlreadyUsed)
	})
}

// TestSaveDocument verifies document attachment after issuance.
func (s *ReceiptStoreSuite) TestSaveDocument() {
	r := s.newReceipt("REC-44444444")
	s.Require().NoError(s.store.Create(s.ctx, r))

	found, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.False(found.Rendered())

	renderedAt := time.Now()
	s.Require().NoError(s.store.SaveDocument(s.ctx, r.ID, []byte("OFFICIAL RECEIPT"), renderedAt))

	found, err = s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.True(found.Rendered())
	s.Equal([]byte("OFFICIAL RECEIPT"), found.Document)

	s.Require().ErrorIs(s.store.SaveDocument(s.ctx, id.NewReceiptID(), nil, renderedAt), sentinel.ErrNotFound)
}
