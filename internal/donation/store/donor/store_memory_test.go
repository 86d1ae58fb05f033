package donor

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"kindra/internal/donation/models"
	id "kindra/pkg/domain"
	"kindra/pkg/platform/sentinel"
)

type DonorStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *DonorStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestDonorStoreSuite(t *testing.T) {
	suite.Run(t, new(DonorStoreSuite))
}

func (s *DonorStoreSuite) newDonor(name, email string) *models.Donor {
	now := time.Now()
	return &models.Donor{
		ID:           id.DonorID(uuid.New()),
		Type:         models.DonorIndividual,
		FullName:     name,
		Email:        email,
		Country:      "Kenya",
		TotalDonated: decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// TestCreationAndLookups verifies create, ID and email lookups.
func (s *DonorStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds by email case-insensitively", func() {
		d := s.newDonor("Jane Wanjiku", "jane@example.com")
		s.Require().NoError(s.store.Create(s.ctx, d))

		found, err := s.store.FindByEmail(s.ctx, "JANE@example.com")
		s.Require().NoError(err)
		s.Equal(d.ID, found.ID)
	})

	s.Run("rejects duplicate email", func() {
		d1 := s.newDonor("First", "dup@example.com")
		d2 := s.newDonor("Second", "DUP@example.com")
		s.Require().NoError(s.store.Create(s.ctx, d1))
		s.Require().ErrorIs(s.store.Create(s.ctx, d2), sentinel.ErrAlreadyUsed)
	})

	s.Run("allows multiple donors without email", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newDonor("Anon One", "")))
		s.Require().NoError(s.store.Create(s.ctx, s.newDonor("Anon Two", "")))
	})
}

// TestCreditAndSetTotal verifies the lifetime total contract.
func (s *DonorStoreSuite) TestCreditAndSetTotal() {
	d := s.newDonor("Otieno", "otieno@example.com")
	s.Require().NoError(s.store.Create(s.ctx, d))

	s.Require().NoError(s.store.Credit(s.ctx, d.ID, decimal.NewFromInt(200), time.Now()))
	s.Require().NoError(s.store.Credit(s.ctx, d.ID, decimal.NewFromInt(300), time.Now()))

	found, err := s.store.FindByID(s.ctx, d.ID)
	s.Require().NoError(err)
	s.True(found.TotalDonated.Equal(decimal.NewFromInt(500)))

	s.Require().NoError(s.store.SetTotal(s.ctx, d.ID, decimal.NewFromInt(450), time.Now()))
	found, err = s.store.FindByID(s.ctx, d.ID)
	s.Require().NoError(err)
	s.True(found.TotalDonated.Equal(decimal.NewFromInt(450)))
}

// TestUpdatePreservesTotal verifies profile updates cannot clobber the total.
func (s *DonorStoreSuite) TestUpdatePreservesTotal() {
	d := s.newDonor("Akinyi", "akinyi@example.com")
	s.Require().NoError(s.store.Create(s.ctx, d))
	s.Require().NoError(s.store.Credit(s.ctx, d.ID, decimal.NewFromInt(150), time.Now()))

	updated := *d
	updated.City = "Nairobi"
	updated.TotalDonated = decimal.Zero // stale caller copy
	s.Require().NoError(s.store.Update(s.ctx, &updated))

	found, err := s.store.FindByID(s.ctx, d.ID)
	s.Require().NoError(err)
	s.Equal("Nairobi", found.City)
	s.True(found.TotalDonated.Equal(decimal.NewFromInt(150)))
}
