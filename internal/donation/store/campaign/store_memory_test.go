package campaign

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"kindra/internal/donation/models"
	id "kindra/pkg/domain"
	"kindra/pkg/platform/sentinel"
)

type CampaignStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *CampaignStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestCampaignStoreSuite(t *testing.T) {
	suite.Run(t, new(CampaignStoreSuite))
}

func (s *CampaignStoreSuite) newCampaign(title, slug string) *models.Campaign {
	now := time.Now()
	return &models.Campaign{
		ID:           id.CampaignID(uuid.New()),
		Title:        title,
		Slug:         slug,
		TargetAmount: decimal.NewFromInt(100000),
		RaisedAmount: decimal.Zero,
		Currency:     "KES",
		StartDate:    now,
		EndDate:      now.Add(30 * 24 * time.Hour),
		Status:       models.CampaignActive,
		Category:     models.CategoryEducation,
		Urgency:      "MEDIUM",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// TestCreationAndLookups verifies create, ID and slug lookups.
func (s *CampaignStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds by ID and slug", func() {
		c := s.newCampaign("School Meals", "school-meals")
		s.Require().NoError(s.store.Create(s.ctx, c))

		found, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(c.Title, found.Title)

		found, err = s.store.FindBySlug(s.ctx, "school-meals")
		s.Require().NoError(err)
		s.Equal(c.ID, found.ID)
	})

	s.Run("rejects duplicate slug", func() {
		c1 := s.newCampaign("First", "dup-slug")
		c2 := s.newCampaign("Second", "DUP-SLUG")
		s.Require().NoError(s.store.Create(s.ctx, c1))
		s.Require().ErrorIs(s.store.Create(s.ctx, c2), sentinel.ErrAlreadyUsed)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, id.CampaignID(uuid.New()))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestCredit verifies the raised aggregate accumulates under concurrency.
func (s *CampaignStoreSuite) TestCredit() {
	c := s.newCampaign("Water Wells", "water-wells")
	s.Require().NoError(s.store.Create(s.ctx, c))

	const goroutines = 20
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Credit(s.ctx, c.ID, decimal.NewFromInt(50), time.Now())
			s.NoError(err)
		}()
	}
	wg.Wait()

	found, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.True(found.RaisedAmount.Equal(decimal.NewFromInt(goroutines*50)),
		"no credit may be lost: got %s", found.RaisedAmount)
}

// TestSetRaised verifies the reconciliation overwrite.
func (s *CampaignStoreSuite) TestSetRaised() {
	c := s.newCampaign("Clinic", "clinic")
	s.Require().NoError(s.store.Create(s.ctx, c))
	s.Require().NoError(s.store.Credit(s.ctx, c.ID, decimal.NewFromInt(700), time.Now()))

	s.Require().NoError(s.store.SetRaised(s.ctx, c.ID, decimal.NewFromInt(500), time.Now()))

	found, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.True(found.RaisedAmount.Equal(decimal.NewFromInt(500)))
}

// TestUpdatePreservesAggregate verifies metadata updates cannot clobber the
// raised amount.
func (s *CampaignStoreSuite) TestUpdatePreservesAggregate() {
	c := s.newCampaign("Books", "books")
	s.Require().NoError(s.store.Create(s.ctx, c))
	s.Require().NoError(s.store.Credit(s.ctx, c.ID, decimal.NewFromInt(250), time.Now()))

	updated := *c
	updated.Title = "Books for All"
	updated.RaisedAmount = decimal.Zero // stale caller copy
	s.Require().NoError(s.store.Update(s.ctx, &updated))

	found, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal("Books for All", found.Title)
	s.True(found.RaisedAmount.Equal(decimal.NewFromInt(250)))
}
