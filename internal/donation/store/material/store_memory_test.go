package material

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kindra/internal/donation/models"
	id "kindra/pkg/domain"
	"kindra/pkg/platform/sentinel"
)

type MaterialStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *MaterialStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestMaterialStoreSuite(t *testing.T) {
	suite.Run(t, new(MaterialStoreSuite))
}

func (s *MaterialStoreSuite) newMaterial() *models.MaterialDonation {
	now := time.Now()
	return &models.MaterialDonation{
		ID:                  id.NewMaterialDonationID(),
		Category:            models.ItemClothes,
		Description:         "Winter jackets",
		Quantity:            "3 boxes",
		PickupAddress:       "12 Moi Avenue, Nairobi",
		PreferredPickupDate: now.Add(48 * time.Hour),
		Status:              models.MaterialPendingPickup,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// TestCreationAndLookup verifies create and lookup.
func (s *MaterialStoreSuite) TestCreationAndLookup() {
	m := s.newMaterial()
	s.Require().NoError(s.store.Create(s.ctx, m))

	found, err := s.store.FindByID(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Equal(m.Description, found.Description)

	_, err = s.store.FindByID(s.ctx, id.NewMaterialDonationID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestTransitionFencing verifies the pickup state machine fencing.
func (s *MaterialStoreSuite) TestTransitionFencing() {
	m := s.newMaterial()
	s.Require().NoError(s.store.Create(s.ctx, m))

	moved, err := s.store.TransitionStatus(s.ctx, m.ID, models.MaterialPendingPickup, models.MaterialCollected, "picked up by driver", time.Now())
	s.Require().NoError(err)
	s.True(moved)

	moved, err = s.store.TransitionStatus(s.ctx, m.ID, models.MaterialPendingPickup, models.MaterialCancelled, "", time.Now())
	s.Require().NoError(err)
	s.False(moved, "cancel after collection must lose the fence")

	found, err := s.store.FindByID(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Equal(models.MaterialCollected, found.Status)
	s.Equal("picked up by driver", found.AdminNotes)
}

// TestListByStatus verifies filtering.
func (s *MaterialStoreSuite) TestListByStatus() {
	m1 := s.newMaterial()
	m2 := s.newMaterial()
	s.Require().NoError(s.store.Create(s.ctx, m1))
	s.Require().NoError(s.store.Create(s.ctx, m2))

	moved, err := s.store.TransitionStatus(s.ctx, m2.ID, models.MaterialPendingPickup, models.MaterialCollected, "", time.Now())
	s.Require().NoError(err)
	s.Require().True(moved)

	pending, err := s.store.ListByStatus(s.ctx, models.MaterialPendingPickup, 0)
	s.Require().NoError(err)
	s.Len(pending, 1)
	s.Equal(m1.ID, pending[0].ID)

	all, err := s.store.ListByStatus(s.ctx, "", 0)
	s.Require().NoError(err)
	s.Len(all, 2)
}
