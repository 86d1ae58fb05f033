package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kindra/internal/donation/models"
	"kindra/internal/donation/service"
	dErrors "kindra/pkg/domain-errors"
)

type MaterialSuite struct {
	suite.Suite
	f   *fixture
	ctx context.Context
}

func (s *MaterialSuite) SetupTest() {
	s.f = newFixture()
	s.ctx = context.Background()
}

func TestMaterialSuite(t *testing.T) {
	suite.Run(t, new(MaterialSuite))
}

func (s *MaterialSuite) submit() *models.MaterialDonation {
	m, err := s.f.svc.SubmitMaterial(s.ctx, service.SubmitMaterialRequest{
		Category:            models.ItemClothes,
		Description:         "Winter jackets",
		Quantity:            "3 boxes",
		PickupAddress:       "12 Moi Avenue, Nairobi",
		PreferredPickupDate: time.Now().Add(48 * time.Hour),
	})
	s.Require().NoError(err)
	return m
}

// TestSubmitNotifiesStaff verifies submission lands PENDING_PICKUP and
// alerts staff.
func (s *MaterialSuite) TestSubmitNotifiesStaff() {
	m := s.submit()
	s.Equal(models.MaterialPendingPickup, m.Status)
	s.Equal(1, s.f.notifier.staffCount())
}

// TestSubmitValidation verifies the validation taxonomy.
func (s *MaterialSuite) TestSubmitValidation() {
	_, err := s.f.svc.SubmitMaterial(s.ctx, service.SubmitMaterialRequest{
		Category:            "FURNITURE",
		Description:         "Desk",
		Quantity:            "1",
		PickupAddress:       "somewhere",
		PreferredPickupDate: time.Now(),
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

// TestPickupLifecycle walks PENDING_PICKUP -> COLLECTED -> DISTRIBUTED.
func (s *MaterialSuite) TestPickupLifecycle() {
	m := s.submit()

	collected, err := s.f.svc.MarkCollected(s.ctx, m.ID, "driver route 4")
	s.Require().NoError(err)
	s.Equal(models.MaterialCollected, collected.Status)
	s.Equal("driver route 4", collected.AdminNotes)

	distributed, err := s.f.svc.MarkDistributed(s.ctx, m.ID, "delivered to shelter")
	s.Require().NoError(err)
	s.Equal(models.MaterialDistributed, distributed.Status)
}

// TestInvalidTransitions verifies fencing across the pickup state machine.
func (s *MaterialSuite) TestInvalidTransitions() {
	s.Run("cannot distribute before collection", func() {
		m := s.submit()
		_, err := s.f.svc.MarkDistributed(s.ctx, m.ID, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("cannot cancel after collection", func() {
		m := s.submit()
		_, err := s.f.svc.MarkCollected(s.ctx, m.ID, "")
		s.Require().NoError(err)

		_, err = s.f.svc.CancelMaterial(s.ctx, m.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("repeated collection is idempotent", func() {
		m := s.submit()
		_, err := s.f.svc.MarkCollected(s.ctx, m.ID, "")
		s.Require().NoError(err)

		again, err := s.f.svc.MarkCollected(s.ctx, m.ID, "")
		s.Require().NoError(err)
		s.Equal(models.MaterialCollected, again.Status)
	})
}

// TestRejectPickup verifies rejection from the pending state.
func (s *MaterialSuite) TestRejectPickup() {
	m := s.submit()
	rejected, err := s.f.svc.RejectMaterial(s.ctx, m.ID, "items unsuitable")
	s.Require().NoError(err)
	s.Equal(models.MaterialRejected, rejected.Status)
	s.Equal("items unsuitable", rejected.AdminNotes)
}
