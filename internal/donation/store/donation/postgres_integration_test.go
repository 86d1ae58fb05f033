//go:build integration

package donation_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"kindra/internal/donation/models"
	"kindra/internal/donation/store/donation"
	id "kindra/pkg/domain"
	"kindra/pkg/platform/sentinel"
	"kindra/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *donation.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = donation.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "receipts", "donations")
	s.Require().NoError(err)
}

func newTestDonation(txnID string, amount int64) *models.Donation {
	now := time.Now().UTC()
	return &models.Donation{
		ID:            id.NewDonationID(),
		Amount:        decimal.NewFromInt(amount),
		Currency:      "KES",
		PaymentMethod: models.PaymentMpesa,
		TransactionID: txnID,
		Status:        models.DonationPending,
		DonatedAt:     now,
		UpdatedAt:     now,
	}
}

// TestConcurrentClaim verifies that of many concurrent finalization attempts
// exactly one wins the conditional update.
func (s *PostgresStoreSuite) TestConcurrentClaim() {
	ctx := context.Background()
	d := newTestDonation("TXN-RACE-"+uuid.NewString(), 1000)
	s.Require().NoError(s.store.Create(ctx, d))

	const goroutines = 50
	var wg sync.WaitGroup
	var wins atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := s.store.ClaimCompleted(ctx, d.ID, time.Now().UTC())
			if err == nil && claimed {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load(), "exactly one claim should win")

	found, err := s.store.FindByID(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(models.DonationCompleted, found.Status)
}

// TestConcurrentDuplicateTransaction verifies the unique transaction_id
// constraint under concurrent intake.
func (s *PostgresStoreSuite) TestConcurrentDuplicateTransaction() {
	ctx := context.Background()
	txnID := "TXN-DUP-" + uuid.NewString()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount atomic.Int32
	var conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, newTestDonation(txnID, 500))
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrAlreadyUsed) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should get conflict")
}

// TestTransitionFencing verifies refunds cannot double-apply.
func (s *PostgresStoreSuite) TestTransitionFencing() {
	ctx := context.Background()
	d := newTestDonation("TXN-REFUND-"+uuid.NewString(), 300)
	s.Require().NoError(s.store.Create(ctx, d))

	claimed, err := s.store.ClaimCompleted(ctx, d.ID, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().True(claimed)

	moved, err := s.store.TransitionStatus(ctx, d.ID, models.DonationCompleted, models.DonationRefunded, time.Now().UTC())
	s.Require().NoError(err)
	s.True(moved)

	moved, err = s.store.TransitionStatus(ctx, d.ID, models.DonationCompleted, models.DonationRefunded, time.Now().UTC())
	s.Require().NoError(err)
	s.False(moved)
}

// TestSumCompletedByCampaign verifies only COMPLETED rows count.
func (s *PostgresStoreSuite) TestSumCompletedByCampaign() {
	ctx := context.Background()
	campaignID := seedCampaign(s)

	completed := newTestDonation("TXN-SUM-A-"+uuid.NewString(), 400)
	completed.CampaignID = &campaignID
	s.Require().NoError(s.store.Create(ctx, completed))
	claimed, err := s.store.ClaimCompleted(ctx, completed.ID, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().True(claimed)

	pending := newTestDonation("TXN-SUM-B-"+uuid.NewString(), 999)
	pending.CampaignID = &campaignID
	s.Require().NoError(s.store.Create(ctx, pending))

	total, err := s.store.SumCompletedByCampaign(ctx, campaignID)
	s.Require().NoError(err)
	s.True(total.Equal(decimal.NewFromInt(400)), "got %s", total)
}

func seedCampaign(s *PostgresStoreSuite) id.CampaignID {
	campaignID := id.CampaignID(uuid.New())
	now := time.Now().UTC()
	_, err := s.postgres.DB.Exec(`
		INSERT INTO campaigns (id, title, slug, target_amount, start_date, end_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, 100000, $4, $5, 'ACTIVE', $4, $4)`,
		uuid.UUID(campaignID), "Sum Test Campaign", "sum-test-"+uuid.NewString(), now, now.Add(30*24*time.Hour))
	s.Require().NoError(err)
	return campaignID
}
