package donation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"kindra/internal/donation/models"
	id "kindra/pkg/domain"
	"kindra/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded ledger for unit tests and local development.
// It enforces the same fencing semantics as PostgresStore.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[id.DonationID]*models.Donation
	byTxnID map[string]id.DonationID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[id.DonationID]*models.Donation),
		byTxnID: make(map[string]id.DonationID),
	}
}

func (s *InMemory) Create(_ context.Context, d *models.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byTxnID[d.TransactionID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	if _, exists := s.byID[d.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	clone := *d
	s.byID[d.ID] = &clone
	s.byTxnID[d.TransactionID] = d.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, donationID id.DonationID) (*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.byID[donationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *d
	return &clone, nil
}

func (s *InMemory) FindByTransactionID(_ context.Context, transactionID string) (*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	donationID, ok := s.byTxnID[transactionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.byID[donationID]
	return &clone, nil
}

func (s *InMemory) ClaimCompleted(_ context.Context, donationID id.DonationID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byID[donationID]
	if !ok || d.Status != models.DonationPending {
		return false, nil
	}
	d.Status = models.DonationCompleted
	d.UpdatedAt = now
	return true, nil
}

func (s *InMemory) TransitionStatus(_ context.Context, donationID id.DonationID, from, to models.DonationStatus, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byID[donationID]
	if !ok || d.Status != from {
		return false, nil
	}
	d.Status = to
	d.UpdatedAt = now
	return true, nil
}

func (s *InMemory) MarkReceiptSent(_ context.Context, donationID id.DonationID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byID[donationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	d.ReceiptSent = true
	sentAt := at
	d.ReceiptSentAt = &sentAt
	d.UpdatedAt = at
	return nil
}

func (s *InMemory) SumCompletedByCampaign(_ context.Context, campaignID id.CampaignID) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, d := range s.byID {
		if d.Status == models.DonationCompleted && d.CampaignID != nil && *d.CampaignID == campaignID {
			total = total.Add(d.Amount)
		}
	}
	return total, nil
}

func (s *InMemory) SumCompletedByDonor(_ context.Context, donorID id.DonorID) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, d := range s.byID {
		if d.Status == models.DonationCompleted && d.DonorID != nil && *d.DonorID == donorID {
			total = total.Add(d.Amount)
		}
	}
	return total, nil
}

func (s *InMemory) ListByCampaign(_ context.Context, campaignID id.CampaignID, limit int) ([]*models.Donation, error) {
	return s.filter(limit, func(d *models.Donation) bool {
		return d.CampaignID != nil && *d.CampaignID == campaignID
	}), nil
}

func (s *InMemory) ListByDonor(_ context.Context, donorID id.DonorID, limit int) ([]*models.Donation, error) {
	return s.filter(limit, func(d *models.Donation) bool {
		return d.DonorID != nil && *d.DonorID == donorID
	}), nil
}

func (s *InMemory) ListByStatus(_ context.Context, status models.DonationStatus, limit int) ([]*models.Donation, error) {
	return s.filter(limit, func(d *models.Donation) bool {
		return d.Status == status
	}), nil
}

func (s *InMemory) Delete(_ context.Context, donationID id.DonationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byID[donationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byTxnID, d.TransactionID)
	delete(s.byID, donationID)
	return nil
}

func (s *InMemory) filter(limit int, keep func(*models.Donation) bool) []*models.Donation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Donation
	for _, d := range s.byID {
		if keep(d) {
			clone := *d
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DonatedAt.After(out[j].DonatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
