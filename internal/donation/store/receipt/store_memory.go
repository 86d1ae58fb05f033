package receipt

import (
	"context"
	"sort"
	"sync"
	"time"

	"kindra/internal/donation/models"
	id "kindra/pkg/domain"
	"kindra/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded receipt store for unit tests and local
// development.
type InMemory struct {
	mu         sync.RWMutex
	byID       map[id.ReceiptID]*models.Receipt
	byDonation map[id.DonationID]id.ReceiptID
	byNumber   map[string]id.ReceiptID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:       make(map[id.ReceiptID]*models.Receipt),
		byDonation: make(map[id.DonationID]id.ReceiptID),
		byNumber:   make(map[string]id.ReceiptID),
	}
}

func (s *InMemory) Create(_ context.Context, r *models.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byDonation[r.DonationID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	if _, exists := s.byNumber[r.ReceiptNumber]; exists {
		return sentinel.ErrAlreadyUsed
	}
	clone := *r
	s.byID[r.ID] = &clone
	s.byDonation[r.DonationID] = r.ID
	s.byNumber[r.ReceiptNumber] = r.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, receiptID id.ReceiptID) (*models.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[receiptID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *r
	return &clone, nil
}

func (s *InMemory) FindByDonationID(_ context.Context, donationID id.DonationID) (*models.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	receiptID, ok := s.byDonation[donationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.byID[receiptID]
	return &clone, nil
}

func (s *InMemory) FindByNumber(_ context.Context, number string) (*models.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	receiptID, ok := s.byNumber[number]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.byID[receiptID]
	return &clone, nil
}

func (s *InMemory) List(_ context.Context, limit int) ([]*models.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Receipt, 0, len(s.byID))
	for _, r := range s.byID {
		clone := *r
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemory) SaveDocument(_ context.Context, receiptID id.ReceiptID, document []byte, renderedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[receiptID]
	if !ok {
		return sentinel.ErrNotFound
	}
	r.Document = append([]byte(nil), document...)
	at := renderedAt
	r.RenderedAt = &at
	return nil
}
