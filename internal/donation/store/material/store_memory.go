package material

import (
	"context"
	"sort"
	"sync"
	"time"

	"kindra/internal/donation/models"
	id "kindra/pkg/domain"
	"kindra/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded material donation store for unit tests and
// local development.
type InMemory struct {
	mu   sync.RWMutex
	byID map[id.MaterialDonationID]*models.MaterialDonation
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[id.MaterialDonationID]*models.MaterialDonation)}
}

func (s *InMemory) Create(_ context.Context, m *models.MaterialDonation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[m.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	clone := *m
	s.byID[m.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, materialID id.MaterialDonationID) (*models.MaterialDonation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byID[materialID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *m
	return &clone, nil
}

func (s *InMemory) ListByStatus(_ context.Context, status models.MaterialStatus, limit int) ([]*models.MaterialDonation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.MaterialDonation
	for _, m := range s.byID {
		if status != "" && m.Status != status {
			continue
		}
		clone := *m
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemory) TransitionStatus(_ context.Context, materialID id.MaterialDonationID, from, to models.MaterialStatus, notes string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[materialID]
	if !ok || m.Status != from {
		return false, nil
	}
	m.Status = to
	if notes != "" {
		m.AdminNotes = notes
	}
	m.UpdatedAt = now
	return true, nil
}
