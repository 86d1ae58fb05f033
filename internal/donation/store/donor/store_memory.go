package donor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"kindra/internal/donation/models"
	id "kindra/pkg/domain"
	"kindra/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded donor store for unit tests and local
// development.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[id.DonorID]*models.Donor
	byEmail map[string]id.DonorID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[id.DonorID]*models.Donor),
		byEmail: make(map[string]id.DonorID),
	}
}

func (s *InMemory) Create(_ context.Context, d *models.Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(d.Email)
	if email != "" {
		if _, exists := s.byEmail[email]; exists {
			return sentinel.ErrAlreadyUsed
		}
	}
	clone := *d
	s.byID[d.ID] = &clone
	if email != "" {
		s.byEmail[email] = d.ID
	}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, donorID id.DonorID) (*models.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.byID[donorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *d
	return &clone, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	donorID, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.byID[donorID]
	return &clone, nil
}

func (s *InMemory) Update(_ context.Context, d *models.Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[d.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	newEmail := strings.ToLower(d.Email)
	oldEmail := strings.ToLower(existing.Email)
	if newEmail != oldEmail {
		if newEmail != "" {
			if _, taken := s.byEmail[newEmail]; taken {
				return sentinel.ErrAlreadyUsed
			}
		}
		if oldEmail != "" {
			delete(s.byEmail, oldEmail)
		}
		if newEmail != "" {
			s.byEmail[newEmail] = d.ID
		}
	}
	clone := *d
	clone.TotalDonated = existing.TotalDonated
	s.byID[d.ID] = &clone
	return nil
}

func (s *InMemory) Credit(_ context.Context, donorID id.DonorID, amount decimal.Decimal, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byID[donorID]
	if !ok {
		return sentinel.ErrNotFound
	}
	d.TotalDonated = d.TotalDonated.Add(amount)
	d.UpdatedAt = now
	return nil
}

func (s *InMemory) SetTotal(_ context.Context, donorID id.DonorID, amount decimal.Decimal, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byID[donorID]
	if !ok {
		return sentinel.ErrNotFound
	}
	d.TotalDonated = amount
	d.UpdatedAt = now
	return nil
}
