package campaign

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"kindra/internal/donation/models"
	id "kindra/pkg/domain"
	"kindra/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded campaign store for unit tests and local
// development.
type InMemory struct {
	mu     sync.RWMutex
	byID   map[id.CampaignID]*models.Campaign
	bySlug map[string]id.CampaignID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:   make(map[id.CampaignID]*models.Campaign),
		bySlug: make(map[string]id.CampaignID),
	}
}

func (s *InMemory) Create(_ context.Context, c *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slug := strings.ToLower(c.Slug)
	if _, exists := s.bySlug[slug]; exists {
		return sentinel.ErrAlreadyUsed
	}
	clone := *c
	s.byID[c.ID] = &clone
	s.bySlug[slug] = c.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[campaignID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (s *InMemory) FindBySlug(_ context.Context, slug string) (*models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	campaignID, ok := s.bySlug[strings.ToLower(slug)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.byID[campaignID]
	return &clone, nil
}

func (s *InMemory) List(_ context.Context, status models.CampaignStatus, limit int) ([]*models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Campaign
	for _, c := range s.byID {
		if status != "" && c.Status != status {
			continue
		}
		clone := *c
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemory) ListIDs(_ context.Context) ([]id.CampaignID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]id.CampaignID, 0, len(s.byID))
	for campaignID := range s.byID {
		out = append(out, campaignID)
	}
	return out, nil
}

func (s *InMemory) Update(_ context.Context, c *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[c.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	newSlug := strings.ToLower(c.Slug)
	oldSlug := strings.ToLower(existing.Slug)
	if newSlug != oldSlug {
		if _, taken := s.bySlug[newSlug]; taken {
			return sentinel.ErrAlreadyUsed
		}
		delete(s.bySlug, oldSlug)
		s.bySlug[newSlug] = c.ID
	}
	clone := *c
	clone.RaisedAmount = existing.RaisedAmount
	s.byID[c.ID] = &clone
	return nil
}

func (s *InMemory) Credit(_ context.Context, campaignID id.CampaignID, amount decimal.Decimal, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[campaignID]
	if !ok {
		return sentinel.ErrNotFound
	}
	c.RaisedAmount = c.RaisedAmount.Add(amount)
	c.UpdatedAt = now
	return nil
}

func (s *InMemory) SetRaised(_ context.Context, campaignID id.CampaignID, amount decimal.Decimal, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[campaignID]
	if !ok {
		return sentinel.ErrNotFound
	}
	c.RaisedAmount = amount
	c.UpdatedAt = now
	return nil
}
