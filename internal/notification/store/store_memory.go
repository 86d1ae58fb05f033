// Package store persists per-recipient notification inboxes.
package store

import (
	"context"
	"sync"

	"kindra/internal/notification/models"
	id "kindra/pkg/domain"
)

// InMemory keeps inboxes in process memory. Unit tests and dev mode.
type InMemory struct {
	mu      sync.RWMutex
	inboxes map[id.UserID][]models.Notification
}

func NewInMemory() *InMemory {
	return &InMemory{inboxes: make(map[id.UserID][]models.Notification)}
}

func (s *InMemory) Append(_ context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inboxes[n.Recipient] = append(s.inboxes[n.Recipient], n)
	return nil
}

func (s *InMemory) ListByRecipient(_ context.Context, recipient id.UserID) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Notification{}, s.inboxes[recipient]...), nil
}
