// Package models defines the notification entities shared by the dispatcher,
// its stores, and its publishers.
package models

import (
	"time"

	"github.com/google/uuid"

	id "kindra/pkg/domain"
)

// Kind is the presentation tone of a notification.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
)

// Category groups notifications for inbox filtering.
type Category string

const (
	CategoryDonation Category = "DONATION"
	CategorySystem   Category = "SYSTEM"
)

// Message is the human-readable payload fanned out to an audience. The
// dispatcher copies it into one inbox Notification per recipient.
type Message struct {
	Title    string
	Body     string
	Kind     Kind
	Category Category
	Link     string
}

// Notification is one recipient's durable inbox entry.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	Recipient id.UserID  `json:"recipient"`
	Title     string     `json:"title"`
	Body      string     `json:"message"`
	Kind      Kind       `json:"type"`
	Category  Category   `json:"category"`
	Link      string     `json:"link,omitempty"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
