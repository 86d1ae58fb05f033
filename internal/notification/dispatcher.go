// Package notification fans human-readable events out to durable
// per-recipient inboxes and, when configured, to a Kafka topic consumed by
// delivery channels (email, push).
//
// Delivery is at-least-once and best-effort from the caller's point of view:
// the financial pipeline never blocks on this package.
package notification

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"kindra/internal/notification/models"
	id "kindra/pkg/domain"
	"kindra/pkg/requestcontext"
)

// Store is the durable per-recipient inbox.
type Store interface {
	Append(ctx context.Context, n models.Notification) error
	ListByRecipient(ctx context.Context, recipient id.UserID) ([]models.Notification, error)
}

// Sink receives a copy of every inbox entry for external delivery channels.
type Sink interface {
	Publish(ctx context.Context, n models.Notification) error
}

// Dispatcher writes inbox entries for a resolved audience. Inbox append
// failures are logged per recipient and do not stop the rest of the fan-out.
type Dispatcher struct {
	store  Store
	sink   Sink
	logger *slog.Logger
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithSink attaches an external delivery sink.
func WithSink(sink Sink) Option {
	return func(d *Dispatcher) { d.sink = sink }
}

// WithLogger sets a logger for fan-out failures.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

func NewDispatcher(store Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{store: store}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify copies msg into every recipient's inbox. Returns the number of
// inboxes written; partial failure is not an error.
func (d *Dispatcher) Notify(ctx context.Context, audience Audience, msg models.Message) int {
	delivered := 0
	for _, recipient := range audience {
		if d.deliver(ctx, recipient, msg) {
			delivered++
		}
	}
	return delivered
}

// NotifyUser targets a single recipient.
func (d *Dispatcher) NotifyUser(ctx context.Context, recipient id.UserID, msg models.Message) bool {
	return d.deliver(ctx, recipient, msg)
}

// Inbox returns a recipient's notifications, newest first for the Postgres
// store.
func (d *Dispatcher) Inbox(ctx context.Context, recipient id.UserID) ([]models.Notification, error) {
	return d.store.ListByRecipient(ctx, recipient)
}

func (d *Dispatcher) deliver(ctx context.Context, recipient id.UserID, msg models.Message) bool {
	n := models.Notification{
		ID:        uuid.New(),
		Recipient: recipient,
		Title:     msg.Title,
		Body:      msg.Body,
		Kind:      msg.Kind,
		Category:  msg.Category,
		Link:      msg.Link,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := d.store.Append(ctx, n); err != nil {
		d.logError(ctx, "notification inbox append failed", recipient, err)
		return false
	}
	if d.sink != nil {
		if err := d.sink.Publish(ctx, n); err != nil {
			// Inbox write already succeeded; the sink is a secondary channel.
			d.logError(ctx, "notification sink publish failed", recipient, err)
		}
	}
	return true
}

func (d *Dispatcher) logError(ctx context.Context, msg string, recipient id.UserID, err error) {
	if d.logger != nil {
		d.logger.ErrorContext(ctx, msg,
			"recipient", recipient.String(),
			"error", err.Error(),
		)
	}
}
