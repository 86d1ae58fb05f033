package audit

import (
	"context"
	"log/slog"

	"kindra/pkg/requestcontext"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByResource(ctx context.Context, resourceType, resourceID string) ([]Event, error)
}

// Recorder captures structured audit events. Failures are logged, never
// propagated: an audit miss must not fail the operation being audited.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Record enriches the event from request context and appends it.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if r == nil || r.store == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Actor.IsNil() {
		event.Actor = requestcontext.UserID(ctx)
	}
	if event.IP == "" {
		event.IP = requestcontext.ClientIP(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if err := r.store.Append(ctx, event); err != nil && r.logger != nil {
		r.logger.ErrorContext(ctx, "audit append failed",
			"action", string(event.Action),
			"resource_type", event.ResourceType,
			"resource_id", event.ResourceID,
			"error", err.Error(),
		)
	}
}
