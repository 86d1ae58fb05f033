package notification

import (
	"context"
	"fmt"

	id "kindra/pkg/domain"
)

// Audience is the resolved set of recipients for one message.
type Audience []id.UserID

// Directory answers point-in-time role membership questions. The identity
// system owns the users table; the engine only reads it.
type Directory interface {
	ListByRoles(ctx context.Context, roles ...string) ([]id.UserID, error)
}

// AudienceResolver turns a role-based audience description into concrete
// recipients. Membership is resolved at event time, not subscription time:
// an admin added yesterday receives today's events.
type AudienceResolver struct {
	directory Directory
}

func NewAudienceResolver(directory Directory) *AudienceResolver {
	return &AudienceResolver{directory: directory}
}

// Staff resolves everyone with an admin or management role.
func (r *AudienceResolver) Staff(ctx context.Context) (Audience, error) {
	users, err := r.directory.ListByRoles(ctx, "ADMIN", "MANAGEMENT")
	if err != nil {
		return nil, fmt.Errorf("resolve staff audience: %w", err)
	}
	return Audience(users), nil
}
