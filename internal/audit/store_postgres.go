package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "kindra/pkg/domain"
	txcontext "kindra/pkg/platform/tx"
)

// PostgresStore persists audit events in the audit_log table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	query := `
		INSERT INTO audit_log (id, actor_id, action, resource_type, resource_id, description, ip_address, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	var actor any
	if !event.Actor.IsNil() {
		actor = uuid.UUID(event.Actor)
	}
	_, err := exec.ExecContext(ctx, query,
		uuid.New(),
		actor,
		string(event.Action),
		event.ResourceType,
		event.ResourceID,
		event.Description,
		event.IP,
		event.RequestID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByResource(ctx context.Context, resourceType, resourceID string) ([]Event, error) {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	query := `
		SELECT actor_id, action, resource_type, resource_id, description, ip_address, request_id, created_at
		FROM audit_log
		WHERE resource_type = $1 AND resource_id = $2
		ORDER BY created_at
	`
	rows, err := exec.QueryContext(ctx, query, resourceType, resourceID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var actor uuid.NullUUID
		if err := rows.Scan(&actor, &e.Action, &e.ResourceType, &e.ResourceID, &e.Description, &e.IP, &e.RequestID, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if actor.Valid {
			e.Actor = id.UserID(actor.UUID)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
