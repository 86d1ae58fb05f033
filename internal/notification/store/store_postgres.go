package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"kindra/internal/notification/models"
	id "kindra/pkg/domain"
	txcontext "kindra/pkg/platform/tx"
)

// PostgresStore persists notification inboxes in the notifications table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, n models.Notification) error {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	query := `
		INSERT INTO notifications (id, recipient_id, title, message, kind, category, link, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := exec.ExecContext(ctx, query,
		n.ID,
		uuid.UUID(n.Recipient),
		n.Title,
		n.Body,
		string(n.Kind),
		string(n.Category),
		n.Link,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRecipient(ctx context.Context, recipient id.UserID) ([]models.Notification, error) {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	query := `
		SELECT id, recipient_id, title, message, kind, category, link, read_at, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
	`
	rows, err := exec.QueryContext(ctx, query, uuid.UUID(recipient))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		var recipientID uuid.UUID
		var readAt sql.NullTime
		if err := rows.Scan(&n.ID, &recipientID, &n.Title, &n.Body, &n.Kind, &n.Category, &n.Link, &readAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Recipient = id.UserID(recipientID)
		if readAt.Valid {
			n.ReadAt = &readAt.Time
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
