package notification

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "kindra/pkg/domain"
	txcontext "kindra/pkg/platform/tx"
)

// PostgresDirectory reads role membership from the users table owned by the
// surrounding identity system.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) ListByRoles(ctx context.Context, roles ...string) ([]id.UserID, error) {
	exec := txcontext.ExecutorFrom(ctx, d.db)
	rows, err := exec.QueryContext(ctx, `SELECT id FROM users WHERE role = ANY($1)`, pq.Array(roles))
	if err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	defer rows.Close()

	var users []id.UserID
	for rows.Next() {
		var u uuid.UUID
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		users = append(users, id.UserID(u))
	}
	return users, rows.Err()
}

// InMemoryDirectory backs unit tests and dev mode.
type InMemoryDirectory struct {
	mu      sync.RWMutex
	byRole  map[string][]id.UserID
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{byRole: make(map[string][]id.UserID)}
}

// AddUser registers a user under a role.
func (d *InMemoryDirectory) AddUser(userID id.UserID, role string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byRole[role] = append(d.byRole[role], userID)
}

func (d *InMemoryDirectory) ListByRoles(_ context.Context, roles ...string) ([]id.UserID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var users []id.UserID
	for _, role := range roles {
		users = append(users, d.byRole[role]...)
	}
	return users, nil
}
