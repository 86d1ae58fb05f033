// Package material persists material donation pickup requests. Status
// transitions use the same conditional-update fencing as the ledger store.
package material

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kindra/internal/donation/models"
	id "kindra/pkg/domain"
	"kindra/pkg/platform/sentinel"
	"kindra/pkg/platform/tx"
)

// PostgresStore persists material donations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed material donation store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const materialColumns = `id, donor_id, category, description, quantity, pickup_address,
	preferred_pickup_date, preferred_pickup_time, status, admin_notes, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, m *models.MaterialDonation) error {
	query := `
		INSERT INTO material_donations (` + materialColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(m.ID),
		nullDonorID(m.DonorID),
		string(m.Category),
		m.Description,
		m.Quantity,
		m.PickupAddress,
		m.PreferredPickupDate,
		m.PreferredPickupTime,
		string(m.Status),
		m.AdminNotes,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create material donation: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, materialID id.MaterialDonationID) (*models.MaterialDonation, error) {
	query := `SELECT ` + materialColumns + ` FROM material_donations WHERE id = $1`
	m, err := scanMaterial(tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(materialID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find material donation: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status models.MaterialStatus, limit int) ([]*models.MaterialDonation, error) {
	query := `SELECT ` + materialColumns + ` FROM material_donations WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC LIMIT $2`
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx, query, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list material donations: %w", err)
	}
	defer rows.Close()

	var out []*models.MaterialDonation
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan material donation: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate material donations: %w", err)
	}
	return out, nil
}

// TransitionStatus applies from -> to under a conditional update, recording
// admin notes alongside the move.
func (s *PostgresStore) TransitionStatus(ctx context.Context, materialID id.MaterialDonationID, from, to models.MaterialStatus, notes string, now time.Time) (bool, error) {
	query := `
		UPDATE material_donations
		SET status = $2, admin_notes = CASE WHEN $3 <> '' THEN $3 ELSE admin_notes END, updated_at = $4
		WHERE id = $1 AND status = $5
	`
	result, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(materialID), string(to), notes, now, string(from))
	if err != nil {
		return false, fmt.Errorf("transition material donation: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition material donation rows affected: %w", err)
	}
	return rows > 0, nil
}

type materialRow interface {
	Scan(dest ...any) error
}

func scanMaterial(row materialRow) (*models.MaterialDonation, error) {
	var m models.MaterialDonation
	var rawID uuid.UUID
	var donorID uuid.NullUUID
	var category, status string
	err := row.Scan(
		&rawID, &donorID, &category, &m.Description, &m.Quantity, &m.PickupAddress,
		&m.PreferredPickupDate, &m.PreferredPickupTime, &status, &m.AdminNotes,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.ID = id.MaterialDonationID(rawID)
	m.Category = models.ItemCategory(category)
	m.Status = models.MaterialStatus(status)
	if donorID.Valid {
		v := id.DonorID(donorID.UUID)
		m.DonorID = &v
	}
	return &m, nil
}

func nullDonorID(v *id.DonorID) uuid.NullUUID {
	if v == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*v), Valid: true}
}
