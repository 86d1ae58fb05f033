// Package campaign persists fundraising campaigns and their cached raised
// aggregate. Credit is an atomic relative increment so concurrent
// finalizations never lose an update; SetRaised is the reconciliation
// overwrite.
package campaign

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"kindra/internal/donation/models"
	id "kindra/pkg/domain"
	"kindra/pkg/platform/sentinel"
	"kindra/pkg/platform/tx"
)

// PostgresStore persists campaigns in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed campaign store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const campaignColumns = `id, title, slug, description, target_amount, raised_amount, currency,
	start_date, end_date, status, category, urgency, is_featured, created_by, created_at, updated_at`

// Create inserts a campaign. A duplicate slug returns sentinel.ErrAlreadyUsed.
func (s *PostgresStore) Create(ctx context.Context, c *models.Campaign) error {
	query := `
		INSERT INTO campaigns (` + campaignColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(c.ID),
		c.Title,
		c.Slug,
		c.Description,
		c.TargetAmount,
		c.RaisedAmount,
		c.Currency,
		c.StartDate,
		c.EndDate,
		string(c.Status),
		string(c.Category),
		c.Urgency,
		c.IsFeatured,
		nullUserID(c.CreatedBy),
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	c, err := scanCampaign(tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(campaignID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find campaign: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) FindBySlug(ctx context.Context, slug string) (*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE slug = $1`
	c, err := scanCampaign(tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find campaign by slug: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) List(ctx context.Context, status models.CampaignStatus, limit int) ([]*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC LIMIT $2`
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx, query, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []*models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaigns: %w", err)
	}
	return out, nil
}

// ListIDs returns every campaign ID. Reconciliation sweeps iterate this.
func (s *PostgresStore) ListIDs(ctx context.Context) ([]id.CampaignID, error) {
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx, `SELECT id FROM campaigns`)
	if err != nil {
		return nil, fmt.Errorf("list campaign ids: %w", err)
	}
	defer rows.Close()

	var out []id.CampaignID
	for rows.Next() {
		var raw uuid.UUID
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan campaign id: %w", err)
		}
		out = append(out, id.CampaignID(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaign ids: %w", err)
	}
	return out, nil
}

// Update rewrites campaign metadata. The raised aggregate is excluded; only
// Credit and SetRaised may touch it.
func (s *PostgresStore) Update(ctx context.Context, c *models.Campaign) error {
	query := `
		UPDATE campaigns
		SET title = $2, slug = $3, description = $4, target_amount = $5, currency = $6,
			start_date = $7, end_date = $8, status = $9, category = $10, urgency = $11,
			is_featured = $12, updated_at = $13
		WHERE id = $1
	`
	result, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(c.ID), c.Title, c.Slug, c.Description, c.TargetAmount, c.Currency,
		c.StartDate, c.EndDate, string(c.Status), string(c.Category), c.Urgency,
		c.IsFeatured, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update campaign: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update campaign rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Credit atomically adds amount to the raised aggregate. Runs inside the
// finalization transaction so the claim and the credit commit together.
func (s *PostgresStore) Credit(ctx context.Context, campaignID id.CampaignID, amount decimal.Decimal, now time.Time) error {
	query := `UPDATE campaigns SET raised_amount = raised_amount + $2, updated_at = $3 WHERE id = $1`
	result, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query, uuid.UUID(campaignID), amount, now)
	if err != nil {
		return fmt.Errorf("credit campaign: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("credit campaign rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// SetRaised overwrites the raised aggregate with a recomputed value.
func (s *PostgresStore) SetRaised(ctx context.Context, campaignID id.CampaignID, amount decimal.Decimal, now time.Time) error {
	query := `UPDATE campaigns SET raised_amount = $2, updated_at = $3 WHERE id = $1`
	result, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query, uuid.UUID(campaignID), amount, now)
	if err != nil {
		return fmt.Errorf("set campaign raised: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set campaign raised rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type campaignRow interface {
	Scan(dest ...any) error
}

func scanCampaign(row campaignRow) (*models.Campaign, error) {
	var c models.Campaign
	var rawID uuid.UUID
	var createdBy uuid.NullUUID
	var status, category string
	err := row.Scan(
		&rawID, &c.Title, &c.Slug, &c.Description, &c.TargetAmount, &c.RaisedAmount, &c.Currency,
		&c.StartDate, &c.EndDate, &status, &category, &c.Urgency, &c.IsFeatured, &createdBy,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ID = id.CampaignID(rawID)
	c.Status = models.CampaignStatus(status)
	c.Category = models.CampaignCategory(category)
	if createdBy.Valid {
		v := id.UserID(createdBy.UUID)
		c.CreatedBy = &v
	}
	return &c, nil
}

func nullUserID(v *id.UserID) uuid.NullUUID {
	if v == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*v), Valid: true}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
