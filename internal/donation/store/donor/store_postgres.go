// Package donor persists donor profiles and their cached lifetime total.
// Same aggregate contract as the campaign store: Credit is a relative
// increment inside the finalization transaction, SetTotal the reconciliation
// overwrite.
package donor

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

// PostgresStore persists donors in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed donor store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const donorColumns = `id, user_id, donor_type, full_name, email, phone_number, organization_name,
	country, city, address, newsletter_subscribed, email_notifications, is_recurring_donor,
	total_donated, created_at, updated_at`

// Create inserts a donor. A duplicate email returns sentinel.ErrAlreadyUsed.
func (s *PostgresStore) Create(ctx context.Context, d *models.Donor) error {
	query := `
		INSERT INTO donors (` + donorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(d.ID),
		nullUserID(d.UserID),
		string(d.Type),
		d.FullName,
		d.Email,
		d.PhoneNumber,
		d.OrganizationName,
		d.Country,
		d.City,
		d.Address,
		d.NewsletterOptIn,
		d.EmailNotifications,
		d.IsRecurring,
		d.TotalDonated,
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create donor: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, donorID id.DonorID) (*models.Donor, error) {
	query := `SELECT ` + donorColumns + ` FROM donors WHERE id = $1`
	d, err := scanDonor(tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(donorID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find donor: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Donor, error) {
	query := `SELECT ` + donorColumns + ` FROM donors WHERE LOWER(email) = LOWER($1) AND email <> ''`
	d, err := scanDonor(tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find donor by email: %w", err)
	}
	return d, nil
}

// Update rewrites profile fields. The lifetime total is excluded; only
// Credit and SetTotal may touch it.
func (s *PostgresStore) Update(ctx context.Context, d *models.Donor) error {
	query := `
		UPDATE donors
		SET donor_type = $2, full_name = $3, email = $4, phone_number = $5,
			organization_name = $6, country = $7, city = $8, address = $9,
			newsletter_subscribed = $10, email_notifications = $11,
			is_recurring_donor = $12, updated_at = $13
		WHERE id = $1
	`
	result, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(d.ID), string(d.Type), d.FullName, d.Email, d.PhoneNumber,
		d.OrganizationName, d.Country, d.City, d.Address,
		d.NewsletterOptIn, d.EmailNotifications, d.IsRecurring, d.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update donor: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update donor rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Credit atomically adds amount to the lifetime total.
func (s *PostgresStore) Credit(ctx context.Context, donorID id.DonorID, amount decimal.Decimal, now time.Time) error {
	query := `UPDATE donors SET total_donated = total_donated + $2, updated_at = $3 WHERE id = $1`
	result, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query, uuid.UUID(donorID), amount, now)
	if err != nil {
		return fmt.Errorf("credit donor: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("credit donor rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// SetTotal overwrites the lifetime total with a recomputed value.
func (s *PostgresStore) SetTotal(ctx context.Context, donorID id.DonorID, amount decimal.Decimal, now time.Time) error {
	query := `UPDATE donors SET total_donated = $2, updated_at = $3 WHERE id = $1`
	result, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query, uuid.UUID(donorID), amount, now)
	if err != nil {
		return fmt.Errorf("set donor total: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set donor total rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type donorRow interface {
	Scan(dest ...any) error
}

func scanDonor(row donorRow) (*models.Donor, error) {
	var d models.Donor
	var rawID uuid.UUID
	var userID uuid.NullUUID
	var donorType string
	err := row.Scan(
		&rawID, &userID, &donorType, &d.FullName, &d.Email, &d.PhoneNumber, &d.OrganizationName,
		&d.Country, &d.City, &d.Address, &d.NewsletterOptIn, &d.EmailNotifications, &d.IsRecurring,
		&d.TotalDonated, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.ID = id.DonorID(rawID)
	d.Type = models.DonorType(donorType)
	if userID.Valid {
		v := id.UserID(userID.UUID)
		d.UserID = &v
	}
	return &d, nil
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
