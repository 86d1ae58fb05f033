// Package receipt persists receipts. Two unique constraints carry the
// semantics: donation_id makes issuance idempotent, receipt_number keeps the
// minted identifier collision-free. Both surface as sentinel.ErrAlreadyUsed;
// the issuer disambiguates by re-reading.
package receipt

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"kindra/internal/donation/models"
	id "kindra/pkg/domain"
	"kindra/pkg/platform/sentinel"
	"kindra/pkg/platform/tx"
)

// PostgresStore persists receipts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed receipt store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const receiptColumns = `id, donation_id, receipt_number, tax_deductible, tax_year, document, rendered_at, generated_at`

func (s *PostgresStore) Create(ctx context.Context, r *models.Receipt) error {
	query := `
		INSERT INTO receipts (` + receiptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(r.ID),
		uuid.UUID(r.DonationID),
		r.ReceiptNumber,
		r.TaxDeductible,
		r.TaxYear,
		r.Document,
		r.RenderedAt,
		r.GeneratedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create receipt: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, receiptID id.ReceiptID) (*models.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE id = $1`
	return s.findOne(ctx, query, uuid.UUID(receiptID))
}

func (s *PostgresStore) FindByDonationID(ctx context.Context, donationID id.DonationID) (*models.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE donation_id = $1`
	return s.findOne(ctx, query, uuid.UUID(donationID))
}

func (s *PostgresStore) FindByNumber(ctx context.Context, number string) (*models.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE receipt_number = $1`
	return s.findOne(ctx, query, number)
}

// List returns receipts newest first.
func (s *PostgresStore) List(ctx context.Context, limit int) ([]*models.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts ORDER BY generated_at DESC LIMIT $1`
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	var out []*models.Receipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveDocument attaches a rendered document to an existing receipt.
func (s *PostgresStore) SaveDocument(ctx context.Context, receiptID id.ReceiptID, document []byte, renderedAt time.Time) error {
	query := `UPDATE receipts SET document = $2, rendered_at = $3 WHERE id = $1`
	result, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query, uuid.UUID(receiptID), document, renderedAt)
	if err != nil {
		return fmt.Errorf("save receipt document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save receipt document rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Receipt, error) {
	r, err := scanReceipt(tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find receipt: %w", err)
	}
	return r, nil
}

type receiptRow interface {
	Scan(dest ...any) error
}

func scanReceipt(row receiptRow) (*models.Receipt, error) {
	var r models.Receipt
	var rawID, rawDonationID uuid.UUID
	var renderedAt sql.NullTime
	err := row.Scan(
		&rawID, &rawDonationID, &r.ReceiptNumber, &r.TaxDeductible, &r.TaxYear,
		&r.Document, &renderedAt, &r.GeneratedAt,
	)
	if err != nil {
		return nil, err
	}
	r.ID = id.ReceiptID(rawID)
	r.DonationID = id.DonationID(rawDonationID)
	if renderedAt.Valid {
		r.RenderedAt = &renderedAt.Time
	}
	return &r, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
