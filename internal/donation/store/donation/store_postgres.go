// Package donation persists the donation ledger. The store is pure I/O; the
// finalization rules live in the service. The one piece of semantics the
// store does own is fencing: state transitions are conditional UPDATEs so
// concurrent writers cannot double-apply them.
package donation

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

// PostgresStore persists donations in PostgreSQL. All methods honor an
// ambient transaction placed in context by tx.SQLRunner.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed donation store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const donationColumns = `id, donor_id, campaign_id, amount, currency, payment_method, transaction_id,
	payment_reference, status, donor_name, donor_email, is_anonymous, message,
	receipt_sent, receipt_sent_at, donated_at, updated_at`

// Create inserts a new ledger entry. A duplicate transaction_id returns
// sentinel.ErrAlreadyUsed so intake can resolve the existing entry instead.
func (s *PostgresStore) Create(ctx context.Context, d *models.Donation) error {
	query := `
		INSERT INTO donations (` + donationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(d.ID),
		nullDonorID(d.DonorID),
		nullCampaignID(d.CampaignID),
		d.Amount,
		d.Currency,
		string(d.PaymentMethod),
		d.TransactionID,
		d.PaymentReference,
		string(d.Status),
		d.DonorName,
		d.DonorEmail,
		d.IsAnonymous,
		d.Message,
		d.ReceiptSent,
		d.ReceiptSentAt,
		d.DonatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create donation: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, donationID id.DonationID) (*models.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE id = $1`
	d, err := scanDonation(tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(donationID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find donation: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) FindByTransactionID(ctx context.Context, transactionID string) (*models.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE transaction_id = $1`
	d, err := scanDonation(tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find donation by transaction: %w", err)
	}
	return d, nil
}

// ClaimCompleted is the finalization fence: exactly one caller moves a
// PENDING donation to COMPLETED. Returns false when the row was not PENDING,
// without distinguishing why; the service re-reads to classify.
func (s *PostgresStore) ClaimCompleted(ctx context.Context, donationID id.DonationID, now time.Time) (bool, error) {
	query := `
		UPDATE donations
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
	`
	result, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(donationID), string(models.DonationCompleted), now, string(models.DonationPending))
	if err != nil {
		return false, fmt.Errorf("claim donation: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim donation rows affected: %w", err)
	}
	return rows > 0, nil
}

// TransitionStatus applies from -> to with the same fencing as ClaimCompleted.
// Used for PENDING->FAILED rejections and COMPLETED->REFUNDED.
func (s *PostgresStore) TransitionStatus(ctx context.Context, donationID id.DonationID, from, to models.DonationStatus, now time.Time) (bool, error) {
	query := `
		UPDATE donations
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
	`
	result, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(donationID), string(to), now, string(from))
	if err != nil {
		return false, fmt.Errorf("transition donation: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition donation rows affected: %w", err)
	}
	return rows > 0, nil
}

// MarkReceiptSent records receipt delivery. Best-effort metadata, not fenced.
func (s *PostgresStore) MarkReceiptSent(ctx context.Context, donationID id.DonationID, at time.Time) error {
	query := `UPDATE donations SET receipt_sent = TRUE, receipt_sent_at = $2, updated_at = $2 WHERE id = $1`
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query, uuid.UUID(donationID), at)
	if err != nil {
		return fmt.Errorf("mark receipt sent: %w", err)
	}
	return nil
}

// SumCompletedByCampaign returns the authoritative raised total for a
// campaign. Reconciliation compares this against the cached aggregate.
func (s *PostgresStore) SumCompletedByCampaign(ctx context.Context, campaignID id.CampaignID) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM donations WHERE campaign_id = $1 AND status = $2`
	var total decimal.Decimal
	err := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query,
		uuid.UUID(campaignID), string(models.DonationCompleted)).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum completed by campaign: %w", err)
	}
	return total, nil
}

// SumCompletedByDonor returns the authoritative lifetime total for a donor.
func (s *PostgresStore) SumCompletedByDonor(ctx context.Context, donorID id.DonorID) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM donations WHERE donor_id = $1 AND status = $2`
	var total decimal.Decimal
	err := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query,
		uuid.UUID(donorID), string(models.DonationCompleted)).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum completed by donor: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) ListByCampaign(ctx context.Context, campaignID id.CampaignID, limit int) ([]*models.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE campaign_id = $1 ORDER BY donated_at DESC LIMIT $2`
	return s.list(ctx, query, uuid.UUID(campaignID), limit)
}

func (s *PostgresStore) ListByDonor(ctx context.Context, donorID id.DonorID, limit int) ([]*models.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE donor_id = $1 ORDER BY donated_at DESC LIMIT $2`
	return s.list(ctx, query, uuid.UUID(donorID), limit)
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status models.DonationStatus, limit int) ([]*models.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE status = $1 ORDER BY donated_at DESC LIMIT $2`
	return s.list(ctx, query, string(status), limit)
}

// Delete removes a ledger entry. The service recomputes affected aggregates
// afterwards; the store does not cascade.
func (s *PostgresStore) Delete(ctx context.Context, donationID id.DonationID) error {
	result, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, `DELETE FROM donations WHERE id = $1`, uuid.UUID(donationID))
	if err != nil {
		return fmt.Errorf("delete donation: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete donation rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Donation, error) {
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	var out []*models.Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donations: %w", err)
	}
	return out, nil
}

type donationRow interface {
	Scan(dest ...any) error
}

func scanDonation(row donationRow) (*models.Donation, error) {
	var d models.Donation
	var rawID uuid.UUID
	var donorID, campaignID uuid.NullUUID
	var method, status string
	var receiptSentAt sql.NullTime
	err := row.Scan(
		&rawID, &donorID, &campaignID, &d.Amount, &d.Currency, &method, &d.TransactionID,
		&d.PaymentReference, &status, &d.DonorName, &d.DonorEmail, &d.IsAnonymous, &d.Message,
		&d.ReceiptSent, &receiptSentAt, &d.DonatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.ID = id.DonationID(rawID)
	if donorID.Valid {
		v := id.DonorID(donorID.UUID)
		d.DonorID = &v
	}
	if campaignID.Valid {
		v := id.CampaignID(campaignID.UUID)
		d.CampaignID = &v
	}
	d.PaymentMethod = models.PaymentMethod(method)
	d.Status = models.DonationStatus(status)
	if receiptSentAt.Valid {
		d.ReceiptSentAt = &receiptSentAt.Time
	}
	return &d, nil
}

func nullDonorID(v *id.DonorID) uuid.NullUUID {
	if v == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*v), Valid: true}
}

func nullCampaignID(v *id.CampaignID) uuid.NullUUID {
	if v == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*v), Valid: true}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
