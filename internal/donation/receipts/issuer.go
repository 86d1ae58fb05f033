package receipts

import (
	"context"
	"errors"

	"kindra/internal/donation/models"
	id "kindra/pkg/domain"
	dErrors "kindra/pkg/domain-errors"
	"kindra/pkg/platform/sentinel"
	"kindra/pkg/requestcontext"
)

// mintAttempts bounds retries when a freshly minted number collides.
const mintAttempts = 5

// Store is the subset of the receipt store the issuer needs.
type Store interface {
	Create(ctx context.Context, r *models.Receipt) error
	FindByDonationID(ctx context.Context, donationID id.DonationID) (*models.Receipt, error)
}

// Issuer creates receipt records. Issue is idempotent: a donation that
// already has a receipt gets the existing one back.
type Issuer struct {
	store Store
}

// NewIssuer constructs an Issuer.
func NewIssuer(store Store) *Issuer {
	return &Issuer{store: store}
}

// Issue returns the receipt for a finalized donation, creating it if absent.
// The unique donation_id constraint arbitrates concurrent issuance; the
// unique receipt_number constraint arbitrates number collisions. Both come
// back as sentinel.ErrAlreadyUsed, so after a conflict the issuer re-reads
// to tell the two apart.
func (i *Issuer) Issue(ctx context.Context, donation *models.Donation) (*models.Receipt, error) {
	existing, err := i.store.FindByDonationID(ctx, donation.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "look up receipt")
	}

	now := requestcontext.Now(ctx)
	for attempt := 0; attempt < mintAttempts; attempt++ {
		number, err := MintNumber()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "mint receipt number")
		}
		r := &models.Receipt{
			ID:            id.NewReceiptID(),
			DonationID:    donation.ID,
			ReceiptNumber: number,
			TaxDeductible: true,
			TaxYear:       now.Year(),
			GeneratedAt:   now,
		}
		err = i.store.Create(ctx, r)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "create receipt")
		}
		// Conflict: either another issuer won the donation, or the number
		// collided. Re-read to find out.
		existing, findErr := i.store.FindByDonationID(ctx, donation.ID)
		if findErr == nil {
			return existing, nil
		}
		if !errors.Is(findErr, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(findErr, dErrors.CodeUnavailable, "look up receipt after conflict")
		}
	}
	return nil, dErrors.New(dErrors.CodeInternal, "exhausted receipt number attempts")
}
