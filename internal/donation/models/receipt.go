package models

import (
	"time"

	id "kindra/pkg/domain"
)

// Receipt is the immutable financial document tied 1:1 to a COMPLETED
// donation. The record is the fact; Document is derived and disposable. It
// may be nil right after issuance and regenerated at any time from the
// Receipt, Donation and Campaign records alone.
type Receipt struct {
	ID            id.ReceiptID  `json:"id"`
	DonationID    id.DonationID `json:"donation_id"`
	ReceiptNumber string        `json:"receipt_number"`
	TaxDeductible bool          `json:"tax_deductible"`
	TaxYear       int           `json:"tax_year"`
	Document      []byte        `json:"-"`
	RenderedAt    *time.Time    `json:"rendered_at,omitempty"`
	GeneratedAt   time.Time     `json:"generated_at"`
}

// Rendered reports whether a document has been produced.
func (r *Receipt) Rendered() bool {
	return r.RenderedAt != nil && len(r.Document) > 0
}
