// Package models defines the donation ledger entities and their state
// machines. Status transitions are encoded here once; services consult
// CanTransitionTo instead of comparing strings.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	id "kindra/pkg/domain"
	dErrors "kindra/pkg/domain-errors"
)

// PaymentMethod identifies the channel a donation arrived through.
type PaymentMethod string

const (
	PaymentMpesa        PaymentMethod = "MPESA"
	PaymentPaypal       PaymentMethod = "PAYPAL"
	PaymentStripe       PaymentMethod = "STRIPE"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// Known reports whether m is a recognized channel.
func (m PaymentMethod) Known() bool {
	switch m {
	case PaymentMpesa, PaymentPaypal, PaymentStripe, PaymentBankTransfer:
		return true
	}
	return false
}

// DonationStatus is the ledger state of a donation attempt.
type DonationStatus string

const (
	DonationPending   DonationStatus = "PENDING"
	DonationCompleted DonationStatus = "COMPLETED"
	DonationFailed    DonationStatus = "FAILED"
	DonationRefunded  DonationStatus = "REFUNDED"
)

// donationTransitions is the full transition matrix. COMPLETED and FAILED
// never return to PENDING; REFUNDED is terminal.
var donationTransitions = map[DonationStatus][]DonationStatus{
	DonationPending:   {DonationCompleted, DonationFailed},
	DonationCompleted: {DonationRefunded},
	DonationFailed:    {},
	DonationRefunded:  {},
}

// CanTransitionTo reports whether the state machine allows s -> target.
func (s DonationStatus) CanTransitionTo(target DonationStatus) bool {
	for _, allowed := range donationTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Donation is one ledger entry.
//
// Invariants:
//   - Amount is strictly positive
//   - TransactionID is unique across the entire ledger; it is the
//     idempotency key supplied by the originating channel
//   - Status only moves along donationTransitions
//   - At most one Receipt exists per donation, and only once COMPLETED
type Donation struct {
	ID               id.DonationID   `json:"id"`
	DonorID          *id.DonorID     `json:"donor_id,omitempty"`
	CampaignID       *id.CampaignID  `json:"campaign_id,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	PaymentMethod    PaymentMethod   `json:"payment_method"`
	TransactionID    string          `json:"transaction_id"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	Status           DonationStatus  `json:"status"`
	DonorName        string          `json:"donor_name,omitempty"`
	DonorEmail       string          `json:"donor_email,omitempty"`
	IsAnonymous      bool            `json:"is_anonymous"`
	Message          string          `json:"message,omitempty"`
	ReceiptSent      bool            `json:"receipt_sent"`
	ReceiptSentAt    *time.Time      `json:"receipt_sent_at,omitempty"`
	DonatedAt        time.Time       `json:"donation_date"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// NewDonation validates and constructs a ledger entry. The initial status is
// the channel's settlement policy: instant-settlement channels pass
// COMPLETED intent, asynchronous ones PENDING. Either way the entry still
// has to go through finalization before it counts.
func NewDonation(donationID id.DonationID, amount decimal.Decimal, currency string, method PaymentMethod, transactionID string, initial DonationStatus, now time.Time) (*Donation, error) {
	if !amount.IsPositive() {
		return nil, dErrors.New(dErrors.CodeValidation, "amount must be greater than zero")
	}
	if !method.Known() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown payment method %q", method)
	}
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "transaction_id is required")
	}
	if initial != DonationPending && initial != DonationCompleted {
		return nil, dErrors.Newf(dErrors.CodeValidation, "invalid initial status %q", initial)
	}
	if currency == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "currency is required")
	}
	// Instant-settlement channels submit COMPLETED intent, but the ledger
	// entry is created PENDING and only finalization moves it. This keeps a
	// single authoritative path for the credit and the receipt.
	return &Donation{
		ID:            donationID,
		Amount:        amount,
		Currency:      strings.ToUpper(currency),
		PaymentMethod: method,
		TransactionID: transactionID,
		Status:        DonationPending,
		DonatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// IsFinalized reports whether the donation has been credited.
func (d *Donation) IsFinalized() bool {
	return d.Status == DonationCompleted || d.Status == DonationRefunded
}

// CanFinalize checks the claim precondition.
func (d *Donation) CanFinalize() error {
	if d.Status == DonationPending {
		return nil
	}
	if d.Status == DonationCompleted {
		return dErrors.New(dErrors.CodeConflict, "donation is already completed")
	}
	return dErrors.Newf(dErrors.CodeInvalidTransition, "cannot finalize a %s donation", d.Status)
}

// CampaignLabel names the credited target for documents and notifications.
func (d *Donation) CampaignLabel(campaign *Campaign) string {
	if campaign != nil {
		return campaign.Title
	}
	return "General Fund"
}
