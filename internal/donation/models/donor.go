package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "kindra/pkg/domain"
)

// DonorType distinguishes individual from institutional donors.
type DonorType string

const (
	DonorIndividual   DonorType = "INDIVIDUAL"
	DonorOrganization DonorType = "ORGANIZATION"
	DonorCorporate    DonorType = "CORPORATE"
)

// Donor is the identity donations are attributed to. TotalDonated is a cache
// mutated only by the finalization credit and the reconciliation recompute,
// same contract as Campaign.RaisedAmount.
type Donor struct {
	ID                 id.DonorID      `json:"id"`
	UserID             *id.UserID      `json:"user_id,omitempty"`
	Type               DonorType       `json:"donor_type"`
	FullName           string          `json:"full_name,omitempty"`
	Email              string          `json:"email,omitempty"`
	PhoneNumber        string          `json:"phone_number,omitempty"`
	OrganizationName   string          `json:"organization_name,omitempty"`
	Country            string          `json:"country"`
	City               string          `json:"city,omitempty"`
	Address            string          `json:"address,omitempty"`
	NewsletterOptIn    bool            `json:"newsletter_subscribed"`
	EmailNotifications bool            `json:"email_notifications"`
	IsRecurring        bool            `json:"is_recurring_donor"`
	TotalDonated       decimal.Decimal `json:"total_donated"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// DisplayName resolves the best available name for documents.
func (d *Donor) DisplayName() string {
	if d.FullName != "" {
		return d.FullName
	}
	if d.OrganizationName != "" {
		return d.OrganizationName
	}
	return "Anonymous Donor"
}
