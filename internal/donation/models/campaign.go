package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "kindra/pkg/domain"
)

// CampaignStatus is the lifecycle state of a fundraising campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "DRAFT"
	CampaignActive    CampaignStatus = "ACTIVE"
	CampaignCompleted CampaignStatus = "COMPLETED"
	CampaignPaused    CampaignStatus = "PAUSED"
)

// CampaignCategory groups campaigns for discovery.
type CampaignCategory string

const (
	CategoryEducation      CampaignCategory = "EDUCATION"
	CategoryHealthcare     CampaignCategory = "HEALTHCARE"
	CategoryShelter        CampaignCategory = "SHELTER"
	CategoryFoodSecurity   CampaignCategory = "FOOD_SECURITY"
	CategoryDisasterRelief CampaignCategory = "DISASTER_RELIEF"
	CategoryEnvironment    CampaignCategory = "ENVIRONMENT"
	CategoryOtherCause     CampaignCategory = "OTHER"
)

// Campaign is a fundraising target.
//
// RaisedAmount is a cache, not the authoritative value: the authoritative
// value is the sum of COMPLETED donations referencing the campaign. Only the
// finalization credit and the reconciliation recompute may write it.
type Campaign struct {
	ID           id.CampaignID    `json:"id"`
	Title        string           `json:"title"`
	Slug         string           `json:"slug"`
	Description  string           `json:"description"`
	TargetAmount decimal.Decimal  `json:"target_amount"`
	RaisedAmount decimal.Decimal  `json:"raised_amount"`
	Currency     string           `json:"currency"`
	StartDate    time.Time        `json:"start_date"`
	EndDate      time.Time        `json:"end_date"`
	Status       CampaignStatus   `json:"status"`
	Category     CampaignCategory `json:"category"`
	Urgency      string           `json:"urgency"`
	IsFeatured   bool             `json:"is_featured"`
	CreatedBy    *id.UserID       `json:"created_by,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// ProgressPercent returns fundraising progress capped at 100.
func (c *Campaign) ProgressPercent() float64 {
	if c.TargetAmount.IsZero() {
		return 0
	}
	pct, _ := c.RaisedAmount.Div(c.TargetAmount).Mul(decimal.NewFromInt(100)).Float64()
	if pct > 100 {
		return 100
	}
	return pct
}
