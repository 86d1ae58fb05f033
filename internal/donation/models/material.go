package models

import (
	"strings"
	"time"

	id "kindra/pkg/domain"
	dErrors "kindra/pkg/domain-errors"
)

// ItemCategory classifies physical goods.
type ItemCategory string

const (
	ItemClothes     ItemCategory = "CLOTHES"
	ItemFood        ItemCategory = "FOOD"
	ItemStationery  ItemCategory = "STATIONERY"
	ItemElectronics ItemCategory = "ELECTRONICS"
	ItemOther       ItemCategory = "OTHER"
)

// Known reports whether c is a recognized category.
func (c ItemCategory) Known() bool {
	switch c {
	case ItemClothes, ItemFood, ItemStationery, ItemElectronics, ItemOther:
		return true
	}
	return false
}

// MaterialStatus is the pickup lifecycle of a physical goods donation.
type MaterialStatus string

const (
	MaterialPendingPickup MaterialStatus = "PENDING_PICKUP"
	MaterialCollected     MaterialStatus = "COLLECTED"
	MaterialDistributed   MaterialStatus = "DISTRIBUTED"
	MaterialRejected      MaterialStatus = "REJECTED"
	MaterialCancelled     MaterialStatus = "CANCELLED"
)

var materialTransitions = map[MaterialStatus][]MaterialStatus{
	MaterialPendingPickup: {MaterialCollected, MaterialRejected, MaterialCancelled},
	MaterialCollected:     {MaterialDistributed},
	MaterialDistributed:   {},
	MaterialRejected:      {},
	MaterialCancelled:     {},
}

// CanTransitionTo reports whether the state machine allows s -> target.
func (s MaterialStatus) CanTransitionTo(target MaterialStatus) bool {
	for _, allowed := range materialTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// MaterialDonation is a physical goods donation. It shares the approval,
// audit and notification pattern with the financial ledger but touches no
// monetary aggregate.
type MaterialDonation struct {
	ID                  id.MaterialDonationID `json:"id"`
	DonorID             *id.DonorID           `json:"donor_id,omitempty"`
	Category            ItemCategory          `json:"category"`
	Description         string                `json:"description"`
	Quantity            string                `json:"quantity"`
	PickupAddress       string                `json:"pickup_address"`
	PreferredPickupDate time.Time             `json:"preferred_pickup_date"`
	PreferredPickupTime string                `json:"preferred_pickup_time,omitempty"`
	Status              MaterialStatus        `json:"status"`
	AdminNotes          string                `json:"admin_notes,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

// NewMaterialDonation validates and constructs a pickup request.
func NewMaterialDonation(materialID id.MaterialDonationID, category ItemCategory, description, quantity, pickupAddress string, pickupDate time.Time, now time.Time) (*MaterialDonation, error) {
	if !category.Known() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown item category %q", category)
	}
	if strings.TrimSpace(description) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "description is required")
	}
	if strings.TrimSpace(quantity) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "quantity is required")
	}
	if strings.TrimSpace(pickupAddress) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "pickup_address is required")
	}
	return &MaterialDonation{
		ID:                  materialID,
		Category:            category,
		Description:         description,
		Quantity:            quantity,
		PickupAddress:       pickupAddress,
		PreferredPickupDate: pickupDate,
		Status:              MaterialPendingPickup,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}
