// Package domain defines typed identifiers shared across bounded contexts.
//
// Every entity ID is a distinct type wrapping uuid.UUID so that a DonationID
// cannot be passed where a CampaignID is expected. Parse helpers validate at
// the boundary; services work with the typed values only.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type (
	// UserID identifies an account in the surrounding identity system.
	UserID uuid.UUID
	// DonorID identifies a donor profile.
	DonorID uuid.UUID
	// CampaignID identifies a fundraising campaign.
	CampaignID uuid.UUID
	// DonationID identifies a ledger entry.
	DonationID uuid.UUID
	// ReceiptID identifies a donation receipt.
	ReceiptID uuid.UUID
	// MaterialDonationID identifies a physical goods donation.
	MaterialDonationID uuid.UUID
)

func (id UserID) String() string             { return uuid.UUID(id).String() }
func (id DonorID) String() string            { return uuid.UUID(id).String() }
func (id CampaignID) String() string         { return uuid.UUID(id).String() }
func (id DonationID) String() string         { return uuid.UUID(id).String() }
func (id ReceiptID) String() string          { return uuid.UUID(id).String() }
func (id MaterialDonationID) String() string { return uuid.UUID(id).String() }

// The text marshalers keep the IDs as canonical UUID strings in JSON.
// Without them encoding/json would fall back to the underlying byte array.

func (id UserID) MarshalText() ([]byte, error)             { return []byte(id.String()), nil }
func (id DonorID) MarshalText() ([]byte, error)            { return []byte(id.String()), nil }
func (id CampaignID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id DonationID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id ReceiptID) MarshalText() ([]byte, error)          { return []byte(id.String()), nil }
func (id MaterialDonationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(text []byte) error {
	u, err := uuid.ParseBytes(text)
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

func (id *DonorID) UnmarshalText(text []byte) error {
	u, err := uuid.ParseBytes(text)
	if err != nil {
		return err
	}
	*id = DonorID(u)
	return nil
}

func (id *CampaignID) UnmarshalText(text []byte) error {
	u, err := uuid.ParseBytes(text)
	if err != nil {
		return err
	}
	*id = CampaignID(u)
	return nil
}

func (id *DonationID) UnmarshalText(text []byte) error {
	u, err := uuid.ParseBytes(text)
	if err != nil {
		return err
	}
	*id = DonationID(u)
	return nil
}

func (id *ReceiptID) UnmarshalText(text []byte) error {
	u, err := uuid.ParseBytes(text)
	if err != nil {
		return err
	}
	*id = ReceiptID(u)
	return nil
}

func (id *MaterialDonationID) UnmarshalText(text []byte) error {
	u, err := uuid.ParseBytes(text)
	if err != nil {
		return err
	}
	*id = MaterialDonationID(u)
	return nil
}

func (id UserID) IsNil() bool             { return uuid.UUID(id) == uuid.Nil }
func (id DonorID) IsNil() bool            { return uuid.UUID(id) == uuid.Nil }
func (id CampaignID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id DonationID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id ReceiptID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id MaterialDonationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewDonationID mints a random donation identifier.
func NewDonationID() DonationID { return DonationID(uuid.New()) }

// NewReceiptID mints a random receipt identifier.
func NewReceiptID() ReceiptID { return ReceiptID(uuid.New()) }

// NewMaterialDonationID mints a random material donation identifier.
func NewMaterialDonationID() MaterialDonationID { return MaterialDonationID(uuid.New()) }

// ParseDonationID parses a donation ID from its string form.
func ParseDonationID(s string) (DonationID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return DonationID{}, fmt.Errorf("invalid donation id %q: %w", s, err)
	}
	return DonationID(u), nil
}

// ParseCampaignID parses a campaign ID from its string form.
func ParseCampaignID(s string) (CampaignID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return CampaignID{}, fmt.Errorf("invalid campaign id %q: %w", s, err)
	}
	return CampaignID(u), nil
}

// ParseDonorID parses a donor ID from its string form.
func ParseDonorID(s string) (DonorID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return DonorID{}, fmt.Errorf("invalid donor id %q: %w", s, err)
	}
	return DonorID(u), nil
}

// ParseReceiptID parses a receipt ID from its string form.
func ParseReceiptID(s string) (ReceiptID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ReceiptID{}, fmt.Errorf("invalid receipt id %q: %w", s, err)
	}
	return ReceiptID(u), nil
}

// ParseMaterialDonationID parses a material donation ID from its string form.
func ParseMaterialDonationID(s string) (MaterialDonationID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return MaterialDonationID{}, fmt.Errorf("invalid material donation id %q: %w", s, err)
	}
	return MaterialDonationID(u), nil
}

// ParseUserID parses a user ID from its string form.
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("invalid user id %q: %w", s, err)
	}
	return UserID(u), nil
}
