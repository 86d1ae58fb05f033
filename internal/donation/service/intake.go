package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kindra/internal/audit"
	"kindra/internal/donation/models"
	notifmodels "kindra/internal/notification/models"
	id "kindra/pkg/domain"
	dErrors "kindra/pkg/domain-errors"
	"kindra/pkg/platform/sentinel"
	"kindra/pkg/requestcontext"
)

// CreateDonationRequest is the payment channel intake payload.
type CreateDonationRequest struct {
	Amount        decimal.Decimal
	Currency      string
	Method        models.PaymentMethod
	TransactionID string
	PhoneNumber   string
	CampaignID    *id.CampaignID
	DonorEmail    string
	DonorName     string
	IsAnonymous   bool
	Message       string
}

// CreateDonation records an incoming donation. Every channel produces a
// PENDING entry; channels that settle at intake time (PayPal captures,
// Stripe charges) are finalized immediately afterwards, through the same
// single finalization path as staff approval.
//
// Transaction IDs are unique: resubmitting a known transaction is rejected
// with a conflict, never merged into the existing entry. Retrying
// finalization goes through Approve or Finalize, not through intake.
func (s *Service) CreateDonation(ctx context.Context, req CreateDonationRequest) (*models.Donation, error) {
	if req.Currency == "" {
		req.Currency = s.defaultCurrency
	}
	if err := s.applyChannelPolicy(&req); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	d, err := models.NewDonation(id.NewDonationID(), req.Amount, req.Currency, req.Method, req.TransactionID, models.DonationPending, now)
	if err != nil {
		return nil, err
	}
	d.CampaignID = req.CampaignID
	d.DonorName = strings.TrimSpace(req.DonorName)
	d.DonorEmail = strings.TrimSpace(strings.ToLower(req.DonorEmail))
	d.IsAnonymous = req.IsAnonymous
	d.Message = req.Message
	if req.Method == models.PaymentMpesa {
		d.PaymentReference = req.PhoneNumber
	}

	if req.CampaignID != nil {
		if _, err := s.campaigns.FindByID(ctx, *req.CampaignID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeValidation, "campaign not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load campaign")
		}
	}

	if !d.IsAnonymous && d.DonorEmail != "" {
		donorID, err := s.resolveDonor(ctx, d.DonorEmail, d.DonorName)
		if err != nil {
			return nil, err
		}
		d.DonorID = donorID
	}

	if err := s.donations.Create(ctx, d); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "transaction %s is already recorded", d.TransactionID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "create donation")
	}

	if s.metrics != nil {
		s.metrics.IncrementDonationsCreated(string(d.PaymentMethod))
	}
	s.audit(ctx, audit.ActionCreate, "donation", d.ID.String(),
		fmt.Sprintf("donation recorded via %s, transaction %s", d.PaymentMethod, d.TransactionID))

	if settlesAtIntake(d.PaymentMethod) {
		result, err := s.Finalize(ctx, d.ID)
		if err != nil {
			// The entry is safely PENDING; a retry or staff approval completes it.
			return nil, dErrors.Wrap(err, dErrors.CodeOf(err), "finalize settled donation")
		}
		return result.Donation, nil
	}

	s.notifyStaff(ctx, notifmodels.Message{
		Title:    "Donation awaiting approval",
		Body:     fmt.Sprintf("%s %s via %s (transaction %s) needs review.", d.Currency, d.Amount.StringFixed(2), d.PaymentMethod, d.TransactionID),
		Kind:     notifmodels.KindInfo,
		Category: notifmodels.CategoryDonation,
	})
	return d, nil
}

// applyChannelPolicy enforces per-channel intake rules.
func (s *Service) applyChannelPolicy(req *CreateDonationRequest) error {
	req.TransactionID = strings.TrimSpace(req.TransactionID)
	switch req.Method {
	case models.PaymentMpesa:
		if strings.TrimSpace(req.PhoneNumber) == "" {
			return dErrors.New(dErrors.CodeValidation, "phone_number is required for M-Pesa donations")
		}
	case models.PaymentPaypal:
		if req.TransactionID == "" {
			return dErrors.New(dErrors.CodeValidation, "transaction_id (order ID) is required for PayPal donations")
		}
	case models.PaymentStripe:
		if req.TransactionID == "" {
			req.TransactionID = "STRIPE-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
		}
	case models.PaymentBankTransfer:
		if req.TransactionID == "" {
			return dErrors.New(dErrors.CodeValidation, "transaction_id (bank reference) is required for bank transfers")
		}
	default:
		return dErrors.Newf(dErrors.CodeValidation, "unknown payment method %q", req.Method)
	}
	return nil
}

// settlesAtIntake reports whether the channel confirms payment before
// calling us, so the entry finalizes immediately. M-Pesa and bank transfers
// settle asynchronously and wait for a callback or staff approval.
func settlesAtIntake(m models.PaymentMethod) bool {
	return m == models.PaymentPaypal || m == models.PaymentStripe
}

// resolveDonor finds the donor profile for an email, creating one if absent.
func (s *Service) resolveDonor(ctx context.Context, email, name string) (*id.DonorID, error) {
	existing, err := s.donors.FindByEmail(ctx, email)
	if err == nil {
		return &existing.ID, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "look up donor")
	}

	now := requestcontext.Now(ctx)
	donor := &models.Donor{
		ID:                 id.DonorID(uuid.New()),
		Type:               models.DonorIndividual,
		FullName:           name,
		Email:              email,
		Country:            "Kenya",
		EmailNotifications: true,
		TotalDonated:       decimal.Zero,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.donors.Create(ctx, donor); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			// Concurrent intake created the profile; use it.
			existing, findErr := s.donors.FindByEmail(ctx, email)
			if findErr != nil {
				return nil, dErrors.Wrap(findErr, dErrors.CodeUnavailable, "load donor after conflict")
			}
			return &existing.ID, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "create donor")
	}
	return &donor.ID, nil
}
