package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kindra/internal/audit"
	"kindra/internal/donation/models"
	notifmodels "kindra/internal/notification/models"
	id "kindra/pkg/domain"
	dErrors "kindra/pkg/domain-errors"
	"kindra/pkg/platform/sentinel"
	"kindra/pkg/requestcontext"
)

// SubmitMaterialRequest is the pickup request payload.
type SubmitMaterialRequest struct {
	Category            models.ItemCategory
	Description         string
	Quantity            string
	PickupAddress       string
	PreferredPickupDate time.Time
	PreferredPickupTime string
	DonorEmail          string
	DonorName           string
}

// SubmitMaterial records a material donation pickup request and alerts staff.
func (s *Service) SubmitMaterial(ctx context.Context, req SubmitMaterialRequest) (*models.MaterialDonation, error) {
	now := requestcontext.Now(ctx)
	m, err := models.NewMaterialDonation(id.NewMaterialDonationID(), req.Category, req.Description, req.Quantity, req.PickupAddress, req.PreferredPickupDate, now)
	if err != nil {
		return nil, err
	}
	m.PreferredPickupTime = req.PreferredPickupTime

	if email := strings.TrimSpace(strings.ToLower(req.DonorEmail)); email != "" {
		donorID, err := s.resolveDonor(ctx, email, req.DonorName)
		if err != nil {
			return nil, err
		}
		m.DonorID = donorID
	}

	if err := s.materials.Create(ctx, m); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "create material donation")
	}

	s.audit(ctx, audit.ActionCreate, "material_donation", m.ID.String(),
		fmt.Sprintf("material donation submitted: %s, %s", m.Category, m.Quantity))
	s.notifyStaff(ctx, notifmodels.Message{
		Title:    "Material donation awaiting pickup",
		Body:     fmt.Sprintf("%s (%s) offered for pickup at %s.", m.Description, m.Quantity, m.PickupAddress),
		Kind:     notifmodels.KindInfo,
		Category: notifmodels.CategoryDonation,
	})
	return m, nil
}

// MarkCollected confirms a pickup happened.
func (s *Service) MarkCollected(ctx context.Context, materialID id.MaterialDonationID, notes string) (*models.MaterialDonation, error) {
	return s.transitionMaterial(ctx, materialID, models.MaterialPendingPickup, models.MaterialCollected, notes, audit.ActionApprove, "material donation collected")
}

// RejectMaterial declines a pickup request.
func (s *Service) RejectMaterial(ctx context.Context, materialID id.MaterialDonationID, notes string) (*models.MaterialDonation, error) {
	m, err := s.transitionMaterial(ctx, materialID, models.MaterialPendingPickup, models.MaterialRejected, notes, audit.ActionReject, "material donation rejected")
	if err != nil {
		return nil, err
	}
	s.notifyMaterialDonor(ctx, m, notifmodels.Message{
		Title:    "Material donation declined",
		Body:     fmt.Sprintf("We are unable to collect your %s donation. %s", strings.ToLower(string(m.Category)), notes),
		Kind:     notifmodels.KindWarning,
		Category: notifmodels.CategoryDonation,
	})
	return m, nil
}

// CancelMaterial withdraws a pickup request before collection.
func (s *Service) CancelMaterial(ctx context.Context, materialID id.MaterialDonationID) (*models.MaterialDonation, error) {
	return s.transitionMaterial(ctx, materialID, models.MaterialPendingPickup, models.MaterialCancelled, "", audit.ActionUpdate, "material donation cancelled")
}

// MarkDistributed records that collected goods reached beneficiaries and
// thanks the donor.
func (s *Service) MarkDistributed(ctx context.Context, materialID id.MaterialDonationID, notes string) (*models.MaterialDonation, error) {
	m, err := s.transitionMaterial(ctx, materialID, models.MaterialCollected, models.MaterialDistributed, notes, audit.ActionUpdate, "material donation distributed")
	if err != nil {
		return nil, err
	}
	s.notifyMaterialDonor(ctx, m, notifmodels.Message{
		Title:    "Your donation has been distributed",
		Body:     fmt.Sprintf("Your %s donation (%s) has reached its beneficiaries. Thank you.", strings.ToLower(string(m.Category)), m.Quantity),
		Kind:     notifmodels.KindSuccess,
		Category: notifmodels.CategoryDonation,
	})
	return m, nil
}

// GetMaterial loads a single pickup request.
func (s *Service) GetMaterial(ctx context.Context, materialID id.MaterialDonationID) (*models.MaterialDonation, error) {
	m, err := s.materials.FindByID(ctx, materialID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "material donation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load material donation")
	}
	return m, nil
}

// ListMaterials lists pickup requests, optionally filtered by status.
func (s *Service) ListMaterials(ctx context.Context, status models.MaterialStatus, limit int) ([]*models.MaterialDonation, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	out, err := s.materials.ListByStatus(ctx, status, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list material donations")
	}
	return out, nil
}

// MaterialAcknowledgment renders the acknowledgment document for a collected
// or distributed material donation.
func (s *Service) MaterialAcknowledgment(ctx context.Context, materialID id.MaterialDonationID) (*models.MaterialDonation, []byte, error) {
	m, err := s.GetMaterial(ctx, materialID)
	if err != nil {
		return nil, nil, err
	}
	if m.Status != models.MaterialCollected && m.Status != models.MaterialDistributed {
		return nil, nil, dErrors.Newf(dErrors.CodeInvalidTransition, "no acknowledgment for a %s material donation", m.Status)
	}
	if s.renderer == nil {
		return nil, nil, dErrors.New(dErrors.CodeUnavailable, "document rendering is not configured")
	}

	donorName := "Anonymous Donor"
	if m.DonorID != nil {
		if donor, err := s.donors.FindByID(ctx, *m.DonorID); err == nil {
			donorName = donor.DisplayName()
		}
	}
	doc, err := s.renderer.RenderAcknowledgment(m, donorName)
	if err != nil {
		return nil, nil, err
	}
	return m, doc, nil
}

func (s *Service) transitionMaterial(ctx context.Context, materialID id.MaterialDonationID, from, to models.MaterialStatus, notes string, action audit.Action, description string) (*models.MaterialDonation, error) {
	m, err := s.materials.FindByID(ctx, materialID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "material donation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load material donation")
	}

	now := requestcontext.Now(ctx)
	moved, err := s.materials.TransitionStatus(ctx, materialID, from, to, notes, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "transition material donation")
	}
	if !moved {
		reloaded, err := s.materials.FindByID(ctx, materialID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "reload material donation")
		}
		if reloaded.Status == to {
			return reloaded, nil
		}
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition, "cannot move a %s material donation to %s", reloaded.Status, to)
	}

	m.Status = to
	if notes != "" {
		m.AdminNotes = notes
	}
	m.UpdatedAt = now
	s.audit(ctx, action, "material_donation", m.ID.String(), description)
	return m, nil
}

func (s *Service) notifyStaff(ctx context.Context, msg notifmodels.Message) {
	if s.notifier == nil || s.audiences == nil {
		return
	}
	staff, err := s.audiences.Staff(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "staff audience resolution failed", "error", err.Error())
		return
	}
	s.notifier.Notify(ctx, staff, msg)
}

func (s *Service) notifyMaterialDonor(ctx context.Context, m *models.MaterialDonation, msg notifmodels.Message) {
	if s.notifier == nil || m.DonorID == nil {
		return
	}
	donor, err := s.donors.FindByID(ctx, *m.DonorID)
	if err != nil || donor.UserID == nil {
		return
	}
	s.notifier.NotifyUser(ctx, *donor.UserID, msg)
}
