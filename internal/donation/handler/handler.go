// Package handler exposes the donation engine over HTTP. Handlers decode,
// delegate, and encode; every rule lives in the service layer, and every
// error reaches the wire through the shared code-to-status mapping.
package handler

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"kindra/internal/donation/models"
	"kindra/internal/donation/service"
	notifmodels "kindra/internal/notification/models"
	"kindra/internal/platform/middleware"
	id "kindra/pkg/domain"
	dErrors "kindra/pkg/domain-errors"
	"kindra/pkg/requestcontext"
)

// Service is the slice of the donation service the HTTP layer uses.
type Service interface {
	CreateDonation(ctx context.Context, req service.CreateDonationRequest) (*models.Donation, error)
	GetDonation(ctx context.Context, donationID id.DonationID) (*models.Donation, error)
	ListDonationsByCampaign(ctx context.Context, campaignID id.CampaignID, limit int) ([]*models.Donation, error)
	ListDonationsByDonor(ctx context.Context, donorID id.DonorID, limit int) ([]*models.Donation, error)
	ListPendingDonations(ctx context.Context, limit int) ([]*models.Donation, error)

	Approve(ctx context.Context, donationID id.DonationID) (*service.FinalizeResult, error)
	Reject(ctx context.Context, donationID id.DonationID, reason string) (*models.Donation, error)
	Refund(ctx context.Context, donationID id.DonationID, reason string) (*models.Donation, error)
	DeleteDonation(ctx context.Context, donationID id.DonationID) error

	ReceiptForDonation(ctx context.Context, donationID id.DonationID) (*models.Receipt, error)
	ReceiptDocument(ctx context.Context, receiptID id.ReceiptID) (*models.Receipt, []byte, error)
	ListReceipts(ctx context.Context, limit int) ([]*models.Receipt, error)

	CreateCampaign(ctx context.Context, req service.CreateCampaignRequest) (*models.Campaign, error)
	UpdateCampaignStatus(ctx context.Context, campaignID id.CampaignID, status models.CampaignStatus) (*models.Campaign, error)
	GetCampaign(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error)
	GetCampaignBySlug(ctx context.Context, slug string) (*models.Campaign, error)
	ListCampaigns(ctx context.Context, status models.CampaignStatus, limit int) ([]*models.Campaign, error)
	Progress(ctx context.Context, campaignID id.CampaignID) (*service.CampaignProgress, error)
	RecomputeCampaign(ctx context.Context, campaignID id.CampaignID) (bool, error)
	RecomputeAll(ctx context.Context) (int, error)

	SubmitMaterial(ctx context.Context, req service.SubmitMaterialRequest) (*models.MaterialDonation, error)
	GetMaterial(ctx context.Context, materialID id.MaterialDonationID) (*models.MaterialDonation, error)
	ListMaterials(ctx context.Context, status models.MaterialStatus, limit int) ([]*models.MaterialDonation, error)
	MarkCollected(ctx context.Context, materialID id.MaterialDonationID, notes string) (*models.MaterialDonation, error)
	RejectMaterial(ctx context.Context, materialID id.MaterialDonationID, notes string) (*models.MaterialDonation, error)
	CancelMaterial(ctx context.Context, materialID id.MaterialDonationID) (*models.MaterialDonation, error)
	MarkDistributed(ctx context.Context, materialID id.MaterialDonationID, notes string) (*models.MaterialDonation, error)
	MaterialAcknowledgment(ctx context.Context, materialID id.MaterialDonationID) (*models.MaterialDonation, []byte, error)
}

// Inbox serves per-recipient notifications.
type Inbox interface {
	Inbox(ctx context.Context, recipient id.UserID) ([]notifmodels.Notification, error)
}

// Handler handles donation, campaign, receipt, and material endpoints.
type Handler struct {
	logger       *slog.Logger
	svc          Service
	inbox        Inbox
	jwtValidator middleware.JWTValidator
}

// New creates a donation Handler. inbox may be nil when notifications are
// not configured.
func New(svc Service, inbox Inbox, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		svc:          svc,
		inbox:        inbox,
		jwtValidator: jwtValidator,
	}
}

// Register mounts all routes on r. Public routes take donations and serve
// campaign state; staff routes drive approval, refunds, the material
// pipeline, and reconciliation.
func (h *Handler) Register(r chi.Router) {
	root := chi.NewRouter()
	root.Use(middleware.Recovery(h.logger))
	root.Use(middleware.RequestID)
	root.Use(middleware.RequestTime)
	root.Use(middleware.ClientIP)
	root.Use(middleware.Logger(h.logger))

	root.Route("/donations", func(r chi.Router) {
		r.Post("/mpesa", h.handleIntake(models.PaymentMpesa))
		r.Post("/paypal", h.handleIntake(models.PaymentPaypal))
		r.Post("/stripe", h.handleIntake(models.PaymentStripe))
		r.Post("/bank-transfer", h.handleIntake(models.PaymentBankTransfer))
		r.Get("/{donationID}", h.handleGetDonation)
		r.Get("/{donationID}/receipt", h.handleGetReceipt)
	})

	root.Route("/campaigns", func(r chi.Router) {
		r.Get("/", h.handleListCampaigns)
		r.Get("/{campaignID}", h.handleGetCampaign)
		r.Get("/slug/{slug}", h.handleGetCampaignBySlug)
		r.Get("/{campaignID}/progress", h.handleCampaignProgress)
		r.Get("/{campaignID}/donations", h.handleListCampaignDonations)
	})

	root.Get("/receipts/{receiptID}/document", h.handleReceiptDocument)
	root.Post("/materials", h.handleSubmitMaterial)
	root.Get("/materials/{materialID}/acknowledgment", h.handleMaterialAcknowledgment)

	root.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Get("/notifications", h.handleInbox)
	})

	root.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Use(middleware.RequireStaff)

		r.Get("/donations/pending", h.handlePendingDonations)
		r.Post("/donations/{donationID}/approve", h.handleApprove)
		r.Post("/donations/{donationID}/reject", h.handleReject)
		r.Post("/donations/{donationID}/refund", h.handleRefund)
		r.Delete("/donations/{donationID}", h.handleDeleteDonation)
		r.Get("/donors/{donorID}/donations", h.handleDonorDonations)

		r.Get("/receipts", h.handleListReceipts)

		r.Post("/campaigns", h.handleCreateCampaign)
		r.Patch("/campaigns/{campaignID}/status", h.handleCampaignStatus)
		r.Post("/campaigns/{campaignID}/reconcile", h.handleReconcileCampaign)

		r.Get("/materials", h.handleListMaterials)
		r.Get("/materials/{materialID}", h.handleGetMaterial)
		r.Post("/materials/{materialID}/collect", h.handleMaterialAction(actionCollect))
		r.Post("/materials/{materialID}/reject", h.handleMaterialAction(actionReject))
		r.Post("/materials/{materialID}/cancel", h.handleMaterialAction(actionCancel))
		r.Post("/materials/{materialID}/distribute", h.handleMaterialAction(actionDistribute))

		r.Post("/reconcile", h.handleReconcile)
	})

	r.Mount("/", root)
}

// currentUserID returns the authenticated user from context. RequireAuth
// guarantees it is set on the routes that call this.
func currentUserID(ctx context.Context) (id.UserID, error) {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return userID, nil
}

// finalizeResponse is the wire form of a finalization outcome.
type finalizeResponse struct {
	Donation         *models.Donation `json:"donation"`
	Receipt          *models.Receipt  `json:"receipt,omitempty"`
	AlreadyFinalized bool             `json:"already_finalized"`
}
