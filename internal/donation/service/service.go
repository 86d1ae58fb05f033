// Package service orchestrates the donation ledger: intake, finalization,
// approval, refunds, receipts, aggregates, and the material donation
// workflow. Stores are pure I/O; every rule lives here.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"kindra/internal/audit"
	"kindra/internal/donation/metrics"
	"kindra/internal/donation/models"
	"kindra/internal/notification"
	notifmodels "kindra/internal/notification/models"
	id "kindra/pkg/domain"
	"kindra/pkg/platform/tx"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks kindra/internal/donation/service ReceiptIssuer,ReceiptRenderer,Notifier,AudienceResolver

type DonationStore interface {
	Create(ctx context.Context, d *models.Donation) error
	FindByID(ctx context.Context, donationID id.DonationID) (*models.Donation, error)
	ClaimCompleted(ctx context.Context, donationID id.DonationID, now time.Time) (bool, error)
	TransitionStatus(ctx context.Context, donationID id.DonationID, from, to models.DonationStatus, now time.Time) (bool, error)
	MarkReceiptSent(ctx context.Context, donationID id.DonationID, at time.Time) error
	SumCompletedByCampaign(ctx context.Context, campaignID id.CampaignID) (decimal.Decimal, error)
	SumCompletedByDonor(ctx context.Context, donorID id.DonorID) (decimal.Decimal, error)
	ListByCampaign(ctx context.Context, campaignID id.CampaignID, limit int) ([]*models.Donation, error)
	ListByDonor(ctx context.Context, donorID id.DonorID, limit int) ([]*models.Donation, error)
	ListByStatus(ctx context.Context, status models.DonationStatus, limit int) ([]*models.Donation, error)
	Delete(ctx context.Context, donationID id.DonationID) error
}

type CampaignStore interface {
	Create(ctx context.Context, c *models.Campaign) error
	FindByID(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error)
	FindBySlug(ctx context.Context, slug string) (*models.Campaign, error)
	List(ctx context.Context, status models.CampaignStatus, limit int) ([]*models.Campaign, error)
	ListIDs(ctx context.Context) ([]id.CampaignID, error)
	Update(ctx context.Context, c *models.Campaign) error
	Credit(ctx context.Context, campaignID id.CampaignID, amount decimal.Decimal, now time.Time) error
	SetRaised(ctx context.Context, campaignID id.CampaignID, amount decimal.Decimal, now time.Time) error
}

type DonorStore interface {
	Create(ctx context.Context, d *models.Donor) error
	FindByID(ctx context.Context, donorID id.DonorID) (*models.Donor, error)
	FindByEmail(ctx context.Context, email string) (*models.Donor, error)
	Update(ctx context.Context, d *models.Donor) error
	Credit(ctx context.Context, donorID id.DonorID, amount decimal.Decimal, now time.Time) error
	SetTotal(ctx context.Context, donorID id.DonorID, amount decimal.Decimal, now time.Time) error
}

type ReceiptStore interface {
	FindByID(ctx context.Context, receiptID id.ReceiptID) (*models.Receipt, error)
	FindByDonationID(ctx context.Context, donationID id.DonationID) (*models.Receipt, error)
	FindByNumber(ctx context.Context, number string) (*models.Receipt, error)
	List(ctx context.Context, limit int) ([]*models.Receipt, error)
	SaveDocument(ctx context.Context, receiptID id.ReceiptID, document []byte, renderedAt time.Time) error
}

type MaterialStore interface {
	Create(ctx context.Context, m *models.MaterialDonation) error
	FindByID(ctx context.Context, materialID id.MaterialDonationID) (*models.MaterialDonation, error)
	ListByStatus(ctx context.Context, status models.MaterialStatus, limit int) ([]*models.MaterialDonation, error)
	TransitionStatus(ctx context.Context, materialID id.MaterialDonationID, from, to models.MaterialStatus, notes string, now time.Time) (bool, error)
}

// ReceiptIssuer creates receipt records idempotently.
type ReceiptIssuer interface {
	Issue(ctx context.Context, donation *models.Donation) (*models.Receipt, error)
}

// ReceiptRenderer produces receipt and acknowledgment documents.
type ReceiptRenderer interface {
	Render(receipt *models.Receipt, donation *models.Donation, donorName, campaignLabel string) ([]byte, error)
	RenderAcknowledgment(m *models.MaterialDonation, donorName string) ([]byte, error)
	Enqueue(ctx context.Context, receipt *models.Receipt, donation *models.Donation, donorName, campaignLabel string)
}

// Notifier fans messages out to recipient inboxes.
type Notifier interface {
	Notify(ctx context.Context, audience notification.Audience, msg notifmodels.Message) int
	NotifyUser(ctx context.Context, recipient id.UserID, msg notifmodels.Message) bool
}

// AudienceResolver resolves notification audiences.
type AudienceResolver interface {
	Staff(ctx context.Context) (notification.Audience, error)
}

// CampaignProgress is the read-side snapshot the progress cache holds.
type CampaignProgress struct {
	CampaignID id.CampaignID   `json:"campaign_id"`
	Title      string          `json:"title"`
	Raised     decimal.Decimal `json:"raised"`
	Target     decimal.Decimal `json:"target"`
	Percent    float64         `json:"percent"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ProgressCache is a best-effort read cache. Implementations swallow their
// own errors; a cache miss or failure only costs a recompute.
type ProgressCache interface {
	Get(ctx context.Context, campaignID id.CampaignID) (*CampaignProgress, bool)
	Set(ctx context.Context, campaignID id.CampaignID, p CampaignProgress)
	Invalidate(ctx context.Context, campaignID id.CampaignID)
}

// Service orchestrates donation processing.
type Service struct {
	donations DonationStore
	campaigns CampaignStore
	donors    DonorStore
	receipts  ReceiptStore
	materials MaterialStore
	runner    tx.Runner

	issuer    ReceiptIssuer
	renderer  ReceiptRenderer
	notifier  Notifier
	audiences AudienceResolver
	cache     ProgressCache
	auditor   *audit.Recorder
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer

	orgName         string
	defaultCurrency string
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditRecorder(r *audit.Recorder) Option {
	return func(s *Service) { s.auditor = r }
}

// WithNotifications attaches the dispatcher and audience resolver. Without
// this option the service processes donations silently.
func WithNotifications(n Notifier, a AudienceResolver) Option {
	return func(s *Service) {
		s.notifier = n
		s.audiences = a
	}
}

// WithRenderer attaches asynchronous document rendering. Without it receipts
// are rendered on first download.
func WithRenderer(r ReceiptRenderer) Option {
	return func(s *Service) { s.renderer = r }
}

func WithProgressCache(c ProgressCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithOrgName(name string) Option {
	return func(s *Service) { s.orgName = name }
}

func WithDefaultCurrency(code string) Option {
	return func(s *Service) { s.defaultCurrency = code }
}

// WithIssuer overrides the receipt issuer. Tests use this to force issuance
// failures.
func WithIssuer(i ReceiptIssuer) Option {
	return func(s *Service) { s.issuer = i }
}

// New constructs a Service. The issuer defaults to one backed by the receipt
// store; everything else attached via options is optional and nil-safe.
func New(donations DonationStore, campaigns CampaignStore, donors DonorStore, receiptStore ReceiptStore, materials MaterialStore, runner tx.Runner, defaultIssuer ReceiptIssuer, opts ...Option) *Service {
	s := &Service{
		donations:       donations,
		campaigns:       campaigns,
		donors:          donors,
		receipts:        receiptStore,
		materials:       materials,
		runner:          runner,
		issuer:          defaultIssuer,
		logger:          slog.Default(),
		tracer:          otel.Tracer("kindra/donation"),
		orgName:         "Kindra CBO",
		defaultCurrency: "KES",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
