package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kindra/internal/audit"
	"kindra/internal/donation/models"
	id "kindra/pkg/domain"
	dErrors "kindra/pkg/domain-errors"
	"kindra/pkg/platform/sentinel"
	"kindra/pkg/requestcontext"
)

// CreateCampaignRequest is the campaign creation payload.
type CreateCampaignRequest struct {
	Title        string
	Description  string
	TargetAmount decimal.Decimal
	Currency     string
	StartDate    string
	EndDate      string
	Category     models.CampaignCategory
	Urgency      string
	IsFeatured   bool
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from a campaign title.
func Slugify(title string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

// CreateCampaign validates and stores a new campaign in DRAFT status.
func (s *Service) CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*models.Campaign, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if !req.TargetAmount.IsPositive() {
		return nil, dErrors.New(dErrors.CodeValidation, "target_amount must be greater than zero")
	}
	if req.Currency == "" {
		req.Currency = s.defaultCurrency
	}
	if req.Urgency == "" {
		req.Urgency = "MEDIUM"
	}
	if req.Category == "" {
		req.Category = models.CategoryOtherCause
	}

	start, err := parseDate(req.StartDate, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := parseDate(req.EndDate, "end_date")
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, dErrors.New(dErrors.CodeValidation, "end_date must be after start_date")
	}

	now := requestcontext.Now(ctx)
	c := &models.Campaign{
		ID:           id.CampaignID(uuid.New()),
		Title:        title,
		Slug:         Slugify(title),
		Description:  req.Description,
		TargetAmount: req.TargetAmount,
		RaisedAmount: decimal.Zero,
		Currency:     strings.ToUpper(req.Currency),
		StartDate:    start,
		EndDate:      end,
		Status:       models.CampaignDraft,
		Category:     req.Category,
		Urgency:      req.Urgency,
		IsFeatured:   req.IsFeatured,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if actor := requestcontext.UserID(ctx); !actor.IsNil() {
		c.CreatedBy = &actor
	}

	if err := s.campaigns.Create(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "a campaign with this title already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "create campaign")
	}
	s.audit(ctx, audit.ActionCreate, "campaign", c.ID.String(),
		fmt.Sprintf("campaign %q created, target %s %s", c.Title, c.Currency, c.TargetAmount.StringFixed(2)))
	return c, nil
}

// UpdateCampaignStatus moves a campaign through its lifecycle.
func (s *Service) UpdateCampaignStatus(ctx context.Context, campaignID id.CampaignID, status models.CampaignStatus) (*models.Campaign, error) {
	switch status {
	case models.CampaignDraft, models.CampaignActive, models.CampaignCompleted, models.CampaignPaused:
	default:
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown campaign status %q", status)
	}

	c, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	c.Status = status
	c.UpdatedAt = requestcontext.Now(ctx)
	if err := s.campaigns.Update(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "update campaign")
	}
	s.audit(ctx, audit.ActionUpdate, "campaign", c.ID.String(),
		fmt.Sprintf("campaign status set to %s", status))
	return c, nil
}

// GetCampaign loads a campaign by ID.
func (s *Service) GetCampaign(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	c, err := s.campaigns.FindByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "campaign not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load campaign")
	}
	return c, nil
}

// GetCampaignBySlug loads a campaign by slug.
func (s *Service) GetCampaignBySlug(ctx context.Context, slug string) (*models.Campaign, error) {
	c, err := s.campaigns.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "campaign not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load campaign")
	}
	return c, nil
}

// ListCampaigns lists campaigns, optionally filtered by status.
func (s *Service) ListCampaigns(ctx context.Context, status models.CampaignStatus, limit int) ([]*models.Campaign, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	out, err := s.campaigns.List(ctx, status, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list campaigns")
	}
	return out, nil
}

// Progress returns the fundraising snapshot for a campaign, served from the
// cache when fresh.
func (s *Service) Progress(ctx context.Context, campaignID id.CampaignID) (*CampaignProgress, error) {
	if s.cache != nil {
		if p, ok := s.cache.Get(ctx, campaignID); ok {
			return p, nil
		}
	}
	c, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	p := CampaignProgress{
		CampaignID: c.ID,
		Title:      c.Title,
		Raised:     c.RaisedAmount,
		Target:     c.TargetAmount,
		Percent:    c.ProgressPercent(),
		UpdatedAt:  requestcontext.Now(ctx),
	}
	if s.cache != nil {
		s.cache.Set(ctx, campaignID, p)
	}
	return &p, nil
}

func parseDate(value, field string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, dErrors.Newf(dErrors.CodeValidation, "%s must be YYYY-MM-DD", field)
	}
	return t, nil
}
