package receipts

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"github.com/panjf2000/ants/v2"

	"kindra/internal/donation/models"
	id "kindra/pkg/domain"
	dErrors "kindra/pkg/domain-errors"
)

const documentTemplate = `================================================
{{ .OrgName }}
OFFICIAL DONATION RECEIPT
================================================

Receipt Number : {{ .Receipt.ReceiptNumber }}
Date Issued    : {{ .IssuedOn }}
Tax Year       : {{ .Receipt.TaxYear }}

Received From  : {{ .DonorName }}
Campaign       : {{ .CampaignLabel }}

Amount         : {{ .Donation.Currency }} {{ .Amount }}
Amount in Words: {{ .AmountWords }}
Payment Method : {{ .Donation.PaymentMethod }}
Transaction ID : {{ .Donation.TransactionID }}
{{ if .Receipt.TaxDeductible }}
This donation is tax deductible.
{{ end }}
Thank you for your generosity.
================================================
`

const acknowledgmentTemplate = `================================================
{{ .OrgName }}
MATERIAL DONATION ACKNOWLEDGMENT
================================================

Date Issued    : {{ .IssuedOn }}

Received From  : {{ .DonorName }}
Category       : {{ .Material.Category }}
Description    : {{ .Material.Description }}
Quantity       : {{ .Material.Quantity }}
Status         : {{ .Material.Status }}

Thank you for your generosity.
================================================
`

// acknowledgmentData is everything the acknowledgment template needs.
type acknowledgmentData struct {
	OrgName   string
	Material  *models.MaterialDonation
	DonorName string
	IssuedOn  string
}

// RenderData is everything the document template needs.
type RenderData struct {
	OrgName       string
	Receipt       *models.Receipt
	Donation      *models.Donation
	DonorName     string
	CampaignLabel string
	Amount        string
	AmountWords   string
	IssuedOn      string
}

// DocumentSaver persists rendered documents.
type DocumentSaver interface {
	SaveDocument(ctx context.Context, receiptID id.ReceiptID, document []byte, renderedAt time.Time) error
}

// Renderer produces receipt and acknowledgment documents. Render is
// synchronous; Enqueue hands the work to a bounded pool so finalization
// never waits on rendering.
type Renderer struct {
	tmpl    *template.Template
	ackTmpl *template.Template
	saver   DocumentSaver
	pool    *ants.Pool
	logger  *slog.Logger
	orgName string
}

// NewRenderer constructs a Renderer with workers goroutines.
func NewRenderer(saver DocumentSaver, orgName string, workers int, logger *slog.Logger) (*Renderer, error) {
	tmpl, err := template.New("receipt").Parse(documentTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse receipt template: %w", err)
	}
	ackTmpl, err := template.New("acknowledgment").Parse(acknowledgmentTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse acknowledgment template: %w", err)
	}
	if workers <= 0 {
		workers = 4
	}
	pool, err := ants.NewPool(workers, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("create render pool: %w", err)
	}
	return &Renderer{
		tmpl:    tmpl,
		ackTmpl: ackTmpl,
		saver:   saver,
		pool:    pool,
		logger:  logger,
		orgName: orgName,
	}, nil
}

// RenderAcknowledgment produces the acknowledgment document for a material
// donation. Acknowledgments are rendered on demand and never stored.
func (r *Renderer) RenderAcknowledgment(m *models.MaterialDonation, donorName string) ([]byte, error) {
	data := acknowledgmentData{
		OrgName:   r.orgName,
		Material:  m,
		DonorName: donorName,
		IssuedOn:  m.UpdatedAt.Format("02 Jan 2006"),
	}
	var buf bytes.Buffer
	if err := r.ackTmpl.Execute(&buf, data); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "render acknowledgment document")
	}
	return buf.Bytes(), nil
}

// Render produces the document bytes for a receipt.
func (r *Renderer) Render(receipt *models.Receipt, donation *models.Donation, donorName, campaignLabel string) ([]byte, error) {
	data := RenderData{
		OrgName:       r.orgName,
		Receipt:       receipt,
		Donation:      donation,
		DonorName:     donorName,
		CampaignLabel: campaignLabel,
		Amount:        donation.Amount.StringFixed(2),
		AmountWords:   AmountToWords(donation.Amount, donation.Currency),
		IssuedOn:      receipt.GeneratedAt.Format("02 Jan 2006"),
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "render receipt document")
	}
	return buf.Bytes(), nil
}

// Enqueue renders and saves the document on a pool worker. Failures are
// logged, never propagated: the receipt record already exists and the
// document can be regenerated on demand.
func (r *Renderer) Enqueue(ctx context.Context, receipt *models.Receipt, donation *models.Donation, donorName, campaignLabel string) {
	err := r.pool.Submit(func() {
		doc, err := r.Render(receipt, donation, donorName, campaignLabel)
		if err != nil {
			r.logger.Error("receipt render failed",
				"receipt_id", receipt.ID.String(), "error", err)
			return
		}
		// Detached from the request context: the caller's request may finish
		// before the worker runs.
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := r.saver.SaveDocument(saveCtx, receipt.ID, doc, time.Now().UTC()); err != nil {
			r.logger.Error("receipt document save failed",
				"receipt_id", receipt.ID.String(), "error", err)
		}
	})
	if err != nil {
		r.logger.Error("receipt render enqueue failed",
			"receipt_id", receipt.ID.String(), "error", err)
	}
}

// Close releases the render pool.
func (r *Renderer) Close() {
	r.pool.Release()
}
