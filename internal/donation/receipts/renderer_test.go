package receipts_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindra/internal/donation/models"
	"kindra/internal/donation/receipts"
	id "kindra/pkg/domain"
)

type recordingSaver struct {
	mu       sync.Mutex
	saved    map[id.ReceiptID][]byte
	notified chan struct{}
}

func newRecordingSaver() *recordingSaver {
	return &recordingSaver{
		saved:    make(map[id.ReceiptID][]byte),
		notified: make(chan struct{}, 16),
	}
}

func (s *recordingSaver) SaveDocument(_ context.Context, receiptID id.ReceiptID, document []byte, _ time.Time) error {
	s.mu.Lock()
	s.saved[receiptID] = document
	s.mu.Unlock()
	s.notified <- struct{}{}
	return nil
}

func testReceiptAndDonation() (*models.Receipt, *models.Donation) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	donation := &models.Donation{
		ID:            id.NewDonationID(),
		Amount:        decimal.RequireFromString("1250.50"),
		Currency:      "KES",
		PaymentMethod: models.PaymentMpesa,
		TransactionID: "SHA123XYZ",
		Status:        models.DonationCompleted,
		DonatedAt:     now,
	}
	receipt := &models.Receipt{
		ID:            id.NewReceiptID(),
		DonationID:    donation.ID,
		ReceiptNumber: "REC-AB12CD34",
		TaxDeductible: true,
		TaxYear:       2026,
		GeneratedAt:   now,
	}
	return receipt, donation
}

func TestRender(t *testing.T) {
	saver := newRecordingSaver()
	r, err := receipts.NewRenderer(saver, "Kindra CBO", 2, slog.Default())
	require.NoError(t, err)
	defer r.Close()

	rec, don := testReceiptAndDonation()
	doc, err := r.Render(rec, don, "Jane Wanjiku", "School Meals")
	require.NoError(t, err)

	out := string(doc)
	assert.Contains(t, out, "Kindra CBO")
	assert.Contains(t, out, "REC-AB12CD34")
	assert.Contains(t, out, "Jane Wanjiku")
	assert.Contains(t, out, "School Meals")
	assert.Contains(t, out, "KES 1250.50")
	assert.Contains(t, out, "One Thousand Two Hundred Fifty Kenyan Shillings and Fifty Cents")
	assert.Contains(t, out, "SHA123XYZ")
	assert.Contains(t, out, "tax deductible")
}

func TestRenderAcknowledgment(t *testing.T) {
	saver := newRecordingSaver()
	r, err := receipts.NewRenderer(saver, "Kindra CBO", 2, slog.Default())
	require.NoError(t, err)
	defer r.Close()

	m := &models.MaterialDonation{
		ID:          id.NewMaterialDonationID(),
		Category:    models.ItemFood,
		Description: "Maize flour",
		Quantity:    "10 bags",
		Status:      models.MaterialCollected,
		UpdatedAt:   time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
	doc, err := r.RenderAcknowledgment(m, "Otieno")
	require.NoError(t, err)

	out := string(doc)
	assert.Contains(t, out, "MATERIAL DONATION ACKNOWLEDGMENT")
	assert.Contains(t, out, "Otieno")
	assert.Contains(t, out, "Maize flour")
	assert.Contains(t, out, "10 bags")
	assert.Contains(t, out, "14 Mar 2026")
}

func TestEnqueueSavesDocument(t *testing.T) {
	saver := newRecordingSaver()
	r, err := receipts.NewRenderer(saver, "Kindra CBO", 2, slog.Default())
	require.NoError(t, err)
	defer r.Close()

	rec, don := testReceiptAndDonation()
	r.Enqueue(context.Background(), rec, don, "Jane Wanjiku", "General Fund")

	select {
	case <-saver.notified:
	case <-time.After(2 * time.Second):
		t.Fatal("document was never saved")
	}

	saver.mu.Lock()
	defer saver.mu.Unlock()
	assert.Contains(t, string(saver.saved[rec.ID]), "General Fund")
}
