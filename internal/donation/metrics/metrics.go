package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the donation module.
// Tracks finalization outcomes, critical path durations, and reconciliation
// drift.
type Metrics struct {
	FinalizeOutcomes *prometheus.CounterVec
	FinalizeDuration prometheus.Histogram
	ReceiptsIssued   prometheus.Counter
	ReconcileRuns    prometheus.Counter
	ReconcileDrift   prometheus.Gauge
	DonationsCreated *prometheus.CounterVec
}

// New creates a Metrics instance with all donation module metrics registered.
func New() *Metrics {
	return &Metrics{
		FinalizeOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kindra_donation_finalize_total",
			Help: "Finalization attempts by outcome (completed, duplicate, invalid, error)",
		}, []string{"outcome"}),
		FinalizeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kindra_donation_finalize_duration_seconds",
			Help:    "Duration of finalization (claim through credit commit)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ReceiptsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kindra_receipts_issued_total",
			Help: "Total number of receipts issued",
		}),
		ReconcileRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kindra_reconcile_runs_total",
			Help: "Total number of campaign reconciliation sweeps",
		}),
		ReconcileDrift: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "kindra_reconcile_drift_campaigns",
			Help: "Campaigns whose cached aggregate disagreed with the ledger in the last sweep",
		}),
		DonationsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kindra_donations_created_total",
			Help: "Donations created by payment method",
		}, []string{"method"}),
	}
}

// RecordFinalize records a finalization attempt and its duration.
func (m *Metrics) RecordFinalize(outcome string, start time.Time) {
	m.FinalizeOutcomes.WithLabelValues(outcome).Inc()
	m.FinalizeDuration.Observe(time.Since(start).Seconds())
}

// IncrementReceiptsIssued records a newly issued receipt.
func (m *Metrics) IncrementReceiptsIssued() {
	m.ReceiptsIssued.Inc()
}

// RecordReconcile records a sweep and how many campaigns drifted.
func (m *Metrics) RecordReconcile(drifted int) {
	m.ReconcileRuns.Inc()
	m.ReconcileDrift.Set(float64(drifted))
}

// IncrementDonationsCreated records a new ledger entry by channel.
func (m *Metrics) IncrementDonationsCreated(method string) {
	m.DonationsCreated.WithLabelValues(method).Inc()
}
