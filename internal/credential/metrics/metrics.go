package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the credential module.
type Metrics struct {
	// Mint outcomes by template category
	MintsTotal *prometheus.CounterVec

	// Mint pipeline failures by stage
	MintFailures *prometheus.CounterVec

	// Full mint pipeline latency
	MintLatency prometheus.Histogram

	// Lifecycle transitions out of active
	Transitions *prometheus.CounterVec
}

// New creates a new Metrics instance with all credential module metrics registered.
func New() *Metrics {
	return &Metrics{
		MintsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veridity_credential_mints_total",
			Help: "Total tokens minted by template category",
		}, []string{"category"}),

		MintFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veridity_credential_mint_failures_total",
			Help: "Mint pipeline failures by stage",
		}, []string{"stage"}),

		MintLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veridity_credential_mint_duration_seconds",
			Help:    "Duration of the full mint pipeline including external calls",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veridity_credential_transitions_total",
			Help: "Token status transitions out of active",
		}, []string{"to"}), // to: "revoked", "expired", "transferred"
	}
}

// IncrementMint records a successful mint.
func (m *Metrics) IncrementMint(category string) {
	if m != nil {
		m.MintsTotal.WithLabelValues(category).Inc()
	}
}

// IncrementMintFailure records a pipeline failure at the given stage.
func (m *Metrics) IncrementMintFailure(stage string) {
	if m != nil {
		m.MintFailures.WithLabelValues(stage).Inc()
	}
}

// ObserveMintLatency records the total mint pipeline duration.
func (m *Metrics) ObserveMintLatency(d time.Duration) {
	if m != nil {
		m.MintLatency.Observe(d.Seconds())
	}
}

// IncrementTransition records a status transition out of active.
func (m *Metrics) IncrementTransition(to string) {
	if m != nil {
		m.Transitions.WithLabelValues(to).Inc()
	}
}
