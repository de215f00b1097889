package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics groups the collectors exported on /metrics
type Metrics struct {
	Registry        *prometheus.Registry
	BidsPlaced      prometheus.Counter
	BidsRejected    *prometheus.CounterVec
	Settlements     *prometheus.CounterVec
	SweepDuration   prometheus.Histogram
	RequestDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		BidsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "auction",
			Name:      "bids_placed_total",
			Help:      "Bids accepted into the ledger.",
		}),
		BidsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auction",
			Name:      "bids_rejected_total",
			Help:      "Bids refused, by reason.",
		}, []string{"reason"}),
		Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auction",
			Name:      "settlements_total",
			Help:      "Products processed by the settlement sweep, by outcome.",
		}, []string{"outcome"}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "auction",
			Name:      "settlement_sweep_seconds",
			Help:      "Wall time of one settlement sweep.",
			Buckets:   prometheus.DefBuckets,
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "auction",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.Registry.MustRegister(
		m.BidsPlaced,
		m.BidsRejected,
		m.Settlements,
		m.SweepDuration,
		m.RequestDuration,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveBid counts an accepted bid, or a rejected one under reason
func (m *Metrics) ObserveBid(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		m.BidsPlaced.Inc()
		return
	}
	m.BidsRejected.WithLabelValues(reason).Inc()
}

// ObserveSettlement counts one settlement outcome
func (m *Metrics) ObserveSettlement(outcome string) {
	if m == nil {
		return
	}
	m.Settlements.WithLabelValues(outcome).Inc()
}
