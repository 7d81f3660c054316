// Package metrics defines the Prometheus metrics exported by the server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server's collectors in a private registry so tests can
// create as many instances as they like.
type Metrics struct {
	Registry *prometheus.Registry

	rpcDuration         *prometheus.HistogramVec
	settlementsComputed prometheus.Counter
	suggestedTransfers  prometheus.Histogram
	rateLimited         *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		rpcDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "settleup_rpc_duration_seconds",
				Help:    "Duration of RPCs by procedure and result code.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"procedure", "code"},
		),
		settlementsComputed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "settleup_settlements_computed_total",
				Help: "Number of group settlement computations.",
			},
		),
		suggestedTransfers: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "settleup_suggested_transactions",
				Help:    "Number of suggested transfers per settlement computation.",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
			},
		),
		rateLimited: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settleup_rate_limited_total",
				Help: "Requests rejected by the rate limiter.",
			},
			[]string{"procedure"},
		),
	}
}

// ObserveRPC records the duration of a finished RPC.
func (m *Metrics) ObserveRPC(procedure, code string, d time.Duration) {
	m.rpcDuration.WithLabelValues(procedure, code).Observe(d.Seconds())
}

// ObserveSettlement records one settlement computation and its transfer count.
func (m *Metrics) ObserveSettlement(transactions int) {
	m.settlementsComputed.Inc()
	m.suggestedTransfers.Observe(float64(transactions))
}

func (m *Metrics) IncrRateLimited(procedure string) {
	m.rateLimited.WithLabelValues(procedure).Inc()
}
