// Package metrics exposes Prometheus collectors for the pool service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Metrics bundles the service's Prometheus collectors.
type Metrics struct {
	SwapsTotal       *prometheus.CounterVec
	SwapLatency      prometheus.Histogram
	DepositsTotal    *prometheus.CounterVec
	WithdrawalsTotal *prometheus.CounterVec
}

// New registers and returns the service collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SwapsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tswap",
			Name:      "swaps_total",
			Help:      "Swap operations by pool, direction, and status.",
		}, []string{"pool", "direction", "status"}),
		SwapLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tswap",
			Name:      "swap_latency_seconds",
			Help:      "Swap execution latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		DepositsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tswap",
			Name:      "deposits_total",
			Help:      "Liquidity deposits by pool and status.",
		}, []string{"pool", "status"}),
		WithdrawalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tswap",
			Name:      "withdrawals_total",
			Help:      "Liquidity withdrawals by pool and status.",
		}, []string{"pool", "status"}),
	}
	if reg != nil {
		reg.MustRegister(m.SwapsTotal, m.SwapLatency, m.DepositsTotal, m.WithdrawalsTotal)
	}
	return m
}
