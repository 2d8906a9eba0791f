// Package metrics exposes the ledger's Prometheus collectors. A nil *Metrics
// is valid and records nothing, so services can run without a registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Metrics groups every collector the ledger updates.
type Metrics struct {
	BetsRegistered  *prometheus.CounterVec
	BetsResolved    *prometheus.CounterVec
	AutomationRuns  prometheus.Counter
	OracleErrors    prometheus.Counter
	HouseBalance    *prometheus.GaugeVec
	HTTPRequests    *prometheus.CounterVec
	AutomationBatch prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BetsRegistered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betledger_bets_registered_total",
				Help: "Bets registered, by house",
			},
			[]string{"house"},
		),
		BetsResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betledger_bets_resolved_total",
				Help: "Bets resolved, by final status and source",
			},
			[]string{"status", "source"},
		),
		AutomationRuns: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "betledger_automation_runs_total",
				Help: "Batch resolution runs",
			},
		),
		OracleErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "betledger_oracle_errors_total",
				Help: "Outcome lookups that failed or timed out",
			},
		),
		HouseBalance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "betledger_house_balance",
				Help: "Latest known balance per house",
			},
			[]string{"house"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betledger_http_requests_total",
				Help: "HTTP requests, by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		AutomationBatch: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "betledger_automation_duration_seconds",
				Help:    "Wall time of a batch resolution run",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	reg.MustRegister(
		m.BetsRegistered,
		m.BetsResolved,
		m.AutomationRuns,
		m.OracleErrors,
		m.HouseBalance,
		m.HTTPRequests,
		m.AutomationBatch,
	)
	return m
}

// BetRegistered counts a new bet and records the house's new balance.
func (m *Metrics) BetRegistered(house string, balance decimal.Decimal) {
	if m == nil {
		return
	}
	m.BetsRegistered.WithLabelValues(house).Inc()
	m.HouseBalance.WithLabelValues(house).Set(balance.InexactFloat64())
}

// BetResolved counts a resolution and records the house's new balance.
func (m *Metrics) BetResolved(status, source, house string, balance decimal.Decimal) {
	if m == nil {
		return
	}
	m.BetsResolved.WithLabelValues(status, source).Inc()
	m.HouseBalance.WithLabelValues(house).Set(balance.InexactFloat64())
}

// BalanceSet records a manually set balance.
func (m *Metrics) BalanceSet(house string, balance decimal.Decimal) {
	if m == nil {
		return
	}
	m.HouseBalance.WithLabelValues(house).Set(balance.InexactFloat64())
}

// OracleError counts a failed outcome lookup.
func (m *Metrics) OracleError() {
	if m == nil {
		return
	}
	m.OracleErrors.Inc()
}

// AutomationRun counts a batch run and observes its duration in seconds.
func (m *Metrics) AutomationRun(seconds float64) {
	if m == nil {
		return
	}
	m.AutomationRuns.Inc()
	m.AutomationBatch.Observe(seconds)
}

// HTTPRequest counts one served request.
func (m *Metrics) HTTPRequest(method, route, status string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
}
