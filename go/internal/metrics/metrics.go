// Package metrics provides Prometheus metrics for the fieldzone engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the engine reports.
type Metrics struct {
	registry *prometheus.Registry

	// Reconcile cycle
	ReconcileRuns    prometheus.Counter
	ReconcileErrors  prometheus.Counter
	EventsChecked    prometheus.Counter
	PossessionWrites prometheus.Counter

	// Fan-out
	PossessionChanges prometheus.Counter

	// Flag scans
	FlagScans     prometheus.Counter
	FlagScanFails prometheus.Counter

	// Demo mode
	DiscoEnabled prometheus.Gauge
}

// New builds the collector set on a fresh registry, keeping the default Go
// runtime collectors out of the scrape.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		ReconcileRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldzone", Name: "reconcile_runs_total",
			Help: "Completed possession reconcile cycles.",
		}),
		ReconcileErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldzone", Name: "reconcile_errors_total",
			Help: "Reconcile cycles that failed outright.",
		}),
		EventsChecked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldzone", Name: "events_checked_total",
			Help: "Events examined across all reconcile cycles.",
		}),
		PossessionWrites: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldzone", Name: "possession_writes_total",
			Help: "Possession snapshots written to the store.",
		}),
		PossessionChanges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldzone", Name: "possession_changes_total",
			Help: "Possession transitions notified downstream.",
		}),
		FlagScans: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldzone", Name: "flag_scans_total",
			Help: "Completed flag scan passes.",
		}),
		FlagScanFails: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldzone", Name: "flag_scan_failures_total",
			Help: "Flag scan passes that failed outright.",
		}),
		DiscoEnabled: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "fieldzone", Name: "disco_enabled",
			Help: "Whether demo mode is currently running.",
		}),
	}
}

// RegisterWSConnections exposes the websocket subscription count as a gauge.
func (m *Metrics) RegisterWSConnections(count func() int) {
	promauto.With(m.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "fieldzone", Name: "ws_connections",
		Help: "Active websocket subscriptions.",
	}, func() float64 { return float64(count()) })
}

// Handler serves the scrape endpoint for this collector set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
