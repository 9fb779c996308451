package metrics

import (
	"context"

	"github.com/mcdev12/fieldzone/go/internal/possession"
)

// Reconciler matches the possession tracker's reconcile entry point
type Reconciler interface {
	Reconcile(ctx context.Context) (possession.Result, error)
}

// Scanner matches the flag scanner's entry point
type Scanner interface {
	Scan(ctx context.Context) (int, error)
}

// InstrumentedReconciler wraps a Reconciler with metrics collection
type InstrumentedReconciler struct {
	inner   Reconciler
	metrics *Metrics
}

func NewInstrumentedReconciler(inner Reconciler, m *Metrics) *InstrumentedReconciler {
	return &InstrumentedReconciler{inner: inner, metrics: m}
}

func (r *InstrumentedReconciler) Reconcile(ctx context.Context) (possession.Result, error) {
	result, err := r.inner.Reconcile(ctx)
	if err != nil {
		r.metrics.ReconcileErrors.Inc()
		return result, err
	}
	r.metrics.ReconcileRuns.Inc()
	r.metrics.EventsChecked.Add(float64(result.Checked))
	r.metrics.PossessionWrites.Add(float64(result.Updated))
	return result, nil
}

// InstrumentedScanner wraps a Scanner with metrics collection
type InstrumentedScanner struct {
	inner   Scanner
	metrics *Metrics
}

func NewInstrumentedScanner(inner Scanner, m *Metrics) *InstrumentedScanner {
	return &InstrumentedScanner{inner: inner, metrics: m}
}

func (s *InstrumentedScanner) Scan(ctx context.Context) (int, error) {
	n, err := s.inner.Scan(ctx)
	if err != nil {
		s.metrics.FlagScanFails.Inc()
		return n, err
	}
	s.metrics.FlagScans.Inc()
	return n, nil
}

// InstrumentedNotifier counts possession transitions before handing them to
// the wrapped notifiers.
type InstrumentedNotifier struct {
	inner   []possession.Notifier
	metrics *Metrics
}

func NewInstrumentedNotifier(m *Metrics, inner ...possession.Notifier) *InstrumentedNotifier {
	return &InstrumentedNotifier{inner: inner, metrics: m}
}

func (n *InstrumentedNotifier) PossessionChanged(ctx context.Context, change possession.Change) {
	n.metrics.PossessionChanges.Inc()
	for _, notifier := range n.inner {
		notifier.PossessionChanged(ctx, change)
	}
}
