package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the tenant sync engine.
type Metrics struct {
	Runs         *prometheus.CounterVec
	UnitsCreated prometheus.Counter
	UnitsUpdated prometheus.Counter
	UnitErrors   prometheus.Counter
	RunDuration  prometheus.Histogram
}

// New creates a new Metrics instance with all sync engine metrics registered.
func New() *Metrics {
	return &Metrics{
		Runs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gazetteer_sync_runs_total",
			Help: "Total sync runs by outcome",
		}, []string{"outcome"}), // outcome: "clean", "partial", "failed"
		UnitsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gazetteer_sync_units_created_total",
			Help: "Total replica units created by sync",
		}),
		UnitsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gazetteer_sync_units_updated_total",
			Help: "Total replica units corrected by sync",
		}),
		UnitErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gazetteer_sync_unit_errors_total",
			Help: "Total per-unit failures recorded during sync",
		}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gazetteer_sync_run_duration_seconds",
			Help:    "Duration of one (tenant, country) sync run",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// ObserveRun records a completed run with its outcome.
// Call with time.Now() captured at the start of the run.
func (m *Metrics) ObserveRun(outcome string, start time.Time, created, updated, errored int) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(outcome).Inc()
	m.UnitsCreated.Add(float64(created))
	m.UnitsUpdated.Add(float64(updated))
	m.UnitErrors.Add(float64(errored))
	m.RunDuration.Observe(time.Since(start).Seconds())
}
