package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the geo module. Tracks path generation
// outcomes, cache effectiveness, and validation latency.
type Metrics struct {
	PathsGenerated *prometheus.CounterVec
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	ValidateErrors *prometheus.CounterVec

	GeneratePathDuration prometheus.Histogram
}

// New creates a new Metrics instance with all geo module metrics registered.
func New() *Metrics {
	return &Metrics{
		PathsGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gazetteer_geo_paths_generated_total",
			Help: "Total geography paths generated by country",
		}, []string{"country"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gazetteer_geo_path_cache_hits_total",
			Help: "Total path cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gazetteer_geo_path_cache_misses_total",
			Help: "Total path cache misses",
		}),
		ValidateErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gazetteer_geo_validation_errors_total",
			Help: "Total hierarchy validation failures by reason",
		}, []string{"reason"}), // reason: "unsupported_country", "gap", "missing_required", "unit_not_found", "invalid_parent"
		GeneratePathDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gazetteer_geo_generate_path_duration_seconds",
			Help:    "Duration of full path generation including validation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementPathGenerated records a successful path generation.
func (m *Metrics) IncrementPathGenerated(country string) {
	if m != nil {
		m.PathsGenerated.WithLabelValues(country).Inc()
	}
}

// IncrementCacheHit records a path cache hit.
func (m *Metrics) IncrementCacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

// IncrementCacheMiss records a path cache miss.
func (m *Metrics) IncrementCacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

// IncrementValidateError records a validation failure by reason.
func (m *Metrics) IncrementValidateError(reason string) {
	if m != nil {
		m.ValidateErrors.WithLabelValues(reason).Inc()
	}
}

// ObserveGeneratePath records the duration of a path generation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveGeneratePath(start time.Time) {
	if m != nil {
		m.GeneratePathDuration.Observe(time.Since(start).Seconds())
	}
}
