package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the candidate review module.
type Metrics struct {
	Submissions    *prometheus.CounterVec
	Transitions    *prometheus.CounterVec
	AutoReview     prometheus.Counter
	SubmitDuration prometheus.Histogram
}

// New creates a new Metrics instance with all candidate module metrics registered.
func New() *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gazetteer_candidate_submissions_total",
			Help: "Total candidate submissions by best-match confidence band",
		}, []string{"band"}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gazetteer_candidate_transitions_total",
			Help: "Total review workflow transitions by action",
		}, []string{"action"}), // action: "begin_review", "approve_new", "merge", "reject"
		AutoReview: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gazetteer_candidate_auto_review_total",
			Help: "Total candidates auto-moved to review by a very-high match",
		}),
		SubmitDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gazetteer_candidate_submit_duration_seconds",
			Help:    "Duration of candidate submission including fuzzy matching",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementSubmission records a submission with its best-match band.
func (m *Metrics) IncrementSubmission(band string) {
	if m != nil {
		m.Submissions.WithLabelValues(band).Inc()
	}
}

// IncrementTransition records a workflow transition.
func (m *Metrics) IncrementTransition(action string) {
	if m != nil {
		m.Transitions.WithLabelValues(action).Inc()
	}
}

// IncrementAutoReview records an automatic Pending to UnderReview move.
func (m *Metrics) IncrementAutoReview() {
	if m != nil {
		m.AutoReview.Inc()
	}
}

// ObserveSubmit records the duration of a submission.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSubmit(start time.Time) {
	if m != nil {
		m.SubmitDuration.Observe(time.Since(start).Seconds())
	}
}
