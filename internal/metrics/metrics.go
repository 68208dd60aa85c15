// Package metrics defines the Prometheus instruments shared across the
// enrichment pipeline and providers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every instrument the service registers. A nil *Metrics is
// valid everywhere and records nothing, which keeps tests quiet.
type Metrics struct {
	CommentsProcessed  prometheus.Counter
	CommentsFailed     prometheus.Counter
	SignalsWritten     prometheus.Counter
	Escalations        prometheus.Counter
	ProviderFallbacks  prometheus.Counter
	ReviewQueued       prometheus.Counter
	SubjectsDiscovered prometheus.Counter
	ProviderLatency    *prometheus.HistogramVec
}

// New builds and registers the instrument set against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CommentsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sentiment",
			Name:      "comments_processed_total",
			Help:      "Comments fully enriched.",
		}),
		CommentsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sentiment",
			Name:      "comments_failed_total",
			Help:      "Comments whose enrichment failed.",
		}),
		SignalsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sentiment",
			Name:      "signals_written_total",
			Help:      "Signal rows created or updated.",
		}),
		Escalations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sentiment",
			Name:      "provider_escalations_total",
			Help:      "Comments escalated from the lexicon to the model provider.",
		}),
		ProviderFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sentiment",
			Name:      "provider_fallbacks_total",
			Help:      "Escalations that fell back to the lexicon result.",
		}),
		ReviewQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sentiment",
			Name:      "review_queued_total",
			Help:      "Mention resolutions routed to the review queue.",
		}),
		SubjectsDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sentiment",
			Name:      "subjects_discovered_total",
			Help:      "Mentions registered with the discovered-subject tracker.",
		}),
		ProviderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sentiment",
			Name:      "provider_latency_seconds",
			Help:      "Provider scoring latency by provider name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
	}

	reg.MustRegister(
		m.CommentsProcessed,
		m.CommentsFailed,
		m.SignalsWritten,
		m.Escalations,
		m.ProviderFallbacks,
		m.ReviewQueued,
		m.SubjectsDiscovered,
		m.ProviderLatency,
	)

	return m
}

// IncEscalations is nil-safe.
func (m *Metrics) IncEscalations() {
	if m != nil {
		m.Escalations.Inc()
	}
}

// IncProviderFallbacks is nil-safe.
func (m *Metrics) IncProviderFallbacks() {
	if m != nil {
		m.ProviderFallbacks.Inc()
	}
}

// IncCommentsProcessed is nil-safe.
func (m *Metrics) IncCommentsProcessed() {
	if m != nil {
		m.CommentsProcessed.Inc()
	}
}

// IncCommentsFailed is nil-safe.
func (m *Metrics) IncCommentsFailed() {
	if m != nil {
		m.CommentsFailed.Inc()
	}
}

// AddSignalsWritten is nil-safe.
func (m *Metrics) AddSignalsWritten(n int) {
	if m != nil && n > 0 {
		m.SignalsWritten.Add(float64(n))
	}
}

// IncReviewQueued is nil-safe.
func (m *Metrics) IncReviewQueued() {
	if m != nil {
		m.ReviewQueued.Inc()
	}
}

// IncSubjectsDiscovered is nil-safe.
func (m *Metrics) IncSubjectsDiscovered() {
	if m != nil {
		m.SubjectsDiscovered.Inc()
	}
}

// ObserveProviderLatency is nil-safe.
func (m *Metrics) ObserveProviderLatency(provider string, seconds float64) {
	if m != nil {
		m.ProviderLatency.WithLabelValues(provider).Observe(seconds)
	}
}
