// Package metrics defines meetingd's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "meetingd"

// Metrics holds pipeline and retrieval counters.
type Metrics struct {
	MeetingsProcessed  prometheus.Counter
	DuplicatesSkipped  prometheus.Counter
	PipelineFailures   prometheus.Counter
	ExtractionFallback prometheus.Counter
	HookFailures       prometheus.Counter
	QuestionsAnswered  prometheus.Counter
}

// New registers the meetingd collectors with reg. Tests pass a fresh
// prometheus.NewRegistry to avoid duplicate registration panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MeetingsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meetings_processed_total",
			Help:      "Meetings fully processed into the knowledge base.",
		}),
		DuplicatesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_submissions_total",
			Help:      "Submissions short-circuited by the dedup ledger.",
		}),
		PipelineFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_failures_total",
			Help:      "Pipeline runs aborted after passing the dedup gate.",
		}),
		ExtractionFallback: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_fallbacks_total",
			Help:      "Extraction calls degraded to an empty summary.",
		}),
		HookFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hook_failures_total",
			Help:      "Post-process hook errors (caught, not propagated).",
		}),
		QuestionsAnswered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_answered_total",
			Help:      "Retrieval QA questions answered.",
		}),
	}
}
