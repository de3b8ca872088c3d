package metrics

import "github.com/prometheus/client_golang/prometheus"

// LLM transport metrics. Registered explicitly from the composition root
// (no init()) so tests can construct clients without touching the default
// registry.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studyvault",
			Name:      "embedding_requests_total",
			Help:      "Total embedding API requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "studyvault",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding API request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)

	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studyvault",
			Name:      "generation_requests_total",
			Help:      "Total chat completion API requests",
		},
		[]string{"model", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "studyvault",
			Name:      "generation_request_duration_seconds",
			Help:      "Chat completion API request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	NotesJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studyvault",
			Name:      "notes_jobs_total",
			Help:      "Notes jobs by terminal outcome",
		},
		[]string{"outcome"},
	)

	NotesChunksSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "studyvault",
			Name:      "notes_chunks_skipped_total",
			Help:      "Chunks dropped after a failed parse retry",
		},
	)
)

var llmRegistered bool

// RegisterLLMMetrics registers LLM and pipeline metrics with the default
// registry. Safe to call once from main.
func RegisterLLMMetrics() {
	if llmRegistered {
		return
	}
	llmRegistered = true
	prometheus.MustRegister(
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		GenerationRequestsTotal,
		GenerationRequestDuration,
		NotesJobsTotal,
		NotesChunksSkippedTotal,
	)
}
