package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "tweetdex"

// Judge Prometheus metrics.
var (
	JudgeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "judge_requests_total",
			Help:      "Total number of relevance judge requests",
		},
		[]string{"model", "status"},
	)

	JudgeRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "judge_request_duration_seconds",
			Help:      "Relevance judge request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"model"},
	)

	JudgeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "judge_errors_total",
			Help:      "Total relevance judge errors",
		},
		[]string{"model", "error_type"},
	)

	// JudgeEntriesTotal counts candidates the judge scored or left out.
	JudgeEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "judge_entries_total",
			Help:      "Candidates scored or omitted by the relevance judge",
		},
		[]string{"result"}, // "scored" / "missing"
	)
)

// Search pipeline Prometheus metrics.
var (
	SearchStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_stage_duration_seconds",
			Help:      "Duration of each search pipeline stage in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"stage"},
	)

	SearchCandidates = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_candidates",
			Help:      "Number of candidates per source",
			Buckets:   []float64{0, 10, 25, 50, 100, 150, 200, 300},
		},
		[]string{"source"}, // "lexical" / "semantic" / "fused"
	)

	RateLimitRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejected_total",
			Help:      "Requests rejected by the per-client rate limiter",
		},
	)

	IngestRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_rows_total",
			Help:      "Rows read by ingestion",
		},
		[]string{"result"}, // "ingested" / "skipped"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers judge, search, rate limit, and ingest metrics.
// Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(JudgeRequestsTotal)
	prometheus.MustRegister(JudgeRequestDuration)
	prometheus.MustRegister(JudgeErrorsTotal)
	prometheus.MustRegister(JudgeEntriesTotal)
	prometheus.MustRegister(SearchStageDuration)
	prometheus.MustRegister(SearchCandidates)
	prometheus.MustRegister(RateLimitRejectedTotal)
	prometheus.MustRegister(IngestRowsTotal)
	searchMetricsRegistered = true
}
