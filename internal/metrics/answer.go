package metrics

import "github.com/prometheus/client_golang/prometheus"

// Answer routing and generation metrics.
var (
	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "faqdex",
			Name:      "answers_total",
			Help:      "Answered questions by routed outcome",
		},
		[]string{"outcome"}, // direct / generated / fallback / error
	)

	MatchScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "faqdex",
			Name:      "match_score",
			Help:      "Best-match cosine similarity per question",
			Buckets:   []float64{0, 0.3, 0.5, 0.6, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1},
		},
	)

	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "faqdex",
			Name:      "generation_requests_total",
			Help:      "Generation backend calls",
		},
		[]string{"backend", "mode", "status"}, // status: ok / error / empty / timeout / rate_limited
	)

	GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "faqdex",
			Name:      "generation_duration_seconds",
			Help:      "Generation backend call duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"backend", "mode"},
	)

	CorpusRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "faqdex",
			Name:      "corpus_records",
			Help:      "Number of Q&A records loaded",
		},
	)
)

var answerMetricsRegistered bool

// RegisterAnswerMetrics registers answer and generation metrics. Must be called once from main.
func RegisterAnswerMetrics() {
	if answerMetricsRegistered {
		return
	}
	prometheus.MustRegister(AnswersTotal)
	prometheus.MustRegister(MatchScore)
	prometheus.MustRegister(GenerationRequestsTotal)
	prometheus.MustRegister(GenerationDuration)
	prometheus.MustRegister(CorpusRecords)
	answerMetricsRegistered = true
}
