// Package observability holds the Prometheus collectors for the service.
// Nothing here is persisted; counters reset with the process.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetpilot_uploads_total",
			Help: "Total number of spreadsheet uploads by category",
		},
		[]string{"kind"},
	)

	AnswersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetpilot_answers_total",
			Help: "Total number of answer requests by outcome",
		},
		[]string{"outcome"},
	)

	AnswerDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "sheetpilot_answer_duration_seconds",
			Help: "End-to-end duration of answer requests in seconds",
		},
	)

	FilterDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "sheetpilot_filter_duration_seconds",
			Help: "Duration of one workbook load-and-filter pass in seconds",
		},
	)

	FilterCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetpilot_filter_cache_lookups_total",
			Help: "Filter cache lookups by result",
		},
		[]string{"result"},
	)

	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetpilot_answer_tokens_total",
			Help: "Token usage reported by the answering service",
		},
		[]string{"direction"},
	)
)
