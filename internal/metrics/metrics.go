// Package metrics exposes the service's prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_http_requests_total",
			Help: "Total number of HTTP requests by route and status class",
		},
		[]string{"route", "status"},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "advisor_pipeline_duration_seconds",
			Help: "Duration of the filter-and-rank pipeline",
		},
	)

	TaxCalculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_tax_calculations_total",
			Help: "Total number of tax calculations by regime and outcome",
		},
		[]string{"regime", "outcome"},
	)
)
