// Package metrics defines the Prometheus instruments of the service
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PipelineRuns counts pipeline invocations by outcome
	// ("ok", "no_ocean_vessels", "error")
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mpawatch_pipeline_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	// StageDuration observes how long each pipeline stage takes
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mpawatch_pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"stage"}, // "validate", "ocean_filter", "classify", "assign_status"
	)

	// StageRecords counts records leaving each stage
	StageRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mpawatch_pipeline_stage_records_total",
			Help: "Total number of records produced by each pipeline stage",
		},
		[]string{"stage"},
	)

	// IllegalRecords counts final records by illegal status
	IllegalRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mpawatch_illegal_records_total",
			Help: "Total number of classified records by illegal status",
		},
		[]string{"illegal"},
	)

	// UpstreamRequests counts event API calls by result
	// ("ok", "http_error", "transport_error", "circuit_open")
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mpawatch_upstream_requests_total",
			Help: "Total number of upstream event API requests by result",
		},
		[]string{"result"},
	)
)
