// Package metrics provides Prometheus metrics for the exoscan prediction
// service. It covers the ensemble engine (predictions, row failures,
// validation findings, scoring latency), batch processing, and model store
// health, exposed via the Prometheus metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the prediction service.
type Metrics struct {
	// Engine metrics
	Predictions        prometheus.Counter   // Total successful predictions
	RowFailures        prometheus.Counter   // Total per-row scoring failures
	DegradedRequests   prometheus.Counter   // Predictions short-circuited by a degraded store
	ValidationWarnings prometheus.Counter   // Total advisory validation warnings emitted
	ScoreLatency       prometheus.Histogram // Single-observation pipeline latency in seconds

	// Batch metrics
	BatchRows     prometheus.Counter   // Total rows processed through batches
	BatchDuration prometheus.Histogram // End-to-end batch duration in seconds

	// Model store metrics
	ModelAge   prometheus.Gauge // Seconds since the model store was loaded
	ModelReady prometheus.Gauge // 1 when the store is in Ready state, 0 otherwise

	// API metrics
	RequestsTotal prometheus.Counter // Total HTTP prediction requests served
	ErrorsTotal   prometheus.Counter // Total request handling errors
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry, keeping tests
// isolated from the global Prometheus state.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "exoscan_predictions_total",
			Help: "Total number of successful ensemble predictions",
		}),
		RowFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "exoscan_row_failures_total",
			Help: "Total number of per-observation scoring failures",
		}),
		DegradedRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "exoscan_degraded_requests_total",
			Help: "Predictions rejected because the model store is degraded",
		}),
		ValidationWarnings: factory.NewCounter(prometheus.CounterOpts{
			Name: "exoscan_validation_warnings_total",
			Help: "Advisory validation warnings attached to predictions",
		}),
		ScoreLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "exoscan_score_latency_seconds",
			Help:    "Latency of the single-observation prediction pipeline",
			Buckets: prometheus.DefBuckets,
		}),
		BatchRows: factory.NewCounter(prometheus.CounterOpts{
			Name: "exoscan_batch_rows_total",
			Help: "Total observations processed through batch requests",
		}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "exoscan_batch_duration_seconds",
			Help:    "End-to-end duration of batch processing runs",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "exoscan_model_age_seconds",
			Help: "Seconds since the model store was loaded",
		}),
		ModelReady: factory.NewGauge(prometheus.GaugeOpts{
			Name: "exoscan_model_ready",
			Help: "Whether the model store is in Ready state (1) or not (0)",
		}),
		RequestsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "exoscan_http_requests_total",
			Help: "Total HTTP prediction requests served",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "exoscan_http_errors_total",
			Help: "Total HTTP request handling errors",
		}),
	}
}
