// Package metrics provides Prometheus metrics export for the response
// resolution pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusExporter exports pipeline metrics in Prometheus format.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// Resolution metrics
	resolutions       *prometheus.CounterVec
	resolutionLatency *prometheus.HistogramVec
	activeSessions    prometheus.Gauge

	// Safety metrics
	crisisDetections *prometheus.CounterVec
	toxicityBlocks   prometheus.Counter

	// Cache metrics
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// LLM metrics
	llmTokensUsed *prometheus.CounterVec
	llmLatency    *prometheus.HistogramVec
	llmErrors     *prometheus.CounterVec

	// Validator metrics
	validatorRejections *prometheus.CounterVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solace",
			Subsystem: "pipeline",
			Name:      "resolutions_total",
			Help:      "Total resolved turns, labeled by terminal stage",
		},
		[]string{"stage"},
	)

	e.resolutionLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "solace",
			Subsystem: "pipeline",
			Name:      "resolution_latency_seconds",
			Help:      "End-to-end resolution latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"stage"},
	)

	e.activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "solace",
			Subsystem: "pipeline",
			Name:      "active_sessions",
			Help:      "Number of tracked conversation sessions",
		},
	)

	e.crisisDetections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solace",
			Subsystem: "safety",
			Name:      "crisis_detections_total",
			Help:      "Total crisis detections, labeled by detection source",
		},
		[]string{"source"},
	)

	e.toxicityBlocks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "solace",
			Subsystem: "safety",
			Name:      "toxicity_blocks_total",
			Help:      "Total inputs blocked by the toxicity classifier",
		},
	)

	e.cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solace",
			Subsystem: "memory",
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	e.cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solace",
			Subsystem: "memory",
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	e.llmTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solace",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"model", "token_type"},
	)

	e.llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "solace",
			Subsystem: "llm",
			Name:      "latency_seconds",
			Help:      "LLM request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"model", "provider"},
	)

	e.llmErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solace",
			Subsystem: "llm",
			Name:      "errors_total",
			Help:      "Total LLM call failures",
		},
		[]string{"model", "error_type"},
	)

	e.validatorRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solace",
			Subsystem: "validator",
			Name:      "rejections_total",
			Help:      "Total generative replies rejected by the validator",
		},
		[]string{"reason"},
	)

	registry.MustRegister(
		e.resolutions,
		e.resolutionLatency,
		e.activeSessions,
		e.crisisDetections,
		e.toxicityBlocks,
		e.cacheHits,
		e.cacheMisses,
		e.llmTokensUsed,
		e.llmLatency,
		e.llmErrors,
		e.validatorRejections,
	)

	return e
}

// RecordResolution records one resolved turn.
func (e *PrometheusExporter) RecordResolution(stage string, latency time.Duration) {
	e.resolutions.WithLabelValues(stage).Inc()
	e.resolutionLatency.WithLabelValues(stage).Observe(latency.Seconds())
}

// RecordCrisisDetection records a crisis detection by source
// ("pattern" or "toxicity").
func (e *PrometheusExporter) RecordCrisisDetection(source string) {
	e.crisisDetections.WithLabelValues(source).Inc()
}

// RecordToxicityBlock records an input blocked by the toxicity classifier.
func (e *PrometheusExporter) RecordToxicityBlock() {
	e.toxicityBlocks.Inc()
}

// RecordCacheHit records a cache hit.
func (e *PrometheusExporter) RecordCacheHit(cacheType string) {
	e.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss.
func (e *PrometheusExporter) RecordCacheMiss(cacheType string) {
	e.cacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordLLMTokens records LLM token usage.
func (e *PrometheusExporter) RecordLLMTokens(model, tokenType string, count int) {
	e.llmTokensUsed.WithLabelValues(model, tokenType).Add(float64(count))
}

// RecordLLMLatency records LLM request latency.
func (e *PrometheusExporter) RecordLLMLatency(model, provider string, latency time.Duration) {
	e.llmLatency.WithLabelValues(model, provider).Observe(latency.Seconds())
}

// RecordLLMError records an LLM call failure.
func (e *PrometheusExporter) RecordLLMError(model, errorType string) {
	e.llmErrors.WithLabelValues(model, errorType).Inc()
}

// RecordValidatorRejection records a rejected generative reply.
func (e *PrometheusExporter) RecordValidatorRejection(reason string) {
	e.validatorRejections.WithLabelValues(reason).Inc()
}

// SetActiveSessions sets the number of tracked sessions.
func (e *PrometheusExporter) SetActiveSessions(count int) {
	e.activeSessions.Set(float64(count))
}

// Handler returns the HTTP handler for the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry.
func (e *PrometheusExporter) Registry() *prometheus.Registry {
	return e.registry
}
