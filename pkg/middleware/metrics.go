package middleware

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yme-dev/pagegen/internal/errors"
	"github.com/yme-dev/pagegen/pkg/pages"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "pagegen").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for stage duration.
	// Default: buckets from 100µs to ~1.6s, scans are fast.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:   "pagegen",
		Subsystem:   "",
		ConstLabels: nil,
		Buckets:     prometheus.ExponentialBuckets(0.0001, 2, 15),
		Registry:    prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus metrics for the pipeline.
type metrics struct {
	stageRuns     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec
	pagesFound    prometheus.Gauge
	subBundles    prometheus.Gauge
	regenerations *prometheus.CounterVec
	watchClients  prometheus.Gauge
}

// globalMetrics is the singleton metrics instance.
// Created on first call to Prometheus().
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

// initMetrics initializes the Prometheus metrics.
func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		stageRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stage_runs_total",
			Help:        "Total number of pipeline stage runs",
			ConstLabels: config.ConstLabels,
		}, []string{"stage", "status"}),

		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stage_duration_seconds",
			Help:        "Pipeline stage duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"stage"}),

		stageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stage_errors_total",
			Help:        "Total number of failed stage runs by error code",
			ConstLabels: config.ConstLabels,
		}, []string{"stage", "code"}),

		pagesFound: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pages_discovered",
			Help:        "Number of pages found by the last scan",
			ConstLabels: config.ConstLabels,
		}),

		subBundles: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sub_bundles",
			Help:        "Number of sub-bundles produced by the last run",
			ConstLabels: config.ConstLabels,
		}),

		regenerations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "regenerations_total",
			Help:        "Total number of watch-triggered runs",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		watchClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "event_clients",
			Help:        "Number of connected event stream clients",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Prometheus creates middleware that collects Prometheus metrics for every
// pipeline stage.
//
// Metrics collected:
//   - pagegen_stage_runs_total: Counter of stage runs by stage and status
//   - pagegen_stage_duration_seconds: Histogram of stage duration
//   - pagegen_stage_errors_total: Counter of failed stages by stage and error code
//   - pagegen_pages_discovered: Gauge of pages found by the last scan
//   - pagegen_sub_bundles: Gauge of sub-bundles produced by the last group stage
//   - pagegen_regenerations_total: Counter of watch runs (when RecordRegeneration is called)
//   - pagegen_event_clients: Gauge of event stream clients
//
// Example:
//
//	res, err := pages.Generate(ctx, pages.Options{
//	    Middleware: []pages.Middleware{
//	        middleware.Prometheus(middleware.WithNamespace("myapp")),
//	    },
//	})
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) pages.Middleware {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// Initialize metrics once
	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return pages.MiddlewareFunc(func(stage *pages.Stage, next func() error) error {
		name := string(stage.Name)

		start := time.Now()
		err := next()
		m.stageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

		status := "success"
		if err != nil {
			status = "error"
			m.stageErrors.WithLabelValues(name, errorCode(err)).Inc()
		}
		m.stageRuns.WithLabelValues(name, status).Inc()

		if err == nil && stage.Result != nil {
			switch stage.Name {
			case pages.StageScan:
				m.pagesFound.Set(float64(len(stage.Result.Pages)))
			case pages.StageGroup:
				m.subBundles.Set(float64(len(stage.Result.SubBundles)))
			}
		}

		return err
	})
}

// errorCode returns the error code used as label.
// Uncoded errors share one value to keep cardinality bounded.
func errorCode(err error) string {
	if code := errors.CodeOf(err); code != "" {
		return code
	}
	return "unknown"
}

// RecordRegeneration records one watch-triggered run.
func RecordRegeneration(err error) {
	if globalMetrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	globalMetrics.regenerations.WithLabelValues(status).Inc()
}

// RecordClientConnect records a new event stream client.
func RecordClientConnect() {
	if globalMetrics != nil {
		globalMetrics.watchClients.Inc()
	}
}

// RecordClientDisconnect records an event stream client going away.
func RecordClientDisconnect() {
	if globalMetrics != nil {
		globalMetrics.watchClients.Dec()
	}
}

// Collector exposes the metrics for use in custom registrations and tests.
type Collector struct {
	StageRuns     *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	StageErrors   *prometheus.CounterVec
	PagesFound    prometheus.Gauge
	SubBundles    prometheus.Gauge
	Regenerations *prometheus.CounterVec
	EventClients  prometheus.Gauge
}

// GetMetrics returns the global metrics collector.
// Returns nil if Prometheus middleware has not been initialized.
func GetMetrics() *Collector {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	if globalMetrics == nil {
		return nil
	}
	return &Collector{
		StageRuns:     globalMetrics.stageRuns,
		StageDuration: globalMetrics.stageDuration,
		StageErrors:   globalMetrics.stageErrors,
		PagesFound:    globalMetrics.pagesFound,
		SubBundles:    globalMetrics.subBundles,
		Regenerations: globalMetrics.regenerations,
		EventClients:  globalMetrics.watchClients,
	}
}
