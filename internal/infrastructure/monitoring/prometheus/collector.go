// Package prometheus wraps client_golang behind small interfaces so pipeline
// stages can record metrics without depending on a live registry.  A no-op
// collector is used when metrics are disabled.
package prometheus

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/turtacn/protflow/internal/infrastructure/monitoring/logging"
)

// MetricsCollector registers labelled metrics and serves them.
type MetricsCollector interface {
	RegisterCounter(name, help string, labels ...string) CounterVec
	RegisterGauge(name, help string, labels ...string) GaugeVec
	RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec
	Handler() http.Handler
}

// CounterVec yields the counter for one label combination.
type CounterVec interface {
	WithLabelValues(lvs ...string) Counter
}

// Counter only goes up.
type Counter interface {
	Inc()
	Add(delta float64)
}

// GaugeVec yields the gauge for one label combination.
type GaugeVec interface {
	WithLabelValues(lvs ...string) Gauge
}

// Gauge holds the last value set.
type Gauge interface {
	Set(value float64)
}

// HistogramVec yields the histogram for one label combination.
type HistogramVec interface {
	WithLabelValues(lvs ...string) Histogram
}

// Histogram records observations into buckets.
type Histogram interface {
	Observe(value float64)
}

// CollectorConfig holds configuration for the collector.
type CollectorConfig struct {
	Namespace            string
	Subsystem            string
	EnableProcessMetrics bool
	EnableGoMetrics      bool
}

// DefaultCollectorConfig returns the collector settings used by protflow.
func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		Namespace:       "protflow",
		EnableGoMetrics: true,
	}
}

// registryCollector backs MetricsCollector with a private registry.  Vectors
// are keyed by fully qualified name so repeated registration shares one
// vector.
type registryCollector struct {
	registry *prometheus.Registry
	config   CollectorConfig
	logger   logging.Logger

	mu   sync.Mutex
	vecs map[string]prometheus.Collector
}

// NewMetricsCollector creates a MetricsCollector with its own registry.
func NewMetricsCollector(cfg CollectorConfig, logger logging.Logger) (MetricsCollector, error) {
	if cfg.Namespace == "" {
		return nil, fmt.Errorf("namespace is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	registry := prometheus.NewRegistry()
	if cfg.EnableProcessMetrics {
		registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: cfg.Namespace}))
	}
	if cfg.EnableGoMetrics {
		registry.MustRegister(prometheus.NewGoCollector())
	}

	return &registryCollector{
		registry: registry,
		config:   cfg,
		logger:   logger,
		vecs:     make(map[string]prometheus.Collector),
	}, nil
}

func (c *registryCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// register returns the vector already registered under name, or registers
// fresh.  ok is false on a registry error or when name holds another kind.
func register[V prometheus.Collector](c *registryCollector, kind, name string, fresh V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fq := prometheus.BuildFQName(c.config.Namespace, c.config.Subsystem, name)
	if existing, found := c.vecs[fq]; found {
		v, ok := existing.(V)
		if !ok {
			c.logger.Warn("metric type mismatch", logging.String("name", fq), logging.String("type", kind))
		}
		return v, ok
	}
	if err := c.registry.Register(fresh); err != nil {
		c.logger.Error("failed to register metric", logging.String("name", fq), logging.String("type", kind), logging.Error(err))
		var zero V
		return zero, false
	}
	c.vecs[fq] = fresh
	return fresh, true
}

func (c *registryCollector) RegisterCounter(name, help string, labels ...string) CounterVec {
	vec, ok := register(c, "counter", name, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.config.Namespace, Subsystem: c.config.Subsystem, Name: name, Help: help,
	}, labels))
	if !ok {
		return noopCounters{}
	}
	return counterVec{vec}
}

func (c *registryCollector) RegisterGauge(name, help string, labels ...string) GaugeVec {
	vec, ok := register(c, "gauge", name, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: c.config.Namespace, Subsystem: c.config.Subsystem, Name: name, Help: help,
	}, labels))
	if !ok {
		return noopGauges{}
	}
	return gaugeVec{vec}
}

// RegisterHistogram uses DefaultToolDurationBuckets when buckets is nil.
func (c *registryCollector) RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec {
	if buckets == nil {
		buckets = DefaultToolDurationBuckets
	}
	vec, ok := register(c, "histogram", name, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.config.Namespace, Subsystem: c.config.Subsystem, Name: name, Help: help, Buckets: buckets,
	}, labels))
	if !ok {
		return noopHistograms{}
	}
	return histogramVec{vec}
}

type counterVec struct{ vec *prometheus.CounterVec }

func (v counterVec) WithLabelValues(lvs ...string) Counter { return v.vec.WithLabelValues(lvs...) }

type gaugeVec struct{ vec *prometheus.GaugeVec }

func (v gaugeVec) WithLabelValues(lvs ...string) Gauge { return v.vec.WithLabelValues(lvs...) }

type histogramVec struct{ vec *prometheus.HistogramVec }

func (v histogramVec) WithLabelValues(lvs ...string) Histogram { return v.vec.WithLabelValues(lvs...) }

// noopMetric satisfies Counter, Gauge and Histogram and records nothing.
type noopMetric struct{}

func (noopMetric) Inc()            {}
func (noopMetric) Add(float64)     {}
func (noopMetric) Set(float64)     {}
func (noopMetric) Observe(float64) {}

type noopCounters struct{}

func (noopCounters) WithLabelValues(...string) Counter { return noopMetric{} }

type noopGauges struct{}

func (noopGauges) WithLabelValues(...string) Gauge { return noopMetric{} }

type noopHistograms struct{}

func (noopHistograms) WithLabelValues(...string) Histogram { return noopMetric{} }

// noopCollector discards every observation.
type noopCollector struct{}

// NewNoopCollector returns a MetricsCollector whose metrics discard all
// observations and whose Handler serves 404.
func NewNoopCollector() MetricsCollector { return noopCollector{} }

func (noopCollector) RegisterCounter(string, string, ...string) CounterVec { return noopCounters{} }
func (noopCollector) RegisterGauge(string, string, ...string) GaugeVec     { return noopGauges{} }
func (noopCollector) RegisterHistogram(string, string, []float64, ...string) HistogramVec {
	return noopHistograms{}
}
func (noopCollector) Handler() http.Handler { return http.NotFoundHandler() }

//Personal.AI order the ending
