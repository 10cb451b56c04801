package prometheus

import (
	"fmt"
	"time"
)

// Item outcomes recorded per stage.
const (
	StatusSucceeded = "succeeded"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// PipelineMetrics holds all protflow metrics.  A nil *PipelineMetrics is valid
// and records nothing.
type PipelineMetrics struct {
	// Stages
	StageItemsTotal CounterVec
	StageDuration   HistogramVec

	// External tools
	ToolInvocationsTotal CounterVec
	ToolDuration         HistogramVec
	ToolAvailable        GaugeVec

	// Docking
	BestAffinity GaugeVec

	// Sinks
	SinkErrorsTotal CounterVec

	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
}

// Default Buckets
var (
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultToolDurationBuckets  = []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300, 600}
	DefaultStageDurationBuckets = []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600, 7200}
)

// NewPipelineMetrics registers all metrics and returns PipelineMetrics.
func NewPipelineMetrics(collector MetricsCollector) *PipelineMetrics {
	m := &PipelineMetrics{}

	m.StageItemsTotal = collector.RegisterCounter("stage_items_total", "Items processed per stage by outcome", "stage", "status")
	m.StageDuration = collector.RegisterHistogram("stage_duration_seconds", "Stage wall-clock duration", DefaultStageDurationBuckets, "stage")

	m.ToolInvocationsTotal = collector.RegisterCounter("tool_invocations_total", "External tool invocations by outcome", "tool", "status")
	m.ToolDuration = collector.RegisterHistogram("tool_duration_seconds", "External tool invocation duration", DefaultToolDurationBuckets, "tool")
	m.ToolAvailable = collector.RegisterGauge("tool_available", "Tool availability (1=available, 0=missing)", "tool")

	m.BestAffinity = collector.RegisterGauge("best_affinity_kcal_mol", "Best docking affinity of the latest run", "ligand")

	m.SinkErrorsTotal = collector.RegisterCounter("sink_errors_total", "Failed deliveries to optional sinks", "sink")

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")

	return m
}

// Helpers

// RecordItem counts one stage item with its outcome.
func (m *PipelineMetrics) RecordItem(stage, status string) {
	if m == nil {
		return
	}
	m.StageItemsTotal.WithLabelValues(stage, status).Inc()
}

// RecordStage observes a stage's duration.
func (m *PipelineMetrics) RecordStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordTool counts a tool invocation and its duration.
func (m *PipelineMetrics) RecordTool(tool string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := StatusSucceeded
	if err != nil {
		status = StatusFailed
	}
	m.ToolInvocationsTotal.WithLabelValues(tool, status).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// SetToolAvailable records a probe outcome.
func (m *PipelineMetrics) SetToolAvailable(tool string, available bool) {
	if m == nil {
		return
	}
	v := 0.0
	if available {
		v = 1
	}
	m.ToolAvailable.WithLabelValues(tool).Set(v)
}

// SetBestAffinity records the best affinity for ligand.
func (m *PipelineMetrics) SetBestAffinity(ligand string, affinity float64) {
	if m == nil {
		return
	}
	m.BestAffinity.WithLabelValues(ligand).Set(affinity)
}

// RecordSinkError counts a failed delivery to sink.
func (m *PipelineMetrics) RecordSinkError(sink string) {
	if m == nil {
		return
	}
	m.SinkErrorsTotal.WithLabelValues(sink).Inc()
}

// RecordHTTPRequest counts a served request.
func (m *PipelineMetrics) RecordHTTPRequest(method, path string, statusCode int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, fmt.Sprintf("%d", statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

//Personal.AI order the ending
