// Package metrics provides Prometheus metrics for covtrace.
//
// A batch has one collector. Counters advance as capture runs finish;
// gauges track batch progress and scratch-space pressure. Metrics are
// exposed over the optional /metrics listener and can be written to a
// node_exporter textfile on exit.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// --- Batch overview ---
var (
	covtraceInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "covtrace_info",
			Help: "Information about the capture batch (value always 1)",
		},
		[]string{"version", "target", "simulator"},
	)

	covtraceTargetExecutables = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "covtrace_target_executables",
			Help: "Number of executables requested on the command line",
		},
	)

	covtraceBatchElapsedSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "covtrace_batch_elapsed_seconds",
			Help: "Seconds since the batch started",
		},
	)
)

// --- Run outcomes ---
var (
	covtraceRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covtrace_runs_total",
			Help: "Completed capture runs by result",
		},
		[]string{"result"}, // "ok" | "failed"
	)

	covtraceRunDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "covtrace_run_duration_seconds",
			Help: "Wall-clock duration of one capture run",
			Buckets: []float64{
				0.1, 0.25, 0.5, 1, 2.5, 5,
				10, 30, 60, 120, 300,
			},
		},
	)

	// Pre-calculated percentiles (convenience for simple panels)
	covtraceRunDurationP50Seconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "covtrace_run_duration_p50_seconds",
			Help: "Run duration 50th percentile (median)",
		},
	)

	covtraceRunDurationP95Seconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "covtrace_run_duration_p95_seconds",
			Help: "Run duration 95th percentile",
		},
	)

	covtraceRunDurationP99Seconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "covtrace_run_duration_p99_seconds",
			Help: "Run duration 99th percentile",
		},
	)
)

// --- Trace artifacts ---
var (
	covtraceTraceRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "covtrace_trace_records_total",
			Help: "Total trace records written across all artifacts",
		},
	)

	covtraceTraceBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "covtrace_trace_bytes_total",
			Help: "Total artifact bytes written",
		},
	)
)

// --- Scratch space ---
var (
	covtraceTempFilesLive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "covtrace_temp_files_live",
			Help: "Capture files currently registered for cleanup",
		},
	)
)

// Collector manages all Prometheus metrics for a capture batch.
type Collector struct {
	version   string
	target    string
	simulator string

	targetCount int
	startTime   time.Time

	mu         sync.Mutex
	okRuns     int64
	failedRuns int64
}

// CollectorConfig holds configuration for the collector.
type CollectorConfig struct {
	Version     string
	Target      string
	Simulator   string
	TargetCount int
}

// NewCollector creates a collector on the default registry.
func NewCollector(cfg CollectorConfig) *Collector {
	return NewCollectorWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry creates a collector with a custom registry.
// Useful for testing.
func NewCollectorWithRegistry(cfg CollectorConfig, registry prometheus.Registerer) *Collector {
	c := &Collector{
		version:     cfg.Version,
		target:      cfg.Target,
		simulator:   cfg.Simulator,
		targetCount: cfg.TargetCount,
		startTime:   time.Now(),
	}

	registry.MustRegister(
		// Batch overview
		covtraceInfo,
		covtraceTargetExecutables,
		covtraceBatchElapsedSeconds,

		// Run outcomes
		covtraceRunsTotal,
		covtraceRunDurationSeconds,
		covtraceRunDurationP50Seconds,
		covtraceRunDurationP95Seconds,
		covtraceRunDurationP99Seconds,

		// Trace artifacts
		covtraceTraceRecordsTotal,
		covtraceTraceBytesTotal,

		// Scratch space
		covtraceTempFilesLive,
	)

	// Set initial values
	covtraceInfo.WithLabelValues(cfg.Version, cfg.Target, cfg.Simulator).Set(1)
	covtraceTargetExecutables.Set(float64(cfg.TargetCount))

	return c
}

// =============================================================================
// Update Methods
// =============================================================================

// RunUpdate holds one finished run for metric recording.
// This is a subset of stats.RunResult to avoid a stats dependency.
type RunUpdate struct {
	OK         bool
	Duration   time.Duration
	Records    int
	TraceBytes int64
}

// RecordRun advances the run counters for one finished run.
func (c *Collector) RecordRun(u RunUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if u.OK {
		covtraceRunsTotal.WithLabelValues("ok").Inc()
		c.okRuns++
	} else {
		covtraceRunsTotal.WithLabelValues("failed").Inc()
		c.failedRuns++
	}

	covtraceRunDurationSeconds.Observe(u.Duration.Seconds())

	if u.Records > 0 {
		covtraceTraceRecordsTotal.Add(float64(u.Records))
	}
	if u.TraceBytes > 0 {
		covtraceTraceBytesTotal.Add(float64(u.TraceBytes))
	}
}

// BatchUpdate holds batch-wide gauge values.
type BatchUpdate struct {
	DurationP50   time.Duration
	DurationP95   time.Duration
	DurationP99   time.Duration
	LiveTempFiles int
}

// RecordBatch refreshes the batch gauges.
func (c *Collector) RecordBatch(u BatchUpdate) {
	covtraceBatchElapsedSeconds.Set(time.Since(c.startTime).Seconds())
	covtraceRunDurationP50Seconds.Set(u.DurationP50.Seconds())
	covtraceRunDurationP95Seconds.Set(u.DurationP95.Seconds())
	covtraceRunDurationP99Seconds.Set(u.DurationP99.Seconds())
	covtraceTempFilesLive.Set(float64(u.LiveTempFiles))
}

// RunCounts returns the ok and failed run counts recorded so far.
func (c *Collector) RunCounts() (ok, failed int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.okRuns, c.failedRuns
}

// StartTime returns when the collector was created.
func (c *Collector) StartTime() time.Time {
	return c.startTime
}
