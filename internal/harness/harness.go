// Package harness drives the capture pipeline across a batch of target
// executables, strictly one at a time.
package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/covtrace/covtrace/internal/config"
	"github.com/covtrace/covtrace/internal/digest"
	"github.com/covtrace/covtrace/internal/metrics"
	"github.com/covtrace/covtrace/internal/preflight"
	"github.com/covtrace/covtrace/internal/process"
	"github.com/covtrace/covtrace/internal/stats"
	"github.com/covtrace/covtrace/internal/target"
	"github.com/covtrace/covtrace/internal/tempfile"
	"github.com/covtrace/covtrace/internal/trace"
)

// Callbacks hook batch progress into the caller (dashboard updates,
// extra logging). Nil fields are skipped.
type Callbacks struct {
	OnRunStarted  func(exe string)
	OnRunFinished func(result stats.RunResult)
}

// Harness coordinates all components for one capture batch.
type Harness struct {
	config    *config.Config
	logger    *slog.Logger
	callbacks Callbacks

	table    *target.Table
	def      target.Definition
	registry *tempfile.Registry
	executor *process.Executor
	sim      *process.SimulatorRunner
	disasm   *process.DisasmRunner
	writer   *trace.Writer

	agg           *stats.Aggregator
	promRegistry  *prometheus.Registry
	collector     *metrics.Collector
	metricsServer *metrics.Server

	startTime time.Time
}

// New creates a Harness wired from the given configuration.
func New(cfg *config.Config, version string, logger *slog.Logger, callbacks Callbacks) (*Harness, error) {
	table := target.Builtin()
	if cfg.TargetsFile != "" {
		if err := table.Load(cfg.TargetsFile); err != nil {
			return nil, err
		}
	}
	def, err := table.Lookup(cfg.Target)
	if err != nil {
		return nil, err
	}

	sim := process.NewSimulatorRunner(&process.SimulatorConfig{
		Template: cfg.SimCommand,
		Timeout:  cfg.Timeout,
	})
	disasm := process.NewDisasmRunner(&process.DisasmConfig{
		Template: cfg.DisasmCommand,
	})

	// Each harness owns its metric registry, so batches in one process
	// never fight over collector registration.
	promRegistry := prometheus.NewRegistry()
	collector := metrics.NewCollectorWithRegistry(metrics.CollectorConfig{
		Version:     version,
		Target:      cfg.Target,
		Simulator:   sim.Name(),
		TargetCount: len(cfg.Executables),
	}, promRegistry)

	h := &Harness{
		config:       cfg,
		logger:       logger,
		callbacks:    callbacks,
		table:        table,
		def:          def,
		registry:     tempfile.NewRegistry(cfg.ScratchDir),
		executor:     process.NewExecutor(logger),
		sim:          sim,
		disasm:       disasm,
		writer:       trace.NewWriter(logger),
		agg:          stats.NewAggregator(),
		promRegistry: promRegistry,
		collector:    collector,
	}

	if cfg.MetricsAddr != "" {
		h.metricsServer = metrics.NewServer(cfg.MetricsAddr, promRegistry, logger)
	}

	return h, nil
}

// Run executes the batch. It blocks until every executable has been
// processed or ctx is cancelled. Per-run failures are recorded and the
// batch continues; only setup problems are returned as errors.
func (h *Harness) Run(ctx context.Context) error {
	h.startTime = time.Now()

	// Run preflight checks
	if !h.config.SkipPreflight {
		result := preflight.RunAll(preflight.Params{
			Target:        h.config.Target,
			KnownTargets:  h.table.Names(),
			SimCommand:    h.config.SimCommand,
			DisasmCommand: h.config.DisasmCommand,
			ScratchDir:    h.config.ScratchDir,
			Executables:   h.config.Executables,
		})
		preflight.PrintResults(result)
		if !result.Passed {
			return fmt.Errorf("preflight checks failed (use --skip-preflight to override)")
		}
	}

	// Start metrics server
	if h.metricsServer != nil {
		if err := h.metricsServer.Start(); err != nil {
			return err
		}
	}

	// Capture files die with the batch; kept ones survive.
	defer h.registry.Shutdown()

	h.logger.Info("batch_starting",
		"executables", len(h.config.Executables),
		"target", h.config.Target,
		"simulator", h.sim.Name(),
	)

	for completed, exe := range h.config.Executables {
		select {
		case <-ctx.Done():
			h.logger.Info("batch_cancelled",
				"completed", completed,
				"requested", len(h.config.Executables),
			)
			return h.finish()
		default:
		}

		h.runOne(ctx, exe)
	}

	snap := h.agg.Snapshot()
	h.logger.Info("batch_complete",
		"completed", snap.Completed,
		"ok", snap.OK,
		"failed", snap.Failed,
		"records", snap.TotalRecords,
	)

	return h.finish()
}

// runOne drives the pipeline for a single executable and records the
// outcome everywhere it is consumed.
func (h *Harness) runOne(ctx context.Context, exe string) {
	if h.callbacks.OnRunStarted != nil {
		h.callbacks.OnRunStarted(exe)
	}
	h.logger.Info("run_starting", "exe", exe)

	start := time.Now()
	result := h.capture(ctx, exe)
	result.Executable = exe
	result.Duration = time.Since(start)

	h.agg.Record(result)
	h.collector.RecordRun(metrics.RunUpdate{
		OK:         result.OK(),
		Duration:   result.Duration,
		Records:    result.Records,
		TraceBytes: result.TraceBytes,
	})

	snap := h.agg.Snapshot()
	h.collector.RecordBatch(metrics.BatchUpdate{
		DurationP50:   snap.DurationP50,
		DurationP95:   snap.DurationP95,
		DurationP99:   snap.DurationP99,
		LiveTempFiles: h.registry.Live(),
	})

	if result.OK() {
		h.logger.Info("run_complete",
			"exe", exe,
			"records", result.Records,
			"trace", result.TracePath,
			"duration", result.Duration.String(),
		)
	} else {
		h.logger.Warn("run_failed",
			"exe", exe,
			"error", result.Err,
			"duration", result.Duration.String(),
		)
	}

	if h.callbacks.OnRunFinished != nil {
		h.callbacks.OnRunFinished(result)
	}
}

// finish shuts down the metrics listener and writes the requested batch
// outputs.
func (h *Harness) finish() error {
	if h.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.metricsServer.Shutdown(shutdownCtx); err != nil {
			h.logger.Warn("metrics_server_shutdown_error", "error", err)
		}
	}

	var errs []error
	if h.config.TextfilePath != "" {
		if err := metrics.WriteTextfile(h.config.TextfilePath, h.promRegistry); err != nil {
			errs = append(errs, err)
		} else {
			h.logger.Info("textfile_written", "path", h.config.TextfilePath)
		}
	}
	if h.config.ManifestPath != "" {
		if err := h.writeManifest(); err != nil {
			errs = append(errs, err)
		} else {
			h.logger.Info("manifest_written", "path", h.config.ManifestPath)
		}
	}
	return errors.Join(errs...)
}

// writeManifest records one line per written trace artifact.
func (h *Harness) writeManifest() error {
	var entries []digest.ManifestEntry
	for _, r := range h.agg.Results() {
		if !r.OK() {
			continue
		}
		entries = append(entries, digest.ManifestEntry{
			Digest: r.Digest,
			Size:   r.TraceBytes,
			Path:   r.TracePath,
		})
	}
	return digest.WriteManifest(h.config.ManifestPath, entries)
}

// ExitSummary renders the end-of-batch report.
func (h *Harness) ExitSummary() string {
	metricsAddr := ""
	if h.metricsServer != nil {
		metricsAddr = h.metricsServer.Addr()
	}
	return stats.FormatExitSummary(h.agg.Snapshot(), h.agg.Results(), stats.SummaryConfig{
		TargetCount:  len(h.config.Executables),
		Duration:     h.agg.Elapsed(),
		Target:       h.config.Target,
		Simulator:    h.sim.Name(),
		MetricsAddr:  metricsAddr,
		ManifestPath: h.config.ManifestPath,
		ShowResults:  true,
	})
}

// Failed returns the number of failed runs so far.
func (h *Harness) Failed() int {
	return h.agg.Snapshot().Failed
}

// Aggregator returns the stats aggregator for external access.
func (h *Harness) Aggregator() *stats.Aggregator {
	return h.agg
}

// Simulator returns the simulator runner for external access.
func (h *Harness) Simulator() *process.SimulatorRunner {
	return h.sim
}

// MetricsAddr returns the bound metrics address, empty when disabled.
func (h *Harness) MetricsAddr() string {
	if h.metricsServer == nil {
		return ""
	}
	return h.metricsServer.Addr()
}
