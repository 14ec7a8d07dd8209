package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// =============================================================================
// Test Helpers
// =============================================================================

// newTestRegistry creates a new registry for isolated testing.
func newTestRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// newTestCollector creates a collector with a test registry.
func newTestCollector(cfg CollectorConfig) (*Collector, *prometheus.Registry) {
	registry := newTestRegistry()
	c := NewCollectorWithRegistry(cfg, registry)
	return c, registry
}

// gatheredNames returns the metric family names visible in the registry.
func gatheredNames(t *testing.T, registry *prometheus.Registry) map[string]bool {
	t.Helper()
	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	return names
}

// =============================================================================
// Tests: NewCollector
// =============================================================================

func TestNewCollector(t *testing.T) {
	tests := []struct {
		name string
		cfg  CollectorConfig
	}{
		{
			name: "basic config",
			cfg: CollectorConfig{
				Version:     "1.0",
				Target:      "sparc",
				Simulator:   "qemu-system-sparc",
				TargetCount: 12,
			},
		},
		{
			name: "no simulator name",
			cfg: CollectorConfig{
				Version:     "1.0",
				Target:      "arm",
				TargetCount: 1,
			},
		},
		{
			name: "zero executables",
			cfg: CollectorConfig{
				Version: "1.0",
				Target:  "riscv",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCollector(tt.cfg)

			if c == nil {
				t.Fatal("NewCollector returned nil")
			}
			if c.targetCount != tt.cfg.TargetCount {
				t.Errorf("targetCount = %d, want %d", c.targetCount, tt.cfg.TargetCount)
			}
			if c.target != tt.cfg.Target {
				t.Errorf("target = %q, want %q", c.target, tt.cfg.Target)
			}
			if c.StartTime().IsZero() {
				t.Error("StartTime() should be set")
			}
		})
	}
}

func TestNewCollector_RegistersFamilies(t *testing.T) {
	c, registry := newTestCollector(CollectorConfig{
		Version:     "1.0",
		Target:      "sparc",
		TargetCount: 3,
	})

	// Counters with no observations are invisible until touched
	c.RecordRun(RunUpdate{OK: true, Duration: time.Second, Records: 10, TraceBytes: 108})

	names := gatheredNames(t, registry)
	for _, want := range []string{
		"covtrace_info",
		"covtrace_target_executables",
		"covtrace_runs_total",
		"covtrace_run_duration_seconds",
		"covtrace_trace_records_total",
		"covtrace_trace_bytes_total",
	} {
		if !names[want] {
			t.Errorf("registry missing family %q", want)
		}
	}
}

// =============================================================================
// Tests: RecordRun
// =============================================================================

func TestCollector_RecordRun(t *testing.T) {
	c, _ := newTestCollector(CollectorConfig{
		Version:     "1.0",
		Target:      "sparc",
		TargetCount: 3,
	})

	c.RecordRun(RunUpdate{OK: true, Duration: 2 * time.Second, Records: 100, TraceBytes: 918})
	c.RecordRun(RunUpdate{OK: true, Duration: 3 * time.Second, Records: 200, TraceBytes: 1818})
	c.RecordRun(RunUpdate{OK: false, Duration: time.Second})

	ok, failed := c.RunCounts()
	if ok != 2 {
		t.Errorf("ok runs = %d, want 2", ok)
	}
	if failed != 1 {
		t.Errorf("failed runs = %d, want 1", failed)
	}
}

func TestCollector_RecordRun_FailedRunHasNoArtifact(t *testing.T) {
	c, _ := newTestCollector(CollectorConfig{Version: "1.0", Target: "sparc"})

	// Should not panic with zero records and bytes
	c.RecordRun(RunUpdate{OK: false, Duration: 500 * time.Millisecond})

	ok, failed := c.RunCounts()
	if ok != 0 || failed != 1 {
		t.Errorf("RunCounts() = (%d, %d), want (0, 1)", ok, failed)
	}
}

// =============================================================================
// Tests: RecordBatch
// =============================================================================

func TestCollector_RecordBatch(t *testing.T) {
	c, registry := newTestCollector(CollectorConfig{
		Version:     "1.0",
		Target:      "sparc",
		TargetCount: 3,
	})

	// Should not panic
	c.RecordBatch(BatchUpdate{
		DurationP50:   2 * time.Second,
		DurationP95:   5 * time.Second,
		DurationP99:   8 * time.Second,
		LiveTempFiles: 4,
	})

	names := gatheredNames(t, registry)
	for _, want := range []string{
		"covtrace_batch_elapsed_seconds",
		"covtrace_run_duration_p50_seconds",
		"covtrace_run_duration_p95_seconds",
		"covtrace_run_duration_p99_seconds",
		"covtrace_temp_files_live",
	} {
		if !names[want] {
			t.Errorf("registry missing family %q", want)
		}
	}
}
