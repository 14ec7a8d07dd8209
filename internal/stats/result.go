// Package stats collects per-run results and aggregate timing for a
// covtrace batch.
//
// The harness records one RunResult per target executable; the
// aggregator feeds the exit summary, the dashboard, and the metrics
// collector.
package stats

import (
	"time"

	"github.com/covtrace/covtrace/internal/process"
)

// RunResult is the outcome of one executable's capture run.
//
// A result with a nil Err produced a trace artifact; TracePath, Digest,
// Records and TraceBytes describe it. A failed result carries whatever
// was known when the run stopped (Status is zero when the simulator
// never started).
type RunResult struct {
	// Executable is the target path as given on the command line.
	Executable string

	// Status is how the simulator terminated.
	Status process.Status

	// Duration is the wall-clock time of the whole run, including
	// disassembly and artifact writing.
	Duration time.Duration

	// Records is the number of trace records written.
	Records int

	// TraceBytes is the artifact size on disk.
	TraceBytes int64

	// TracePath is where the artifact was written.
	TracePath string

	// Digest is the artifact content digest, "" when no artifact was
	// written.
	Digest string

	// Err is nil for a clean run.
	Err error
}

// OK reports whether the run produced a trace artifact.
func (r RunResult) OK() bool {
	return r.Err == nil
}

// Outcome returns "ok" or "failed" for labels and metrics.
func (r RunResult) Outcome() string {
	if r.OK() {
		return "ok"
	}
	return "failed"
}
