package stats

import (
	"sync"
	"time"

	"github.com/influxdata/tdigest"
)

// Snapshot holds batch-wide counters at a point in time.
//
// This is a snapshot - values are computed at the time of Snapshot() call.
type Snapshot struct {
	// Timestamp when this snapshot was taken
	Timestamp time.Time

	// Run counts
	Completed int
	OK        int
	Failed    int

	// Artifact totals
	TotalRecords int64
	TotalBytes   int64

	// Elapsed since the aggregator was created
	Elapsed time.Duration

	// Run duration percentiles (from T-Digest, all completed runs)
	DurationP50 time.Duration
	DurationP95 time.Duration
	DurationP99 time.Duration

	// Trace record count percentiles (from T-Digest, written traces only)
	RecordsP50 int64
	RecordsP95 int64
	RecordsP99 int64

	// Last finished run, zero value until the first run completes
	Last RunResult
}

// Aggregator accumulates run results.
//
// Thread-safe: the harness records results while the dashboard reads
// snapshots.
type Aggregator struct {
	mu        sync.RWMutex
	results   []RunResult
	startTime time.Time

	okCount      int
	failedCount  int
	totalRecords int64
	totalBytes   int64

	// durationDigest holds run durations in nanoseconds,
	// recordsDigest the record counts of written traces
	durationDigest *tdigest.TDigest
	recordsDigest  *tdigest.TDigest
}

// NewAggregator creates an empty aggregator starting the batch clock.
func NewAggregator() *Aggregator {
	return &Aggregator{
		startTime:      time.Now(),
		durationDigest: tdigest.NewWithCompression(100), // ~100 centroids, ~10KB
		recordsDigest:  tdigest.NewWithCompression(100),
	}
}

// Record adds one finished run.
func (a *Aggregator) Record(res RunResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.results = append(a.results, res)
	if res.OK() {
		a.okCount++
		a.recordsDigest.Add(float64(res.Records), 1)
	} else {
		a.failedCount++
	}
	a.totalRecords += int64(res.Records)
	a.totalBytes += res.TraceBytes
	a.durationDigest.Add(float64(res.Duration.Nanoseconds()), 1)
}

// Completed returns the number of recorded runs.
func (a *Aggregator) Completed() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.results)
}

// Results returns a copy of all recorded runs in completion order.
func (a *Aggregator) Results() []RunResult {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]RunResult, len(a.results))
	copy(out, a.results)
	return out
}

// Failures returns a copy of the failed runs in completion order.
func (a *Aggregator) Failures() []RunResult {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []RunResult
	for _, r := range a.results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Snapshot computes batch-wide counters.
//
// The returned struct is safe to use after the call returns.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	now := time.Now()
	snap := Snapshot{
		Timestamp:    now,
		Completed:    len(a.results),
		OK:           a.okCount,
		Failed:       a.failedCount,
		TotalRecords: a.totalRecords,
		TotalBytes:   a.totalBytes,
		Elapsed:      now.Sub(a.startTime),
	}

	if len(a.results) > 0 {
		snap.Last = a.results[len(a.results)-1]
		snap.DurationP50 = time.Duration(a.durationDigest.Quantile(0.50))
		snap.DurationP95 = time.Duration(a.durationDigest.Quantile(0.95))
		snap.DurationP99 = time.Duration(a.durationDigest.Quantile(0.99))
	}
	if a.okCount > 0 {
		snap.RecordsP50 = int64(a.recordsDigest.Quantile(0.50))
		snap.RecordsP95 = int64(a.recordsDigest.Quantile(0.95))
		snap.RecordsP99 = int64(a.recordsDigest.Quantile(0.99))
	}

	return snap
}

// StartTime returns when the aggregator was created.
func (a *Aggregator) StartTime() time.Time {
	return a.startTime
}

// Elapsed returns the duration since the aggregator was created.
func (a *Aggregator) Elapsed() time.Duration {
	return time.Since(a.startTime)
}
