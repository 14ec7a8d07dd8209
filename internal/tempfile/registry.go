// Package tempfile manages the scratch files covtrace creates while running
// simulators: capture targets for child stdout/stderr and intermediate logs.
//
// Every path handed out is tracked by a Registry so cleanup happens on every
// exit path. Files are deleted when released unless the per-file keep flag or
// the registry-wide keep switch is set.
package tempfile

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Default is the process-wide registry. Tests that need to observe cleanup
// in isolation should swap in their own Registry.
var Default = NewRegistry("")

// Registry tracks live temporary files and their keep flags. All methods are
// safe for concurrent use; the table is guarded by a single mutex.
type Registry struct {
	mu      sync.Mutex
	dir     string
	records map[string]*record
	keepAll bool
}

type record struct {
	keep bool
}

// NewRegistry creates a registry allocating names under dir.
// An empty dir means the system temp directory.
func NewRegistry(dir string) *Registry {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Registry{
		dir:     dir,
		records: make(map[string]*record),
	}
}

// Acquire allocates a unique path ending in suffix and registers it with the
// given keep flag. The file exists (empty) on return, so a subsequent
// read/write open finds it in place.
func (r *Registry) Acquire(suffix string, keep bool) (string, error) {
	f, err := os.CreateTemp(r.dir, "covtrace-*"+suffix)
	if err != nil {
		return "", fmt.Errorf("temp name allocation: %w", err)
	}
	name := collapseSeparators(f.Name())
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("temp name allocation: %w", err)
	}

	r.mu.Lock()
	r.records[name] = &record{keep: keep}
	r.mu.Unlock()
	return name, nil
}

// Release deletes the file behind name unless its keep flag or the registry
// keep switch is set, and drops the record either way. Unknown names are a
// no-op.
func (r *Registry) Release(name string) {
	r.mu.Lock()
	rec, ok := r.records[name]
	if ok {
		delete(r.records, name)
	}
	keepAll := r.keepAll
	r.mu.Unlock()

	if !ok {
		return
	}
	if !keepAll && !rec.keep {
		os.Remove(name)
	}
}

// MarkKeep sets the keep flag on name so Release leaves the file on disk.
// Unknown names are a no-op.
func (r *Registry) MarkKeep(name string) {
	r.mu.Lock()
	if rec, ok := r.records[name]; ok {
		rec.keep = true
	}
	r.mu.Unlock()
}

// KeepAll switches the registry to keep every file it releases from now on.
// There is no way back; the switch is meant to be flipped once at startup
// when debugging a run.
func (r *Registry) KeepAll() {
	r.mu.Lock()
	r.keepAll = true
	r.mu.Unlock()
}

// Shutdown releases every remaining record, respecting keep flags. Called at
// process teardown and safe to call early or twice.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	names := make([]string, 0, len(r.records))
	for name := range r.records {
		names = append(names, name)
	}
	r.mu.Unlock()

	for _, name := range names {
		r.Release(name)
	}
}

// forget drops a record without touching the file behind it.
func (r *Registry) forget(name string) {
	r.mu.Lock()
	delete(r.records, name)
	r.mu.Unlock()
}

// Live reports how many files are currently registered.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// collapseSeparators folds accidental doubled path separators, which show up
// when the scratch directory is configured with a trailing separator.
func collapseSeparators(name string) string {
	sep := string(os.PathSeparator)
	for strings.Contains(name, sep+sep) {
		name = strings.ReplaceAll(name, sep+sep, sep)
	}
	return name
}
