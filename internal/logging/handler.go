package logging

import (
	"bufio"
	"io"
	"log/slog"
	"strings"
	"sync"
)

const (
	// MaxLineLength is the maximum length of a single captured line before truncation.
	MaxLineLength = 4096

	// MaxBufferedLines is the maximum number of lines buffered per run.
	MaxBufferedLines = 100
)

// CaptureEcho replays a simulator's captured output into the log after a
// failed run. It buffers recent lines for the failure summary and logs
// them at a level matching their content.
type CaptureEcho struct {
	exe     string
	logger  *slog.Logger
	verbose bool

	// Circular buffer for recent lines
	buffer []string
	bufIdx int
	mu     sync.Mutex
}

// NewCaptureEcho creates an echo for one executable's run.
func NewCaptureEcho(exe string, logger *slog.Logger, verbose bool) *CaptureEcho {
	return &CaptureEcho{
		exe:     exe,
		logger:  logger,
		verbose: verbose,
		buffer:  make([]string, MaxBufferedLines),
	}
}

// HandleReader reads the captured output and processes each line.
func (e *CaptureEcho) HandleReader(r io.Reader) {
	scanner := bufio.NewScanner(r)
	// Simulator fault dumps produce long lines
	buf := make([]byte, MaxLineLength)
	scanner.Buffer(buf, MaxLineLength)

	for scanner.Scan() {
		e.HandleLine(scanner.Text())
	}
}

// HandleLine processes a single line of captured output.
func (e *CaptureEcho) HandleLine(line string) {
	// Truncate if too long
	if len(line) > MaxLineLength {
		line = line[:MaxLineLength] + "...(truncated)"
	}

	// Store in circular buffer
	e.mu.Lock()
	e.buffer[e.bufIdx] = line
	e.bufIdx = (e.bufIdx + 1) % MaxBufferedLines
	e.mu.Unlock()

	e.logLine(line)
}

// logLine logs the line at appropriate level based on content.
func (e *CaptureEcho) logLine(line string) {
	level := e.classifyLine(line)

	// In non-verbose mode, only log warnings and errors
	if !e.verbose && level == slog.LevelDebug {
		return
	}

	e.logger.Log(nil, level, "sim_output",
		"exe", e.exe,
		"line", line,
	)
}

// classifyLine determines the log level for a line based on content.
func (e *CaptureEcho) classifyLine(line string) slog.Level {
	lower := strings.ToLower(line)

	// Failure patterns the simulators print when a run goes wrong
	if strings.Contains(lower, "fatal") ||
		strings.Contains(lower, "unable to") ||
		strings.Contains(lower, "no such file") ||
		strings.Contains(lower, "illegal instruction") ||
		strings.Contains(lower, "segmentation fault") {
		return slog.LevelWarn
	}

	// Warning patterns
	if strings.Contains(lower, "[warning]") ||
		strings.Contains(lower, "warning:") ||
		strings.Contains(lower, "deprecated") {
		return slog.LevelWarn
	}

	// Everything else is verbose-only detail
	return slog.LevelDebug
}

// RecentLines returns the most recent lines from the buffer.
func (e *CaptureEcho) RecentLines(n int) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if n > MaxBufferedLines {
		n = MaxBufferedLines
	}

	lines := make([]string, 0, n)

	// Read from circular buffer in order
	for i := 0; i < n; i++ {
		idx := (e.bufIdx - n + i + MaxBufferedLines) % MaxBufferedLines
		if e.buffer[idx] != "" {
			lines = append(lines, e.buffer[idx])
		}
	}

	return lines
}

// ErrorPatterns are common failure patterns extracted for the run summary.
var ErrorPatterns = []string{
	"fatal",
	"Unable to",
	"No such file",
	"Illegal instruction",
	"Segmentation fault",
	"Trap",
	"abort",
	"timeout",
}

// CountErrors counts occurrences of failure patterns in the buffer.
func (e *CaptureEcho) CountErrors() map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()

	counts := make(map[string]int)

	for _, line := range e.buffer {
		if line == "" {
			continue
		}
		for _, pattern := range ErrorPatterns {
			if strings.Contains(line, pattern) {
				counts[pattern]++
			}
		}
	}

	return counts
}
