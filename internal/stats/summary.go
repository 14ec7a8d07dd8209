package stats

import (
	"fmt"
	"strings"
	"time"
)

// SummaryConfig holds configuration for summary formatting.
type SummaryConfig struct {
	// TargetCount is the number of executables requested
	TargetCount int

	// Duration is the total batch duration
	Duration time.Duration

	// Target is the architecture name
	Target string

	// Simulator is the simulator tool name
	Simulator string

	// MetricsAddr is the Prometheus metrics endpoint address
	MetricsAddr string

	// ManifestPath is where the digest manifest was written
	ManifestPath string

	// ShowResults enables the per-executable result table
	ShowResults bool
}

// FormatExitSummary formats batch results for display at program exit.
//
// The summary includes:
// - Run information
// - Capture counts and artifact totals
// - Run duration percentiles
// - Per-executable results (optional)
// - Failures with their errors
func FormatExitSummary(snap Snapshot, results []RunResult, cfg SummaryConfig) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("═══════════════════════════════════════════════════════════════════════════════\n")
	b.WriteString("                             covtrace Exit Summary\n")
	b.WriteString("═══════════════════════════════════════════════════════════════════════════════\n\n")

	// Run info
	fmt.Fprintf(&b, "Run Duration:           %s\n", FormatDuration(cfg.Duration))
	if cfg.Target != "" {
		fmt.Fprintf(&b, "Target Architecture:    %s\n", cfg.Target)
	}
	if cfg.Simulator != "" {
		fmt.Fprintf(&b, "Simulator:              %s\n", cfg.Simulator)
	}
	fmt.Fprintf(&b, "Executables:            %d requested, %d run\n\n", cfg.TargetCount, snap.Completed)

	// Capture statistics
	b.WriteString("───────────────────────────────────────────────────────────────────────────────\n")
	b.WriteString("                              Capture Statistics\n")
	b.WriteString("───────────────────────────────────────────────────────────────────────────────\n\n")

	fmt.Fprintf(&b, "  Traces written:       %d\n", snap.OK)
	fmt.Fprintf(&b, "  Failed runs:          %d\n", snap.Failed)
	fmt.Fprintf(&b, "  Trace Records:        %s\n", FormatNumber(snap.TotalRecords))
	fmt.Fprintf(&b, "  Trace Bytes:          %s\n\n", FormatBytes(snap.TotalBytes))

	// Run duration distribution
	if snap.Completed > 0 {
		b.WriteString("───────────────────────────────────────────────────────────────────────────────\n")
		b.WriteString("                          Run Duration Distribution\n")
		b.WriteString("───────────────────────────────────────────────────────────────────────────────\n\n")

		fmt.Fprintf(&b, "  P50 (median):         %s\n", FormatShortDuration(snap.DurationP50))
		fmt.Fprintf(&b, "  P95:                  %s\n", FormatShortDuration(snap.DurationP95))
		fmt.Fprintf(&b, "  P99:                  %s\n", FormatShortDuration(snap.DurationP99))
		b.WriteString("\n")
	}

	// Trace record distribution, written traces only
	if snap.OK > 0 {
		b.WriteString("───────────────────────────────────────────────────────────────────────────────\n")
		b.WriteString("                          Trace Record Distribution\n")
		b.WriteString("───────────────────────────────────────────────────────────────────────────────\n\n")

		fmt.Fprintf(&b, "  P50 (median):         %s records\n", FormatNumber(snap.RecordsP50))
		fmt.Fprintf(&b, "  P95:                  %s records\n", FormatNumber(snap.RecordsP95))
		fmt.Fprintf(&b, "  P99:                  %s records\n", FormatNumber(snap.RecordsP99))
		b.WriteString("\n")
	}

	// Per-executable results
	if cfg.ShowResults && len(results) > 0 {
		b.WriteString("───────────────────────────────────────────────────────────────────────────────\n")
		b.WriteString("                                   Results\n")
		b.WriteString("───────────────────────────────────────────────────────────────────────────────\n\n")

		fmt.Fprintf(&b, "  %-42s %-8s %10s %10s\n", "Executable", "Result", "Duration", "Records")
		b.WriteString("  " + strings.Repeat("─", 74) + "\n")
		for _, r := range results {
			records := "-"
			if r.OK() {
				records = FormatNumber(int64(r.Records))
			}
			fmt.Fprintf(&b, "  %-42s %-8s %10s %10s\n",
				r.Executable,
				r.Outcome(),
				FormatShortDuration(r.Duration),
				records,
			)
		}
		b.WriteString("\n")
	}

	// Failures with their errors
	var failures []RunResult
	for _, r := range results {
		if !r.OK() {
			failures = append(failures, r)
		}
	}
	if len(failures) > 0 {
		b.WriteString("───────────────────────────────────────────────────────────────────────────────\n")
		b.WriteString("                                  Failures\n")
		b.WriteString("───────────────────────────────────────────────────────────────────────────────\n\n")

		for _, r := range failures {
			fmt.Fprintf(&b, "  %s\n", r.Executable)
			fmt.Fprintf(&b, "      %v\n", r.Err)
		}
		b.WriteString("\n")
	}

	if cfg.ManifestPath != "" {
		fmt.Fprintf(&b, "Manifest written to: %s\n", cfg.ManifestPath)
	}
	if cfg.MetricsAddr != "" {
		fmt.Fprintf(&b, "Metrics endpoint was: http://%s/metrics\n", cfg.MetricsAddr)
	}

	b.WriteString("═══════════════════════════════════════════════════════════════════════════════\n")

	return b.String()
}

// =============================================================================
// Formatting Helper Functions (exported for reuse)
// =============================================================================

// FormatDuration formats a duration as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatShortDuration formats a single-run duration, millisecond
// resolution below ten seconds.
func FormatShortDuration(d time.Duration) string {
	if d < 10*time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

// FormatNumber formats a number with K/M suffixes for readability.
func FormatNumber(n int64) string {
	if n >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

// FormatBytes formats bytes with KB/MB/GB suffixes.
func FormatBytes(n int64) string {
	if n >= 1_000_000_000 {
		return fmt.Sprintf("%.2f GB", float64(n)/1_000_000_000)
	}
	if n >= 1_000_000 {
		return fmt.Sprintf("%.2f MB", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.2f KB", float64(n)/1_000)
	}
	return fmt.Sprintf("%d B", n)
}

// FormatRate formats a rate with appropriate precision.
func FormatRate(rate float64) string {
	if rate >= 1000 {
		return fmt.Sprintf("%.1fK/s", rate/1000)
	}
	if rate >= 1 {
		return fmt.Sprintf("%.1f/s", rate)
	}
	return fmt.Sprintf("%.2f/s", rate)
}
