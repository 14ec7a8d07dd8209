package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/covtrace/covtrace/internal/stats"
)

// =============================================================================
// Main View Rendering
// =============================================================================

// renderSummaryView renders the main summary dashboard.
func (m Model) renderSummaryView() string {
	var sections []string

	// Header
	sections = append(sections, m.renderHeader())

	// Progress section
	sections = append(sections, m.renderProgress())

	// Stats sections (only if we have stats)
	if m.haveStats {
		sections = append(sections, m.renderCaptureStats())

		if m.snap.Completed > 0 {
			sections = append(sections, m.renderDurationStats())
		}

		if m.snap.OK > 0 {
			sections = append(sections, m.renderRecordStats())
		}

		if len(m.results) > 0 {
			sections = append(sections, m.renderRecentResults())
		}

		// Failures section (only if there are failures)
		if m.snap.Failed > 0 {
			sections = append(sections, m.renderFailures())
		}
	}

	// Footer
	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderAllResultsView renders the full per-run table.
func (m Model) renderAllResultsView() string {
	var sections []string

	// Header
	sections = append(sections, m.renderHeader())

	// Per-run table
	sections = append(sections, m.renderResultTable())

	// Footer
	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// Header
// =============================================================================

func (m Model) renderHeader() string {
	// Batch health indicator
	captureLabel := GetCaptureLabel(m.FailureRate())

	// Build header line
	header := fmt.Sprintf(
		" covtrace │ %s │ Runs: %d/%d │ Elapsed: %s ",
		captureLabel,
		m.Completed(),
		m.targetCount,
		formatDuration(m.Elapsed()),
	)

	return headerStyle.Width(m.width).Render(header)
}

// =============================================================================
// Progress Section
// =============================================================================

func (m Model) renderProgress() string {
	progress := m.Progress()

	// Progress bar
	barWidth := m.width - 30
	if barWidth < 20 {
		barWidth = 20
	}
	progressBar := RenderProgressBar(progress, barWidth)

	// Status text
	var status string
	switch {
	case m.targetCount > 0 && m.Completed() >= m.targetCount:
		status = statusOK.Render("✓ Batch complete")
	case m.current != "":
		status = statusInfo.Render("Running " + filepath.Base(m.current))
	default:
		status = statusInfo.Render(fmt.Sprintf("Capturing... %d/%d", m.Completed(), m.targetCount))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		sectionHeaderStyle.Render("Batch Progress"),
		progressBar,
		status,
	)

	return boxStyle.Width(m.width - 2).Render(content)
}

// =============================================================================
// Capture Statistics
// =============================================================================

func (m Model) renderCaptureStats() string {
	s := m.snap

	elapsed := s.Elapsed
	if elapsed <= 0 {
		elapsed = m.Elapsed()
	}
	seconds := elapsed.Seconds()

	runRate, recordRate, byteRate := 0.0, 0.0, 0.0
	if seconds > 0 {
		runRate = float64(s.Completed) / seconds
		recordRate = float64(s.TotalRecords) / seconds
		byteRate = float64(s.TotalBytes) / seconds
	}

	// Failed runs with color
	failedStyle := GetFailureRateStyle(m.FailureRate())
	failedText := fmt.Sprintf("%d", s.Failed)
	if s.Failed > 0 {
		failedText += " (" + formatPercent(m.FailureRate()) + ")"
	}
	failed := failedStyle.Render(failedText)

	// Build rows
	rows := []string{
		renderStatRow("Traces Written", formatNumber(int64(s.OK)), formatRate(runRate)),
		lipgloss.JoinHorizontal(lipgloss.Left,
			labelWideStyle.Render("Failed Runs:"),
			failed,
		),
		renderStatRow("Trace Records", formatNumber(s.TotalRecords), formatRate(recordRate)),
		renderStatRow("Trace Bytes", formatBytes(s.TotalBytes), formatBytes(int64(byteRate))+"/s"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{sectionHeaderStyle.Render("Capture Statistics")}, rows...)...,
	)

	return boxStyle.Width(m.width - 2).Render(content)
}

func renderStatRow(label, value, rate string) string {
	return lipgloss.JoinHorizontal(lipgloss.Left,
		labelWideStyle.Render(label+":"),
		valueStyle.Width(12).Render(value),
		mutedStyle.Render(" ("),
		valueStyle.Render(rate),
		mutedStyle.Render(")"),
	)
}

// =============================================================================
// Run Duration Statistics
// =============================================================================

func (m Model) renderDurationStats() string {
	s := m.snap

	rows := []string{
		renderDurationRow("P50 (median)", formatShortDuration(s.DurationP50)),
		renderDurationRow("P95", formatShortDuration(s.DurationP95)),
		renderDurationRow("P99", formatShortDuration(s.DurationP99)),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{sectionHeaderStyle.Render("Run Duration")}, rows...)...,
	)

	return boxStyle.Width(m.width - 2).Render(content)
}

func renderDurationRow(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Left,
		labelStyle.Render(label+":"),
		valueStyle.Render(value),
	)
}

// =============================================================================
// Trace Record Statistics
// =============================================================================

// renderRecordStats shows record-count percentiles over written traces.
func (m Model) renderRecordStats() string {
	s := m.snap

	rows := []string{
		renderDurationRow("P50 (median)", formatNumber(s.RecordsP50)+" records"),
		renderDurationRow("P95", formatNumber(s.RecordsP95)+" records"),
		renderDurationRow("P99", formatNumber(s.RecordsP99)+" records"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{sectionHeaderStyle.Render("Record Distribution")}, rows...)...,
	)

	return boxStyle.Width(m.width - 2).Render(content)
}

// =============================================================================
// Recent Results
// =============================================================================

// recentResultCount is how many finished runs the summary view shows.
const recentResultCount = 5

func (m Model) renderRecentResults() string {
	// Newest first
	var rows []string
	for i := len(m.results) - 1; i >= 0 && len(rows) < recentResultCount; i-- {
		rows = append(rows, m.renderResultRow(m.results[i], len(rows)))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{
			sectionHeaderStyle.Render("Recent Runs"),
			m.renderResultHeader(),
		}, rows...)...,
	)

	return boxStyle.Width(m.width - 2).Render(content)
}

func (m Model) renderResultHeader() string {
	return tableHeaderStyle.Render(
		fmt.Sprintf("%-30s %-10s %10s %10s %12s",
			"Executable", "Result", "Duration", "Records", "Bytes"),
	)
}

func (m Model) renderResultRow(r stats.RunResult, index int) string {
	rowStyle := tableRowEvenStyle
	if index%2 == 1 {
		rowStyle = tableRowOddStyle
	}

	records := "-"
	if r.OK() {
		records = formatNumber(int64(r.Records))
	}

	name := filepath.Base(r.Executable)
	if len(name) > 30 {
		name = name[:27] + "..."
	}

	row := fmt.Sprintf("%-30s %-10s %10s %10s %12s",
		name,
		r.Outcome(),
		formatShortDuration(r.Duration),
		records,
		formatBytes(r.TraceBytes),
	)

	if !r.OK() {
		return valueBadStyle.Render(row)
	}
	return rowStyle.Render(row)
}

// =============================================================================
// Failures
// =============================================================================

// failureDisplayCount is how many failures the summary view shows.
const failureDisplayCount = 3

func (m Model) renderFailures() string {
	var rows []string
	shown := 0
	for i := len(m.results) - 1; i >= 0; i-- {
		r := m.results[i]
		if r.OK() {
			continue
		}
		if shown >= failureDisplayCount {
			rows = append(rows, dimStyle.Render(
				fmt.Sprintf("... and %d more failures", m.snap.Failed-shown)))
			break
		}

		reason := "unknown"
		if r.Err != nil {
			reason = r.Err.Error()
		}
		maxReason := m.width - 40
		if len(reason) > maxReason && maxReason > 10 {
			reason = reason[:maxReason-3] + "..."
		}

		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Left,
			valueBadStyle.Render("✗ "+filepath.Base(r.Executable)),
			mutedStyle.Render(": "+reason),
		))
		shown++
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{sectionHeaderStyle.Render("Failures")}, rows...)...,
	)

	return boxStyle.Width(m.width - 2).Render(content)
}

// =============================================================================
// Result Table (All Runs View)
// =============================================================================

func (m Model) renderResultTable() string {
	if len(m.results) == 0 {
		return boxStyle.Width(m.width - 2).Render(
			dimStyle.Render("No finished runs yet. Press 'd' to toggle."),
		)
	}

	// Table rows (limit to fit screen)
	maxRows := m.height - 10
	if maxRows < 5 {
		maxRows = 5
	}

	var rows []string
	for i, r := range m.results {
		if i >= maxRows {
			rows = append(rows, dimStyle.Render(
				fmt.Sprintf("... and %d more runs", len(m.results)-maxRows)))
			break
		}
		rows = append(rows, m.renderResultRow(r, i))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{
			sectionHeaderStyle.Render("All Runs"),
			m.renderResultHeader(),
		}, rows...)...,
	)

	return boxStyle.Width(m.width - 2).Render(content)
}

// =============================================================================
// Footer
// =============================================================================

func (m Model) renderFooter() string {
	// Keyboard shortcuts
	shortcuts := []string{
		"q: quit",
		"d: toggle all runs",
		"r: refresh",
	}

	// Right side: the metrics endpoint, or the simulator name
	right := fmt.Sprintf("Sim: %s (%s)", m.simulator, m.target)
	if m.metricsAddr != "" {
		right = "Metrics: http://" + m.metricsAddr + "/metrics"
	}
	maxRightLen := m.width - 50
	if len(right) > maxRightLen && maxRightLen > 10 {
		right = right[:maxRightLen-3] + "..."
	}

	left := dimStyle.Render(strings.Join(shortcuts, " │ "))
	rightRendered := dimStyle.Render(right)

	// Pad to fill width
	padding := m.width - lipgloss.Width(left) - lipgloss.Width(rightRendered) - 2
	if padding < 1 {
		padding = 1
	}

	return footerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Left,
			left,
			strings.Repeat(" ", padding),
			rightRendered,
		),
	)
}
