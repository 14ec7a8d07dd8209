package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/covtrace/covtrace/internal/stats"
)

// =============================================================================
// Messages
// =============================================================================

// TickMsg is sent periodically to update the display.
type TickMsg time.Time

// StatsMsg carries updated batch statistics.
type StatsMsg struct {
	Snapshot stats.Snapshot
	Results  []stats.RunResult
}

// RunStartedMsg announces the executable currently in the simulator.
type RunStartedMsg struct {
	Executable string
}

// QuitMsg signals the TUI should exit.
type QuitMsg struct{}

// =============================================================================
// Model
// =============================================================================

// Model represents the TUI state.
type Model struct {
	// Configuration
	targetCount int
	target      string
	simulator   string
	metricsAddr string

	// Current state
	snap       stats.Snapshot
	results    []stats.RunResult
	haveStats  bool
	current    string
	startTime  time.Time
	lastUpdate time.Time
	showAll    bool

	// Display options
	width  int
	height int

	// Stats source (for fetching updates)
	statsSource StatsSource

	// Quit flag
	quitting bool
}

// StatsSource provides batch statistics. *stats.Aggregator satisfies it.
type StatsSource interface {
	Snapshot() stats.Snapshot
	Results() []stats.RunResult
}

// Config holds TUI configuration.
type Config struct {
	TargetCount int
	Target      string
	Simulator   string
	MetricsAddr string
	StatsSource StatsSource
}

// New creates a new TUI model.
func New(cfg Config) Model {
	return Model{
		targetCount: cfg.TargetCount,
		target:      cfg.Target,
		simulator:   cfg.Simulator,
		metricsAddr: cfg.MetricsAddr,
		statsSource: cfg.StatsSource,
		startTime:   time.Now(),
		lastUpdate:  time.Now(),
		width:       80,
		height:      24,
	}
}

// =============================================================================
// Bubble Tea Interface
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	// Note: tea.WithAltScreen() is passed when creating the program,
	// so we don't need tea.EnterAltScreen here.
	return tickCmd()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "d":
			m.showAll = !m.showAll
			return m, nil
		case "r":
			// Force refresh
			return m, tickCmd()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		// Fetch latest stats
		if m.statsSource != nil {
			m.snap = m.statsSource.Snapshot()
			m.results = m.statsSource.Results()
			m.haveStats = true
		}
		m.lastUpdate = time.Now()
		return m, tickCmd()

	case StatsMsg:
		m.snap = msg.Snapshot
		m.results = msg.Results
		m.haveStats = true
		m.lastUpdate = time.Now()
		return m, nil

	case RunStartedMsg:
		m.current = msg.Executable
		return m, nil

	case QuitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.showAll && len(m.results) > 0 {
		return m.renderAllResultsView()
	}
	return m.renderSummaryView()
}

// =============================================================================
// Commands
// =============================================================================

// tickCmd returns a command that sends a tick after 500ms.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// =============================================================================
// Accessors
// =============================================================================

// Elapsed returns the time since the batch started.
func (m Model) Elapsed() time.Duration {
	return time.Since(m.startTime)
}

// Completed returns the number of finished runs.
func (m Model) Completed() int {
	return m.snap.Completed
}

// TargetCount returns the number of requested executables.
func (m Model) TargetCount() int {
	return m.targetCount
}

// Progress returns the batch progress (0.0 to 1.0).
func (m Model) Progress() float64 {
	if m.targetCount == 0 {
		return 0
	}
	return float64(m.Completed()) / float64(m.targetCount)
}

// FailureRate returns the fraction of completed runs that failed.
func (m Model) FailureRate() float64 {
	if m.snap.Completed == 0 {
		return 0
	}
	return float64(m.snap.Failed) / float64(m.snap.Completed)
}

// =============================================================================
// Helper for external use
// =============================================================================

// SendStats sends a stats update to the TUI.
func SendStats(p *tea.Program, snap stats.Snapshot, results []stats.RunResult) {
	if p != nil {
		p.Send(StatsMsg{Snapshot: snap, Results: results})
	}
}

// SendRunStarted tells the TUI which executable is in the simulator.
func SendRunStarted(p *tea.Program, executable string) {
	if p != nil {
		p.Send(RunStartedMsg{Executable: executable})
	}
}

// SendQuit sends a quit message to the TUI.
func SendQuit(p *tea.Program) {
	if p != nil {
		p.Send(QuitMsg{})
	}
}

// =============================================================================
// Formatting Helpers (used by view.go)
// =============================================================================

// formatDuration formats a duration as HH:MM:SS.
func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// formatShortDuration formats a sub-minute duration compactly.
func formatShortDuration(d time.Duration) string {
	if d < 10*time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

// formatNumber formats a number with K/M suffixes.
func formatNumber(n int64) string {
	if n >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

// formatBytes formats bytes with KB/MB/GB suffixes.
func formatBytes(n int64) string {
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

// formatRate formats a rate with appropriate precision.
func formatRate(rate float64) string {
	if rate >= 1000 {
		return fmt.Sprintf("%.1fK/s", rate/1000)
	}
	if rate >= 1 {
		return fmt.Sprintf("%.1f/s", rate)
	}
	return fmt.Sprintf("%.2f/s", rate)
}

// formatPercent formats a percentage.
func formatPercent(value float64) string {
	return fmt.Sprintf("%.1f%%", value*100)
}
