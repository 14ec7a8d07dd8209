// Package main provides the covtrace CLI entry point.
//
// covtrace runs embedded test executables under an instruction-logging
// simulator and converts the captured logs into binary execution trace
// artifacts, one per executable.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/covtrace/covtrace/internal/config"
	"github.com/covtrace/covtrace/internal/harness"
	"github.com/covtrace/covtrace/internal/logging"
	"github.com/covtrace/covtrace/internal/preflight"
	"github.com/covtrace/covtrace/internal/process"
	"github.com/covtrace/covtrace/internal/stats"
	"github.com/covtrace/covtrace/internal/target"
	"github.com/covtrace/covtrace/internal/tui"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/covtrace
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Handle version flag early (before flag parsing)
	if len(os.Args) > 1 {
		arg := os.Args[1]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Printf("covtrace %s\n", version)
			return 0
		}
	}

	// Parse command-line flags
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return 1
	}
	if cfg.ShowVersion {
		fmt.Printf("covtrace %s\n", version)
		return 0
	}

	// Initialize logger
	// When TUI is enabled, suppress logs to avoid interfering with TUI rendering
	var logger *slog.Logger
	if cfg.TUIEnabled {
		logger = logging.NewLoggerWithWriter(io.Discard, "json", "info")
	} else {
		logger = logging.NewLogger(cfg.LogFormat, "info", cfg.Verbose)
	}
	logging.SetDefault(logger)

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	// Handle --print-cmd mode
	if cfg.PrintCmd {
		printToolCommands(cfg)
		return 0
	}

	// Handle --check mode. The checks run against the raw config, so a
	// misconfigured target still gets a diagnostic line instead of a
	// bare error.
	if cfg.Check {
		return runChecks(cfg)
	}

	// Log startup
	logger.Info("starting",
		"version", version,
		"target", cfg.Target,
		"executables", len(cfg.Executables),
		"simulator_cmd", cfg.SimCommand,
		"metrics_addr", cfg.MetricsAddr,
	)

	// Stop on Ctrl+C or SIGTERM; the current run is killed and the batch
	// winds down through the normal output path.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The dashboard program is created after the harness but referenced
	// by its callbacks, so the callbacks close over the variable.
	var program *tea.Program
	var h *harness.Harness

	callbacks := harness.Callbacks{}
	if cfg.TUIEnabled {
		callbacks.OnRunStarted = func(exe string) {
			tui.SendRunStarted(program, exe)
		}
		callbacks.OnRunFinished = func(stats.RunResult) {
			agg := h.Aggregator()
			tui.SendStats(program, agg.Snapshot(), agg.Results())
		}
	}

	h, err = harness.New(cfg, version, logger, callbacks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if cfg.TUIEnabled {
		model := tui.New(tui.Config{
			TargetCount: len(cfg.Executables),
			Target:      cfg.Target,
			Simulator:   h.Simulator().Name(),
			MetricsAddr: cfg.MetricsAddr,
			StatsSource: h.Aggregator(),
		})
		program = tea.NewProgram(model, tea.WithAltScreen())

		done := make(chan error, 1)
		go func() {
			err := h.Run(ctx)
			tui.SendQuit(program)
			done <- err
		}()

		if _, err := program.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Dashboard error: %v\n", err)
		}

		// Leaving the dashboard stops the batch.
		stop()
		if err := <-done; err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	} else {
		printBanner(cfg)
		if err := h.Run(ctx); err != nil {
			logger.Error("batch_failed", "error", err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	fmt.Print(h.ExitSummary())

	if h.Failed() > 0 {
		return 1
	}
	return 0
}

// printBanner prints the startup banner.
func printBanner(cfg *config.Config) {
	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                             covtrace                              ║")
	fmt.Println("║        Execution Trace Capture for Simulator-Run Binaries         ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Target:       %s\n", cfg.Target)
	fmt.Printf("  Executables:  %d\n", len(cfg.Executables))
	fmt.Printf("  Simulator:    %s\n", cfg.SimCommand)
	if cfg.Timeout > 0 {
		fmt.Printf("  Timeout:      %s per run\n", cfg.Timeout)
	}
	if cfg.MetricsAddr != "" {
		fmt.Printf("  Metrics:      http://%s/metrics\n", cfg.MetricsAddr)
	}
	if cfg.KeepTemps {
		fmt.Println("  Temp files:   KEPT (capture logs survive the batch)")
	}
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop.")
	fmt.Println()
}

// printToolCommands prints the expanded tool command lines.
func printToolCommands(cfg *config.Config) {
	exe := "program.exe"
	if len(cfg.Executables) > 0 {
		exe = cfg.Executables[0]
	}

	sim := process.NewSimulatorRunner(&process.SimulatorConfig{
		Template: cfg.SimCommand,
		Timeout:  cfg.Timeout,
	})
	disasm := process.NewDisasmRunner(&process.DisasmConfig{
		Template: cfg.DisasmCommand,
	})

	fmt.Println("# Disassembler command run for each executable:")
	fmt.Println()
	fmt.Println(disasm.CommandString(exe))
	fmt.Println()
	fmt.Println("# Simulator command run for each executable:")
	fmt.Println()
	fmt.Println(sim.CommandString(exe, "capture.log"))
	if !sim.WritesLog() {
		fmt.Println()
		fmt.Println("# No {log} placeholder: the simulator's stderr is parsed as the capture log.")
	}
}

// runChecks runs the preflight checks and reports the outcome.
func runChecks(cfg *config.Config) int {
	table := target.Builtin()
	if cfg.TargetsFile != "" {
		if err := table.Load(cfg.TargetsFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	result := preflight.RunAll(preflight.Params{
		Target:        cfg.Target,
		KnownTargets:  table.Names(),
		SimCommand:    cfg.SimCommand,
		DisasmCommand: cfg.DisasmCommand,
		ScratchDir:    cfg.ScratchDir,
		Executables:   cfg.Executables,
	})
	preflight.PrintResults(result)

	if !result.Passed {
		return 1
	}
	return 0
}
