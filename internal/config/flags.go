package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// ParseFlags parses command-line flags and returns a Config.
// Positional arguments are the executables to capture.
func ParseFlags() (*Config, error) {
	cfg := DefaultConfig()

	// Custom usage message
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `covtrace - execution trace capture for simulator-run test executables

Usage:
  covtrace [flags] <executable>...

Target Selection:
`)
		printFlagCategory([]string{"target", "targets-file"})

		fmt.Fprintf(os.Stderr, "\nTool Commands:\n")
		printFlagCategory([]string{"sim", "objdump", "timeout"})

		fmt.Fprintf(os.Stderr, "\nCapture Files:\n")
		printFlagCategory([]string{"scratch-dir", "trace-suffix", "keep-temps", "manifest"})

		fmt.Fprintf(os.Stderr, "\nObservability:\n")
		printFlagCategory([]string{"metrics", "textfile", "v", "log-format"})

		fmt.Fprintf(os.Stderr, "\nDashboard:\n")
		printFlagCategory([]string{"tui"})

		fmt.Fprintf(os.Stderr, "\nSafety & Diagnostics:\n")
		printFlagCategory([]string{"print-cmd", "check", "skip-preflight", "version"})

		fmt.Fprintf(os.Stderr, `
Flag Convention:
  Single-dash flags (-target, -sim) are normal options.
  Double-dash flags (--check, --skip-preflight) are diagnostic modes.

Templates:
  The -sim and -objdump commands are templates. {exe} expands to the
  executable under capture, {log} to the simulator log capture file.
  Without {log}, the simulator's stderr capture is parsed as the log.

Examples:
  # Capture one executable on the default sparc target
  covtrace build/hello.exe

  # Batch capture with a cross toolchain
  covtrace -target arm -objdump "arm-rtems-objdump -d {exe}" build/*.exe

  # Keep intermediate logs for debugging
  covtrace -keep-temps -v build/hello.exe

`)
	}

	// Target selection
	flag.StringVar(&cfg.Target, "target", cfg.Target, "Capture target architecture")
	flag.StringVar(&cfg.TargetsFile, "targets-file", cfg.TargetsFile, "YAML file with extra target definitions")

	// Tool commands
	flag.StringVar(&cfg.SimCommand, "sim", cfg.SimCommand, "Simulator command template ({exe}, {log})")
	flag.StringVar(&cfg.DisasmCommand, "objdump", cfg.DisasmCommand, "Disassembler command template ({exe})")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-run wall clock limit (0 = none)")

	// Capture files
	flag.StringVar(&cfg.ScratchDir, "scratch-dir", cfg.ScratchDir, "Directory for capture temp files (default: system temp)")
	flag.StringVar(&cfg.TraceSuffix, "trace-suffix", cfg.TraceSuffix, "Suffix for written trace artifacts")
	flag.BoolVar(&cfg.KeepTemps, "keep-temps", cfg.KeepTemps, "Keep capture temp files instead of deleting them")
	flag.StringVar(&cfg.ManifestPath, "manifest", cfg.ManifestPath, "Write a digest manifest of all artifacts to this path")

	// Observability
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Prometheus metrics listen address (empty = off)")
	flag.StringVar(&cfg.TextfilePath, "textfile", cfg.TextfilePath, "Export metrics to this textfile at exit (empty = off)")
	flag.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)

	// Dashboard
	flag.BoolVar(&cfg.TUIEnabled, "tui", cfg.TUIEnabled, "Enable live terminal dashboard for the batch")

	// Safety & Diagnostics (double-dash convention)
	flag.BoolVar(&cfg.PrintCmd, "print-cmd", cfg.PrintCmd, "Print expanded tool commands and exit")
	flag.BoolVar(&cfg.Check, "check", cfg.Check, "Validate config, run preflight checks, and exit")
	flag.BoolVar(&cfg.SkipPreflight, "skip-preflight", cfg.SkipPreflight, "Skip preflight checks")
	flag.BoolVar(&cfg.ShowVersion, "version", cfg.ShowVersion, "Print version and exit")

	// Parse
	flag.Parse()

	// Positional arguments: executables
	cfg.Executables = flag.Args()

	return cfg, nil
}

// printFlagCategory prints flags matching the given names (helper for usage).
func printFlagCategory(names []string) {
	flag.VisitAll(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				fmt.Fprintf(os.Stderr, "  -%s %s\n    \t%s", f.Name, flagType(f), f.Usage)
				if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "0s" && f.DefValue != "[]" {
					fmt.Fprintf(os.Stderr, " (default %s)", f.DefValue)
				}
				fmt.Fprintln(os.Stderr)
				return
			}
		}
	})
}

// flagType returns a type hint for the flag value.
func flagType(f *flag.Flag) string {
	// Infer type from default value format
	switch f.DefValue {
	case "true", "false":
		return ""
	}

	// Check if it looks like a duration
	if strings.HasSuffix(f.DefValue, "s") || strings.HasSuffix(f.DefValue, "m") || strings.HasSuffix(f.DefValue, "h") {
		return "duration"
	}

	// Check if numeric
	if _, err := fmt.Sscanf(f.DefValue, "%d", new(int)); err == nil {
		return "int"
	}

	return "string"
}
