// Package config provides configuration management for covtrace.
package config

import "time"

// Config holds all configuration options for a capture batch.
type Config struct {
	// Batch
	Executables []string      `json:"executables"`
	Timeout     time.Duration `json:"timeout"` // per run, 0 = no limit

	// Target
	Target      string `json:"target"`
	TargetsFile string `json:"targets_file"`

	// Simulator
	SimCommand string `json:"sim_command"` // template, {exe} and {log} placeholders

	// Disassembler
	DisasmCommand string `json:"disasm_command"` // template, {exe} placeholder

	// Capture files
	ScratchDir  string `json:"scratch_dir"` // empty = system temp dir
	TraceSuffix string `json:"trace_suffix"`
	KeepTemps   bool   `json:"keep_temps"`

	// Outputs
	ManifestPath string `json:"manifest_path"` // empty = no manifest

	// Observability
	MetricsAddr  string `json:"metrics_addr"`  // empty = no listener
	TextfilePath string `json:"textfile_path"` // empty = no textfile export
	Verbose      bool   `json:"verbose"`
	LogFormat    string `json:"log_format"` // json, text

	// Dashboard
	TUIEnabled bool `json:"tui"`

	// Diagnostic modes
	PrintCmd      bool `json:"print_cmd"`
	Check         bool `json:"check"`
	SkipPreflight bool `json:"skip_preflight"`
	ShowVersion   bool `json:"version"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		// Batch
		Timeout: 0, // No limit

		// Target
		Target: "sparc",

		// Simulator. nochain keeps the emulator from fusing translated
		// blocks, so every executed block reaches the log.
		SimCommand: "qemu-system-sparc -nographic -no-reboot -d in_asm,nochain -D {log} -kernel {exe}",

		// Disassembler
		DisasmCommand: "objdump -d {exe}",

		// Capture files
		ScratchDir:  "", // System temp dir
		TraceSuffix: ".cov",
		KeepTemps:   false,

		// Observability
		MetricsAddr:  "", // Disabled
		TextfilePath: "", // Disabled
		Verbose:      false,
		LogFormat:    "json",

		// Dashboard
		TUIEnabled: false,
	}
}
