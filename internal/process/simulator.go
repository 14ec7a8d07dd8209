package process

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// SimulatorConfig holds configuration for simulator invocations.
type SimulatorConfig struct {
	// Template is the command template. {exe} expands to the target
	// executable path and {log} to the capture log path. A template
	// without {log} means the simulator writes the capture to stderr.
	Template string

	// Timeout bounds a single run. Zero means no limit.
	Timeout time.Duration
}

// DefaultSimulatorConfig returns a SimulatorConfig for a SPARC QEMU.
func DefaultSimulatorConfig() *SimulatorConfig {
	return &SimulatorConfig{
		// nochain keeps the emulator from fusing translated blocks, so
		// every executed block reaches the log.
		Template: "qemu-system-sparc -nographic -no-reboot -d in_asm,nochain -D {log} -kernel {exe}",
	}
}

// SimulatorRunner implements Builder for the instruction-capture
// simulator.
type SimulatorRunner struct {
	config *SimulatorConfig
}

// NewSimulatorRunner creates a simulator runner with the given
// configuration.
func NewSimulatorRunner(cfg *SimulatorConfig) *SimulatorRunner {
	return &SimulatorRunner{
		config: cfg,
	}
}

// Name returns the simulator binary name taken from the template head,
// or "simulator" when the head is dynamic.
func (r *SimulatorRunner) Name() string {
	head := CommandHead(r.config.Template)
	if head == "" || strings.Contains(head, "{") {
		return "simulator"
	}
	return filepath.Base(head)
}

// WritesLog reports whether the template names a {log} capture path.
// Without one, the harness parses the stderr capture as the log.
func (r *SimulatorRunner) WritesLog() bool {
	return strings.Contains(r.config.Template, "{log}")
}

// BuildArgv expands the template for one executable.
func (r *SimulatorRunner) BuildArgv(exe, logPath string) ([]string, error) {
	argv, err := expandTemplate(r.config.Template, exe, logPath)
	if err != nil {
		return nil, fmt.Errorf("simulator command: %w", err)
	}
	return argv, nil
}

// Available reports whether the simulator binary resolves on PATH.
// A dynamic head cannot be pre-checked and reports true.
func (r *SimulatorRunner) Available() bool {
	head := CommandHead(r.config.Template)
	if head == "" {
		return false
	}
	if strings.Contains(head, "{") {
		return true
	}
	_, err := exec.LookPath(head)
	return err == nil
}

// CommandString returns the expanded command line (for --print-cmd).
func (r *SimulatorRunner) CommandString(exe, logPath string) string {
	return expandRaw(r.config.Template, exe, logPath)
}

// Config returns the simulator configuration.
func (r *SimulatorRunner) Config() *SimulatorConfig {
	return r.config
}
