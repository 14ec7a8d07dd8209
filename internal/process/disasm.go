package process

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// DisasmConfig holds configuration for disassembler invocations.
type DisasmConfig struct {
	// Template is the command template. {exe} expands to the target
	// executable path. The listing is read from the tool's stdout, so
	// no {log} placeholder is needed.
	Template string
}

// DefaultDisasmConfig returns a DisasmConfig using GNU objdump.
func DefaultDisasmConfig() *DisasmConfig {
	return &DisasmConfig{
		Template: "objdump -d {exe}",
	}
}

// DisasmRunner implements Builder for the disassembler.
type DisasmRunner struct {
	config *DisasmConfig
}

// NewDisasmRunner creates a disassembler runner with the given
// configuration.
func NewDisasmRunner(cfg *DisasmConfig) *DisasmRunner {
	return &DisasmRunner{
		config: cfg,
	}
}

// Name returns the disassembler binary name taken from the template
// head, or "disassembler" when the head is dynamic.
func (r *DisasmRunner) Name() string {
	head := CommandHead(r.config.Template)
	if head == "" || strings.Contains(head, "{") {
		return "disassembler"
	}
	return filepath.Base(head)
}

// BuildArgv expands the template for one executable. The logPath
// argument satisfies Builder; the listing goes to stdout.
func (r *DisasmRunner) BuildArgv(exe, logPath string) ([]string, error) {
	argv, err := expandTemplate(r.config.Template, exe, logPath)
	if err != nil {
		return nil, fmt.Errorf("disassembler command: %w", err)
	}
	return argv, nil
}

// Available reports whether the disassembler binary resolves on PATH.
// A dynamic head cannot be pre-checked and reports true.
func (r *DisasmRunner) Available() bool {
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
func (r *DisasmRunner) CommandString(exe string) string {
	return expandRaw(r.config.Template, exe, "")
}

// Config returns the disassembler configuration.
func (r *DisasmRunner) Config() *DisasmConfig {
	return r.config
}
