package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors and inconsistencies.
// Returns nil if valid, or an error describing the problem.
func Validate(cfg *Config) error {
	var errs []error

	// Executables are required unless a diagnostic mode runs without them
	if len(cfg.Executables) == 0 && !cfg.PrintCmd && !cfg.Check && !cfg.ShowVersion {
		errs = append(errs, ValidationError{
			Field:   "executables",
			Message: "at least one executable is required",
		})
	}

	// Target must be named
	if cfg.Target == "" {
		errs = append(errs, ValidationError{
			Field:   "target",
			Message: "must not be empty",
		})
	}

	// Simulator command template
	if err := validateTemplate(cfg.SimCommand); err != nil {
		errs = append(errs, ValidationError{
			Field:   "sim",
			Message: err.Error(),
		})
	}

	// Disassembler command template
	if err := validateTemplate(cfg.DisasmCommand); err != nil {
		errs = append(errs, ValidationError{
			Field:   "objdump",
			Message: err.Error(),
		})
	}

	// Trace suffix must separate cleanly from the executable name
	if cfg.TraceSuffix == "" || !strings.HasPrefix(cfg.TraceSuffix, ".") {
		errs = append(errs, ValidationError{
			Field:   "trace_suffix",
			Message: fmt.Sprintf(`must start with "." (got %q)`, cfg.TraceSuffix),
		})
	}

	// Log format must be valid
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.LogFormat] {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json' or 'text' (got %q)", cfg.LogFormat),
		})
	}

	// Timeout must not be negative
	if cfg.Timeout < 0 {
		errs = append(errs, ValidationError{
			Field:   "timeout",
			Message: "must not be negative",
		})
	}

	// Metrics address must look like host:port when set
	if cfg.MetricsAddr != "" && !strings.Contains(cfg.MetricsAddr, ":") {
		errs = append(errs, ValidationError{
			Field:   "metrics",
			Message: fmt.Sprintf("must be a host:port listen address (got %q)", cfg.MetricsAddr),
		})
	}

	// The TUI owns the terminal; per-run command echo would corrupt it
	if cfg.TUIEnabled && cfg.PrintCmd {
		errs = append(errs, ValidationError{
			Field:   "tui",
			Message: "cannot combine -tui with --print-cmd",
		})
	}

	// Return combined errors
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// validateTemplate checks a tool command template.
func validateTemplate(template string) error {
	if strings.TrimSpace(template) == "" {
		return errors.New("must not be empty")
	}
	if !strings.Contains(template, "{exe}") {
		return errors.New("must contain the {exe} placeholder")
	}
	return nil
}
