package process

import (
	"errors"
	"strings"

	"github.com/covtrace/covtrace/internal/cmdline"
)

// Builder expands a command template into an argument vector for one
// target executable.
// This interface allows the harness to be tool-agnostic.
type Builder interface {
	// BuildArgv returns the fully expanded argument vector for exe.
	// The command is NOT started yet.
	BuildArgv(exe, logPath string) ([]string, error)

	// Name returns a human-readable name for this tool.
	Name() string
}

// expandRaw substitutes the {exe} and {log} placeholders.
func expandRaw(template, exe, logPath string) string {
	s := strings.ReplaceAll(template, "{exe}", exe)
	return strings.ReplaceAll(s, "{log}", logPath)
}

// expandTemplate substitutes placeholders and tokenizes the result.
// Substitution happens first, so a path with spaces needs quotes
// around its placeholder in the template.
func expandTemplate(template, exe, logPath string) ([]string, error) {
	argv, err := cmdline.Split(expandRaw(template, exe, logPath))
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, errors.New("empty command template")
	}
	return argv, nil
}

// CommandHead returns the first token of an unexpanded template, or ""
// when the template does not tokenize. The head may still contain a
// placeholder when the template starts with one.
func CommandHead(template string) string {
	argv, err := cmdline.Split(template)
	if err != nil || len(argv) == 0 {
		return ""
	}
	return argv[0]
}
