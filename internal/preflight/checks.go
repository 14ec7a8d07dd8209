// Package preflight provides startup validation checks.
package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/covtrace/covtrace/internal/process"
)

// Check represents the result of a single preflight check.
type Check struct {
	Name    string // Name of the check
	Passed  bool   // Whether the check passed
	Warning bool   // True if it's a warning (non-fatal)
	Message string // Additional context
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// String returns a human-readable summary of the check.
func (c Check) String() string {
	status := "✓"
	if !c.Passed {
		status = "✗"
	} else if c.Warning {
		status = "⚠"
	}
	return fmt.Sprintf("  %s %s: %s", status, c.Name, c.Message)
}

// Params holds everything the checks need. The caller resolves these
// from its configuration so this package stays config-agnostic.
type Params struct {
	Target        string
	KnownTargets  []string
	SimCommand    string
	DisasmCommand string
	ScratchDir    string
	Executables   []string
}

// RunAll executes all preflight checks.
func RunAll(p Params) *Result {
	result := &Result{
		Checks: make([]Check, 0, 5),
		Passed: true,
	}

	for _, check := range []Check{
		checkTarget(p.Target, p.KnownTargets),
		checkTool("simulator", p.SimCommand),
		checkTool("disassembler", p.DisasmCommand),
		checkScratchDir(p.ScratchDir),
		checkExecutables(p.Executables),
	} {
		result.Checks = append(result.Checks, check)
		if !check.Passed {
			result.Passed = false
		}
	}

	return result
}

// checkTarget verifies the selected architecture has a branch set.
func checkTarget(target string, known []string) Check {
	if slices.Contains(known, target) {
		return Check{
			Name:    "target",
			Passed:  true,
			Message: fmt.Sprintf("%s branch set loaded", target),
		}
	}
	return Check{
		Name:    "target",
		Passed:  false,
		Message: fmt.Sprintf("unknown target %q (known: %s)", target, strings.Join(known, ", ")),
	}
}

// checkTool verifies a command template tokenizes and its binary
// resolves on PATH. A template whose head is a placeholder resolves per
// executable and cannot be pre-checked.
func checkTool(name, template string) Check {
	head := process.CommandHead(template)
	if head == "" {
		return Check{
			Name:    name,
			Passed:  false,
			Message: "command template does not tokenize",
		}
	}

	if strings.Contains(head, "{") {
		return Check{
			Name:    name,
			Passed:  true,
			Warning: true,
			Message: fmt.Sprintf("head %q is resolved per executable", head),
		}
	}

	path, err := exec.LookPath(head)
	if err != nil {
		return Check{
			Name:    name,
			Passed:  false,
			Message: fmt.Sprintf("%s not found on PATH", head),
		}
	}
	return Check{
		Name:    name,
		Passed:  true,
		Message: fmt.Sprintf("found at %s", path),
	}
}

// checkScratchDir verifies capture files can be created.
func checkScratchDir(dir string) Check {
	if dir == "" {
		dir = os.TempDir()
	}

	probe, err := os.CreateTemp(dir, "covtrace-preflight-*")
	if err != nil {
		return Check{
			Name:    "scratch_dir",
			Passed:  false,
			Message: fmt.Sprintf("%s not writable: %v", dir, err),
		}
	}
	probe.Close()
	os.Remove(probe.Name())

	return Check{
		Name:    "scratch_dir",
		Passed:  true,
		Message: fmt.Sprintf("%s writable", dir),
	}
}

// checkExecutables verifies the target executables exist.
func checkExecutables(exes []string) Check {
	if len(exes) == 0 {
		return Check{
			Name:    "executables",
			Passed:  true,
			Warning: true,
			Message: "none given",
		}
	}

	var missing []string
	for _, exe := range exes {
		if _, err := os.Stat(exe); err != nil {
			missing = append(missing, exe)
		}
	}

	if len(missing) > 0 {
		return Check{
			Name:    "executables",
			Passed:  false,
			Message: fmt.Sprintf("%d of %d missing (first: %s)", len(missing), len(exes), missing[0]),
		}
	}
	return Check{
		Name:    "executables",
		Passed:  true,
		Message: fmt.Sprintf("%d found", len(exes)),
	}
}

// PrintResults prints the preflight check results to stdout.
func PrintResults(result *Result) {
	fmt.Println("Preflight checks:")
	for _, check := range result.Checks {
		fmt.Println(check.String())
		if !check.Passed {
			fmt.Printf("    Fix: %s\n", suggestFix(check.Name))
		}
	}
	fmt.Println()
}

// suggestFix returns a suggestion for fixing a failed check.
func suggestFix(name string) string {
	switch name {
	case "target":
		return "use a builtin target or add a definition via --targets-file"
	case "simulator":
		return "install the simulator or set --sim with its full path"
	case "disassembler":
		return "install binutils or set --objdump with the cross objdump"
	case "scratch_dir":
		return "set --scratch-dir to a writable directory"
	case "executables":
		return "check the executable paths given on the command line"
	default:
		return "see documentation"
	}
}
