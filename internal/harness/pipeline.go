package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/covtrace/covtrace/internal/digest"
	"github.com/covtrace/covtrace/internal/logging"
	"github.com/covtrace/covtrace/internal/objmap"
	"github.com/covtrace/covtrace/internal/process"
	"github.com/covtrace/covtrace/internal/stats"
	"github.com/covtrace/covtrace/internal/tempfile"
	"github.com/covtrace/covtrace/internal/trace"
)

// Capture file suffixes. The registry builds the actual paths.
const (
	listingSuffix = ".dis"
	logSuffix     = ".simlog"
	consoleSuffix = ".con"
)

// capture runs the pipeline stages for one executable. Any stage error
// ends the run; the caller stamps Executable and Duration.
func (h *Harness) capture(ctx context.Context, exe string) stats.RunResult {
	var result stats.RunResult

	listing, err := h.registry.NewFile(listingSuffix, h.config.KeepTemps)
	if err != nil {
		result.Err = err
		return result
	}
	defer listing.Release()

	m, err := h.disassemble(ctx, exe, listing)
	if err != nil {
		result.Err = err
		return result
	}

	simLog, err := h.registry.NewFile(logSuffix, h.config.KeepTemps)
	if err != nil {
		result.Err = err
		return result
	}
	defer simLog.Release()

	status, err := h.simulate(ctx, exe, simLog)
	result.Status = status
	if err != nil {
		result.Err = err
		return result
	}

	list, err := h.readLog(simLog, m)
	if err != nil {
		result.Err = err
		return result
	}
	result.Records = list.Len()

	tracePath := exe + h.config.TraceSuffix
	if err := h.writer.WriteFile(tracePath, list, h.def.TakenBit, h.def.NotTakenBit); err != nil {
		result.Err = err
		return result
	}
	result.TracePath = tracePath

	dg, size, err := digest.File(tracePath)
	if err != nil {
		result.Err = err
		return result
	}
	result.Digest = dg
	result.TraceBytes = size

	return result
}

// disassemble runs the disassembler with its stdout captured into
// listing, then indexes the listing.
func (h *Harness) disassemble(ctx context.Context, exe string, listing *tempfile.File) (*objmap.Map, error) {
	argv, err := h.disasm.BuildArgv(exe, "")
	if err != nil {
		return nil, err
	}

	stderr, err := h.registry.NewFile(consoleSuffix, h.config.KeepTemps)
	if err != nil {
		return nil, err
	}
	defer stderr.Release()

	status, err := h.executor.Execute(ctx, h.disasm.Name(), argv, listing.Name(), stderr.Name())
	if err != nil {
		return nil, err
	}
	if !status.Success() {
		h.echoCapture(exe, stderr)
		return nil, fmt.Errorf("disassembler %s", status)
	}

	if err := listing.Open(false); err != nil {
		return nil, err
	}
	defer listing.Close()

	return objmap.Read(listing, h.def.Branches)
}

// simulate runs the simulator for exe. With a {log} placeholder in the
// template the simulator writes the instruction log itself; without one
// the stderr capture is parsed as the log. A nonzero exit does not end
// the run: embedded kernels shut emulators down with all kinds of codes,
// and the log parse decides whether the capture is usable.
func (h *Harness) simulate(ctx context.Context, exe string, simLog *tempfile.File) (status process.Status, err error) {
	runCtx := ctx
	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	console, err := h.registry.NewFile(consoleSuffix, h.config.KeepTemps)
	if err != nil {
		return status, err
	}
	defer console.Release()

	var argv []string
	stderrPath := console.Name()
	if h.sim.WritesLog() {
		argv, err = h.sim.BuildArgv(exe, simLog.Name())
	} else {
		argv, err = h.sim.BuildArgv(exe, "")
		stderrPath = simLog.Name()
	}
	if err != nil {
		return status, err
	}

	status, err = h.executor.Execute(runCtx, h.sim.Name(), argv, console.Name(), stderrPath)
	if err != nil {
		return status, err
	}

	// A killed child reports a signal status, so check the context to
	// tell a timeout from a real crash.
	if ctxErr := runCtx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return status, fmt.Errorf("simulator timed out after %s", h.config.Timeout)
		}
		return status, ctxErr
	}

	h.echoCapture(exe, console)
	if !status.Success() {
		h.logger.Warn("sim_exit_status", "exe", exe, "status", status.String())
	}
	return status, nil
}

// readLog parses the captured instruction log into an executed-block
// list.
func (h *Harness) readLog(simLog *tempfile.File, m *objmap.Map) (*trace.List, error) {
	if err := simLog.Open(false); err != nil {
		return nil, err
	}
	defer simLog.Close()

	return trace.ReadLog(simLog, m)
}

// echoCapture replays captured console output into the log. Warnings and
// failure patterns always surface; the rest only with --verbose.
func (h *Harness) echoCapture(exe string, capture *tempfile.File) {
	if err := capture.Open(false); err != nil {
		return
	}
	defer capture.Close()

	echo := logging.NewCaptureEcho(exe, h.logger, h.config.Verbose)
	for {
		line, err := capture.ReadLine()
		if err != nil || line == "" {
			return
		}
		echo.HandleLine(strings.TrimRight(line, "\r\n"))
	}
}
