package process

import "fmt"

// Kind classifies how a spawned child terminated.
type Kind int

const (
	// NormalExit means the child exited on its own; Code carries the exit code.
	NormalExit Kind = iota
	// Signaled means a signal terminated the child; Code carries the signal number.
	Signaled
	// Stopped means a signal stopped the child; Code carries the stop signal number.
	Stopped
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case NormalExit:
		return "exit"
	case Signaled:
		return "signal"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Status describes one reaped child process. It is produced exactly once per
// execution and never modified afterwards.
type Status struct {
	Kind Kind
	Code int
}

// Success reports a clean zero exit.
func (s Status) Success() bool {
	return s.Kind == NormalExit && s.Code == 0
}

func (s Status) String() string {
	return fmt.Sprintf("%s %d", s.Kind, s.Code)
}
