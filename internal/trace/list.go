package trace

// ExitReason classifies how control left an executed block.
type ExitReason int

const (
	// ExitOther covers fall-through, calls, jumps, and anything that is
	// not a resolved conditional branch.
	ExitOther ExitReason = iota

	// ExitTaken marks a block ending in a conditional branch that was taken.
	ExitTaken

	// ExitNotTaken marks a block ending in a conditional branch that fell
	// through.
	ExitNotTaken
)

func (r ExitReason) String() string {
	switch r {
	case ExitOther:
		return "other"
	case ExitTaken:
		return "taken"
	case ExitNotTaken:
		return "not-taken"
	default:
		return "unknown"
	}
}

// Range is one executed block: a start address, the byte length covered,
// and how control left it.
type Range struct {
	Address uint32
	Length  uint32
	Reason  ExitReason
}

// List accumulates executed block ranges in capture order.
type List struct {
	ranges []Range
}

func NewList() *List {
	return &List{}
}

// Add records the block covering [low, high). Callers pass the address one
// past the final instruction as high.
func (l *List) Add(low, high uint32, reason ExitReason) {
	l.ranges = append(l.ranges, Range{
		Address: low,
		Length:  high - low,
		Reason:  reason,
	})
}

// Len returns the number of recorded blocks.
func (l *List) Len() int {
	return len(l.ranges)
}

// Ranges exposes the recorded blocks in capture order. The returned slice
// is the list's backing store; callers must not mutate it.
func (l *List) Ranges() []Range {
	return l.ranges
}
