package trace

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// sectionEnd closes the register-dump preamble of a capture log.
	sectionEnd = "----------------"

	// blockKey opens an executed-block section.
	blockKey = "IN:"
)

var (
	// ErrNotCaptureLog reports input that never reaches the preamble
	// separator, so it is not a simulator capture at all.
	ErrNotCaptureLog = errors.New("not a simulator capture log")

	// ErrEmptyLog reports a capture holding no executed blocks.
	ErrEmptyLog = errors.New("no executed blocks in capture log")
)

// LineReader is the line-oriented source a capture log is read from.
// Lines keep their terminator; an empty string marks exhausted input.
// *tempfile.File satisfies it.
type LineReader interface {
	ReadLine() (string, error)
}

// AddressResolver supplies the target knowledge the log itself does not
// carry: where an instruction's successor lives and which mnemonics are
// conditional branches.
type AddressResolver interface {
	// AddressAfter returns the fall-through address of the instruction at
	// addr, or 0 when addr is unknown.
	AddressAfter(addr uint32) uint32

	// IsBranch reports whether mnemonic is a conditional branch on the
	// current target.
	IsBranch(mnemonic string) bool
}

// instruction is one executed-instruction line of a capture log.
type instruction struct {
	addr     uint32
	mnemonic string
}

// ReadLog parses a simulator instruction capture into an executed-block
// list. Each block spans its first instruction's address up to the
// fall-through address of its last. A block ending in a conditional branch
// is classified by where execution resumed: at the fall-through address it
// was not taken, anywhere else it was taken. Blocks whose last address the
// resolver does not know are dropped.
func ReadLog(src LineReader, resolve AddressResolver) (*List, error) {
	list := NewList()

	found, err := skipUntil(src, sectionEnd)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("trace log: %w", ErrNotCaptureLog)
	}

	first, ok, err := nextBlockStart(src)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("trace log: %w", ErrEmptyLog)
	}

	for {
		// Extend through the block's remaining instruction lines. The
		// first line that does not parse ends the block and is consumed.
		last := first
		for {
			line, err := src.ReadLine()
			if err != nil {
				return nil, fmt.Errorf("trace log: %w", err)
			}
			if line == "" {
				break
			}
			insn, parsed := parseInstruction(line)
			if !parsed {
				break
			}
			last = insn
		}

		next, more, err := nextBlockStart(src)
		if err != nil {
			return nil, err
		}
		if !more {
			// A truncated capture ends mid-block. Classify against the
			// block's own last instruction, matching a branch-to-self.
			next = last
		}

		if end := resolve.AddressAfter(last.addr); end != 0 {
			reason := ExitOther
			if resolve.IsBranch(last.mnemonic) {
				if next.addr == end {
					reason = ExitNotTaken
				} else {
					reason = ExitTaken
				}
			}
			list.Add(first.addr, end, reason)
		}

		if !more {
			return list, nil
		}
		first = next
	}
}

// nextBlockStart scans for the next block marker and returns the first
// instruction recorded under it. Markers with no instruction line are
// skipped. ok is false once input is exhausted.
func nextBlockStart(src LineReader) (instruction, bool, error) {
	for {
		found, err := skipUntil(src, blockKey)
		if err != nil || !found {
			return instruction{}, false, err
		}
		line, err := src.ReadLine()
		if err != nil {
			return instruction{}, false, fmt.Errorf("trace log: %w", err)
		}
		if line == "" {
			return instruction{}, false, nil
		}
		if insn, parsed := parseInstruction(line); parsed {
			return insn, true, nil
		}
	}
}

// skipUntil discards lines until one beginning with prefix is found.
// found is false when input runs out first.
func skipUntil(src LineReader, prefix string) (bool, error) {
	for {
		line, err := src.ReadLine()
		if err != nil {
			return false, fmt.Errorf("trace log: %w", err)
		}
		if line == "" {
			return false, nil
		}
		if strings.HasPrefix(line, prefix) {
			return true, nil
		}
	}
}

// parseInstruction extracts the address and mnemonic from one executed
// instruction line of the form "0x<hex>: mnemonic [operands]".
func parseInstruction(line string) (instruction, bool) {
	if !strings.HasPrefix(line, "0x") {
		return instruction{}, false
	}
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return instruction{}, false
	}
	addr, err := strconv.ParseUint(line[2:colon], 16, 32)
	if err != nil {
		return instruction{}, false
	}
	fields := strings.Fields(line[colon+1:])
	if len(fields) == 0 {
		return instruction{}, false
	}
	return instruction{addr: uint32(addr), mnemonic: fields[0]}, true
}
