// Package trace captures simulator execution as block records and
// serializes them into the fixed binary artifact the coverage analyzer
// consumes. The layout is byte-for-byte stable: an 18-byte header followed
// by 9-byte little-endian records.
package trace

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// On-disk format constants. Changing any of these breaks every consumer.
const (
	Magic   = "#QEMU-Traces"
	Version = 1

	// KindRaw tags an artifact holding raw block records.
	KindRaw = 0

	// OpBlock is set on every record's operation byte; the target's
	// taken or not-taken bit is OR'd in per exit reason.
	OpBlock = 0x10

	sizeofTargetPC = 32
)

var (
	// ErrInvalidFormat reports an artifact whose header does not carry the
	// trace magic.
	ErrInvalidFormat = errors.New("not a trace artifact")

	// ErrVersionMismatch reports an artifact written by an incompatible
	// format version.
	ErrVersionMismatch = errors.New("trace format version mismatch")
)

// header mirrors the artifact's fixed preamble. Fields are written packed,
// little-endian, 18 bytes total.
type header struct {
	Magic          [len(Magic)]byte
	Version        uint8
	Kind           uint8
	SizeofTargetPC uint8
	BigEndian      uint8
	Machine        [2]uint8
}

// entry mirrors one on-disk record: 9 bytes packed, little-endian.
type entry struct {
	PC   uint32
	Size uint32
	Op   uint8
}

func newHeader() header {
	var h header
	copy(h.Magic[:], Magic)
	h.Version = Version
	h.Kind = KindRaw
	h.SizeofTargetPC = sizeofTargetPC
	h.BigEndian = 0
	return h
}

// ReadFile loads an artifact back into a record list, reversing the
// operation bytes with the same target bits the writer used. Used to
// validate written artifacts and in tests.
func ReadFile(path string, taken, notTaken uint8) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("trace read %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)

	var h header
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("trace read %s: %w", path, ErrInvalidFormat)
	}
	if string(h.Magic[:]) != Magic {
		return nil, fmt.Errorf("trace read %s: %w", path, ErrInvalidFormat)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("trace read %s: %w: got %d, want %d",
			path, ErrVersionMismatch, h.Version, Version)
	}

	list := NewList()
	for {
		var e entry
		err := binary.Read(br, binary.LittleEndian, &e)
		if errors.Is(err, io.EOF) {
			return list, nil
		}
		if err != nil {
			return nil, fmt.Errorf("trace read %s: truncated record: %w", path, err)
		}

		reason := ExitOther
		switch {
		case e.Op&taken != 0:
			reason = ExitTaken
		case e.Op&notTaken != 0:
			reason = ExitNotTaken
		}
		list.Add(e.PC, e.PC+e.Size, reason)
	}
}
