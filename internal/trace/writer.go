package trace

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

var (
	// ErrEmptyList reports an attempt to serialize a capture holding no
	// blocks. No artifact is created in that case.
	ErrEmptyList = errors.New("no trace records")

	// ErrBadExitReason reports a block whose exit reason has no encoding.
	// The artifact on disk is partial and must be discarded.
	ErrBadExitReason = errors.New("bad exit reason")
)

// Writer serializes block lists into trace artifacts.
type Writer struct {
	logger *slog.Logger
}

func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

// WriteFile serializes list to path using the target's taken and notTaken
// operation bits. An empty list is rejected before the file is created, so
// a failed capture never leaves a headers-only artifact behind.
func (w *Writer) WriteFile(path string, list *List, taken, notTaken uint8) error {
	if list == nil || list.Len() == 0 {
		return fmt.Errorf("trace write %s: %w", path, ErrEmptyList)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("trace write %s: %w", path, err)
	}
	defer f.Close()

	echo := w.logger.Enabled(context.Background(), slog.LevelDebug)

	bw := bufio.NewWriter(f)

	h := newHeader()
	if err := binary.Write(bw, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("trace write %s: header: %w", path, err)
	}
	if echo {
		w.logger.Debug("trace_header",
			"path", path,
			"version", h.Version,
			"kind", h.Kind,
			"pc_bits", h.SizeofTargetPC,
		)
	}

	for _, r := range list.Ranges() {
		op := uint8(OpBlock)
		switch r.Reason {
		case ExitTaken:
			op |= taken
		case ExitNotTaken:
			op |= notTaken
		case ExitOther:
		default:
			return fmt.Errorf("trace write %s: %w: %d", path, ErrBadExitReason, r.Reason)
		}

		e := entry{PC: r.Address, Size: r.Length, Op: op}
		if err := binary.Write(bw, binary.LittleEndian, e); err != nil {
			return fmt.Errorf("trace write %s: record: %w", path, err)
		}
		if echo {
			w.logger.Debug("trace_record",
				"pc", fmt.Sprintf("%#08x", e.PC),
				"size", e.Size,
				"op", fmt.Sprintf("%#02x", e.Op),
			)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("trace write %s: flush: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("trace write %s: close: %w", path, err)
	}

	w.logger.Debug("trace_written", "path", path, "records", list.Len())

	return nil
}
