package tempfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// readBufSize is the capacity of the line reader's internal buffer. Lines
// longer than this are assembled across multiple refills.
const readBufSize = 1024

const lineSeparator = "\n"

// ErrAlreadyOpen is returned by Override when the handle is still open.
var ErrAlreadyOpen = errors.New("already open")

// File is a handle to one registry-tracked temporary file. It offers block
// and line oriented I/O; the line reader keeps a fixed buffer between calls
// so partial lines survive exactly across reads.
//
// A File is not safe for concurrent use.
type File struct {
	reg        *Registry
	name       string
	suffix     string
	overridden bool
	handle     *os.File
	buf        []byte
	level      int
}

// NewFile allocates a registry-tracked file ending in suffix. The keep flag
// makes Release leave the file on disk.
func (r *Registry) NewFile(suffix string, keep bool) (*File, error) {
	name, err := r.Acquire(suffix, keep)
	if err != nil {
		return nil, err
	}
	return &File{
		reg:    r,
		name:   name,
		suffix: suffix,
		buf:    make([]byte, readBufSize),
	}, nil
}

// New allocates a file from the Default registry.
func New(suffix string) (*File, error) {
	return Default.NewFile(suffix, false)
}

// Name returns the current backing path.
func (f *File) Name() string {
	return f.name
}

// Open opens the handle read-only or read-write. Opening an already open
// handle is a no-op. In write mode an overridden path is created or
// truncated; any other path must already exist (Acquire leaves it in place).
// The line buffer resets on every open.
func (f *File) Open(writable bool) error {
	if f.handle != nil {
		return nil
	}

	flags := os.O_RDONLY
	var mode os.FileMode
	if writable {
		flags = os.O_RDWR
		mode = 0o600
	}
	if writable && f.overridden {
		flags |= os.O_CREATE | os.O_TRUNC | os.O_APPEND
	} else if _, err := os.Stat(f.name); err != nil {
		return fmt.Errorf("tempfile open %s: %w", f.name, os.ErrNotExist)
	}

	h, err := os.OpenFile(f.name, flags, mode)
	if err != nil {
		return fmt.Errorf("tempfile open %s: %w", f.name, err)
	}
	f.handle = h
	f.level = 0
	return nil
}

// Close closes the handle and resets the line buffer. Closing a closed
// handle is a no-op.
func (f *File) Close() error {
	if f.handle == nil {
		return nil
	}
	err := f.handle.Close()
	f.handle = nil
	f.level = 0
	return err
}

// Release closes the handle and hands the path back to the registry, which
// deletes the file unless it is marked keep. Use with defer so cleanup runs
// on every exit path.
func (f *File) Release() {
	f.Close()
	f.reg.Release(f.name)
}

// Override rebinds the handle to base plus the original suffix and removes
// whatever sat at the previous path. The next writable Open creates or
// truncates the new file. Overridden paths belong to the caller; the
// registry stops tracking them. Fails when the handle is open.
func (f *File) Override(base string) error {
	if f.handle != nil {
		return fmt.Errorf("tempfile override %s: %w", f.name, ErrAlreadyOpen)
	}
	os.Remove(f.name)
	f.reg.forget(f.name)
	f.overridden = true
	f.name = base + f.suffix
	return nil
}

// MarkKeep flags the current path so Release leaves it on disk.
func (f *File) MarkKeep() {
	f.reg.MarkKeep(f.name)
}

// Size returns the on-disk size, or 0 when the handle is closed.
func (f *File) Size() int64 {
	if f.handle == nil {
		return 0
	}
	info, err := os.Stat(f.name)
	if err != nil {
		return 0
	}
	return info.Size()
}

// ReadAll drains the handle from the current position to end of file,
// starting with any bytes the line reader still holds. A closed handle
// yields an empty string.
func (f *File) ReadAll() (string, error) {
	if f.handle == nil {
		return "", nil
	}
	var all []byte
	if f.level > 0 {
		all = append(all, f.buf[:f.level]...)
		f.level = 0
	}
	rest, err := io.ReadAll(f.handle)
	if err != nil {
		return "", fmt.Errorf("tempfile read %s: %w", f.name, err)
	}
	return string(append(all, rest...)), nil
}

// ReadLine returns the next line including its terminator. Each call tops
// the internal buffer up from the handle, takes everything through the first
// line feed, and slides the leftover to the front for the next call. A line
// longer than the buffer is assembled across refills. Once the handle is
// exhausted and the buffer is empty the returned line is empty.
func (f *File) ReadLine() (string, error) {
	if f.handle == nil {
		return "", nil
	}

	var line []byte
	reading := true
	for reading {
		if f.level < len(f.buf) {
			n, err := f.handle.Read(f.buf[f.level:])
			if n > 0 {
				f.level += n
			}
			if errors.Is(err, io.EOF) {
				reading = false
			} else if err != nil {
				return "", fmt.Errorf("tempfile read %s: %w", f.name, err)
			}
		}
		if f.level > 0 {
			n := f.level
			if lf := bytes.IndexByte(f.buf[:f.level], '\n'); lf >= 0 {
				n = lf + 1
				reading = false
			}
			line = append(line, f.buf[:n]...)
			f.level -= n
			if f.level > 0 {
				copy(f.buf, f.buf[n:n+f.level])
			}
		}
	}
	return string(line), nil
}

// Write writes b at the current position. A short write surfaces as an
// error instead of silently dropping the tail.
func (f *File) Write(b []byte) error {
	if f.handle == nil {
		return fmt.Errorf("tempfile write %s: %w", f.name, os.ErrClosed)
	}
	n, err := f.handle.Write(b)
	if err != nil {
		return fmt.Errorf("tempfile write %s: %w", f.name, err)
	}
	if n < len(b) {
		return fmt.Errorf("tempfile write %s: %w", f.name, io.ErrShortWrite)
	}
	return nil
}

// WriteString writes s at the current position.
func (f *File) WriteString(s string) error {
	return f.Write([]byte(s))
}

// WriteLine writes s followed by the line separator.
func (f *File) WriteLine(s string) error {
	if err := f.WriteString(s); err != nil {
		return err
	}
	return f.WriteString(lineSeparator)
}

// WriteLines writes each entry as one line.
func (f *File) WriteLines(lines []string) error {
	for _, s := range lines {
		if err := f.WriteLine(s); err != nil {
			return err
		}
	}
	return nil
}

// Dump streams the file's lines to out, each optionally led by a prefix
// label and a 1-based line number. The file is reopened read-only and closed
// again afterwards; calling Dump on an open handle is a no-op. Diagnostic
// use only.
func (f *File) Dump(out io.Writer, prefix string, lineNumbers bool) error {
	if f.handle != nil {
		return nil
	}
	if err := f.Open(false); err != nil {
		return err
	}
	defer f.Close()

	for lc := 1; ; lc++ {
		line, err := f.ReadLine()
		if err != nil {
			return err
		}
		if line == "" {
			return nil
		}
		switch {
		case prefix != "" && lineNumbers:
			_, err = fmt.Fprintf(out, "%s: %d: %s", prefix, lc, line)
		case prefix != "":
			_, err = fmt.Fprintf(out, "%s: %s", prefix, line)
		case lineNumbers:
			_, err = fmt.Fprintf(out, "%d: %s", lc, line)
		default:
			_, err = io.WriteString(out, line)
		}
		if err != nil {
			return fmt.Errorf("tempfile dump %s: %w", f.name, err)
		}
	}
}
