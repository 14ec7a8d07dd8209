package tempfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestFile(t *testing.T, suffix string) *File {
	t.Helper()
	reg := NewRegistry(t.TempDir())
	f, err := reg.NewFile(suffix, false)
	if err != nil {
		t.Fatalf("NewFile returned error: %v", err)
	}
	return f
}

func TestOpenReadMissingFile(t *testing.T) {
	f := newTestFile(t, ".txt")
	if err := os.Remove(f.Name()); err != nil {
		t.Fatal(err)
	}

	err := f.Open(false)
	if err == nil {
		t.Fatal("Expected not-found error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist: %v", err)
	}
}

func TestOpenWriteMissingFile(t *testing.T) {
	// Write mode on a non-overridden path still requires the file Acquire
	// left in place.
	f := newTestFile(t, ".txt")
	if err := os.Remove(f.Name()); err != nil {
		t.Fatal(err)
	}

	if err := f.Open(true); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist: %v", err)
	}
}

func TestOpenIdempotent(t *testing.T) {
	f := newTestFile(t, ".txt")
	defer f.Release()

	if err := f.Open(true); err != nil {
		t.Fatal(err)
	}
	if err := f.WriteString("x"); err != nil {
		t.Fatal(err)
	}

	// Second open must not reposition or truncate.
	if err := f.Open(true); err != nil {
		t.Errorf("reopening an open handle should be a no-op: %v", err)
	}
	if err := f.WriteString("y"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "xy" {
		t.Errorf("content = %q, want %q", content, "xy")
	}
}

func TestCloseIdempotent(t *testing.T) {
	f := newTestFile(t, ".txt")
	defer f.Release()

	if err := f.Open(false); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("first close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second close should be a no-op: %v", err)
	}
}

func TestWriteClosedHandle(t *testing.T) {
	f := newTestFile(t, ".txt")
	defer f.Release()

	if err := f.WriteString("x"); !errors.Is(err, os.ErrClosed) {
		t.Errorf("write on closed handle should wrap os.ErrClosed: %v", err)
	}
}

func TestWriteLineReadLineRoundTrip(t *testing.T) {
	testCases := []struct {
		name  string
		lines []string
	}{
		{"single", []string{"hello"}},
		{"several", []string{"alpha", "beta", "gamma"}},
		{"empty_lines", []string{"", "a", "", "b", ""}},
		{"longer_than_buffer", []string{strings.Repeat("x", readBufSize*3+17), "tail"}},
		{"exactly_buffer", []string{strings.Repeat("y", readBufSize-1)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newTestFile(t, ".txt")
			defer f.Release()

			if err := f.Open(true); err != nil {
				t.Fatal(err)
			}
			if err := f.WriteLines(tc.lines); err != nil {
				t.Fatal(err)
			}
			if err := f.Close(); err != nil {
				t.Fatal(err)
			}

			if err := f.Open(false); err != nil {
				t.Fatal(err)
			}
			for i, want := range tc.lines {
				got, err := f.ReadLine()
				if err != nil {
					t.Fatalf("ReadLine %d: %v", i, err)
				}
				if got != want+"\n" {
					t.Errorf("line %d = %q, want %q", i, got, want+"\n")
				}
			}

			// Exhausted handle keeps returning the empty sentinel.
			for i := 0; i < 2; i++ {
				got, err := f.ReadLine()
				if err != nil {
					t.Fatal(err)
				}
				if got != "" {
					t.Errorf("expected empty line at EOF, got %q", got)
				}
			}
		})
	}
}

func TestReadLineSlidesAcrossTinyBuffer(t *testing.T) {
	f := newTestFile(t, ".txt")
	defer f.Release()
	f.buf = make([]byte, 8)

	if err := f.Open(true); err != nil {
		t.Fatal(err)
	}
	if err := f.WriteString("abcdefghij\nkl\nmnopqrstuv\n"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	if err := f.Open(false); err != nil {
		t.Fatal(err)
	}
	want := []string{"abcdefghij\n", "kl\n", "mnopqrstuv\n", ""}
	for i, w := range want {
		got, err := f.ReadLine()
		if err != nil {
			t.Fatal(err)
		}
		if got != w {
			t.Errorf("line %d = %q, want %q", i, got, w)
		}
	}
}

func TestReadLineNoTrailingNewline(t *testing.T) {
	f := newTestFile(t, ".txt")
	defer f.Release()

	if err := f.Open(true); err != nil {
		t.Fatal(err)
	}
	if err := f.WriteString("no terminator"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	if err := f.Open(false); err != nil {
		t.Fatal(err)
	}
	got, err := f.ReadLine()
	if err != nil {
		t.Fatal(err)
	}
	if got != "no terminator" {
		t.Errorf("final partial line = %q, want %q", got, "no terminator")
	}

	got, err = f.ReadLine()
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("expected empty sentinel after partial line, got %q", got)
	}
}

func TestReadLineClosedHandle(t *testing.T) {
	f := newTestFile(t, ".txt")
	defer f.Release()

	got, err := f.ReadLine()
	if err != nil || got != "" {
		t.Errorf("ReadLine on closed handle = (%q, %v), want empty", got, err)
	}
}

func TestReadAllIncludesBufferedPartial(t *testing.T) {
	f := newTestFile(t, ".txt")
	defer f.Release()

	if err := f.Open(true); err != nil {
		t.Fatal(err)
	}
	if err := f.WriteString("hello\nworld\n"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	if err := f.Open(false); err != nil {
		t.Fatal(err)
	}
	first, err := f.ReadLine()
	if err != nil {
		t.Fatal(err)
	}
	if first != "hello\n" {
		t.Fatalf("first line = %q", first)
	}

	// The rest of the file sits in the line buffer; ReadAll must not lose it.
	rest, err := f.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if rest != "world\n" {
		t.Errorf("ReadAll = %q, want %q", rest, "world\n")
	}
}

func TestSize(t *testing.T) {
	f := newTestFile(t, ".txt")
	defer f.Release()

	if got := f.Size(); got != 0 {
		t.Errorf("Size on closed handle = %d, want 0", got)
	}

	if err := f.Open(true); err != nil {
		t.Fatal(err)
	}
	if err := f.WriteString("12345"); err != nil {
		t.Fatal(err)
	}
	if got := f.Size(); got != 5 {
		t.Errorf("Size = %d, want 5", got)
	}
}

func TestOverride(t *testing.T) {
	reg := NewRegistry(t.TempDir())
	f, err := reg.NewFile(".lst", false)
	if err != nil {
		t.Fatal(err)
	}

	oldPath := f.Name()
	base := filepath.Join(t.TempDir(), "artifact")

	if err := f.Override(base); err != nil {
		t.Fatalf("Override returned error: %v", err)
	}
	if f.Name() != base+".lst" {
		t.Errorf("Name = %q, want %q", f.Name(), base+".lst")
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Errorf("old path should be removed, stat err = %v", err)
	}
	if reg.Live() != 0 {
		t.Errorf("old record should be dropped, Live() = %d", reg.Live())
	}

	// Overridden path is created on writable open.
	if err := f.Open(true); err != nil {
		t.Fatal(err)
	}
	if err := f.WriteLine("kept output"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	// The artifact belongs to the caller now; Release must not delete it.
	f.Release()
	if _, err := os.Stat(base + ".lst"); err != nil {
		t.Errorf("overridden artifact should survive release: %v", err)
	}
}

func TestOverrideTruncatesOnReopen(t *testing.T) {
	f := newTestFile(t, ".lst")
	base := filepath.Join(t.TempDir(), "out")

	if err := f.Override(base); err != nil {
		t.Fatal(err)
	}
	if err := f.Open(true); err != nil {
		t.Fatal(err)
	}
	if err := f.WriteString("first pass"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	if err := f.Open(true); err != nil {
		t.Fatal(err)
	}
	if err := f.WriteString("second"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(base + ".lst")
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "second" {
		t.Errorf("content = %q, want %q", content, "second")
	}
}

func TestOverrideWhileOpen(t *testing.T) {
	f := newTestFile(t, ".lst")
	defer f.Release()

	if err := f.Open(true); err != nil {
		t.Fatal(err)
	}
	err := f.Override("elsewhere")
	if !errors.Is(err, ErrAlreadyOpen) {
		t.Errorf("Override on open handle = %v, want ErrAlreadyOpen", err)
	}
}

func TestReleaseDeletesUnkeptFile(t *testing.T) {
	f := newTestFile(t, ".txt")
	name := f.Name()

	f.Release()

	if _, err := os.Stat(name); !os.IsNotExist(err) {
		t.Errorf("file should be gone after release, stat err = %v", err)
	}
}

func TestMarkKeepSurvivesRelease(t *testing.T) {
	f := newTestFile(t, ".txt")
	name := f.Name()

	f.MarkKeep()
	f.Release()

	if _, err := os.Stat(name); err != nil {
		t.Errorf("kept file should survive release: %v", err)
	}
}

func TestDump(t *testing.T) {
	f := newTestFile(t, ".txt")
	defer f.Release()

	if err := f.Open(true); err != nil {
		t.Fatal(err)
	}
	if err := f.WriteLines([]string{"alpha", "beta"}); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name        string
		prefix      string
		lineNumbers bool
		expected    string
	}{
		{"plain", "", false, "alpha\nbeta\n"},
		{"numbered", "", true, "1: alpha\n2: beta\n"},
		{"prefixed", "stderr", false, "stderr: alpha\nstderr: beta\n"},
		{"prefixed_numbered", "stderr", true, "stderr: 1: alpha\nstderr: 2: beta\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out strings.Builder
			if err := f.Dump(&out, tc.prefix, tc.lineNumbers); err != nil {
				t.Fatalf("Dump returned error: %v", err)
			}
			if out.String() != tc.expected {
				t.Errorf("Dump output = %q, want %q", out.String(), tc.expected)
			}
		})
	}
}

func TestDumpWhileOpenIsNoop(t *testing.T) {
	f := newTestFile(t, ".txt")
	defer f.Release()

	if err := f.Open(true); err != nil {
		t.Fatal(err)
	}
	if err := f.WriteLine("hidden"); err != nil {
		t.Fatal(err)
	}

	var out strings.Builder
	if err := f.Dump(&out, "", false); err != nil {
		t.Errorf("Dump on open handle should be a silent no-op: %v", err)
	}
	if out.String() != "" {
		t.Errorf("Dump on open handle wrote %q", out.String())
	}
}
