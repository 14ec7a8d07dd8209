package tempfile

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// The slide-compaction in ReadLine is the piece that silently corrupts
// capture files when it is off by one, so it gets property coverage on top
// of the table tests.
func TestReadLineRoundTrip_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	reg := NewRegistry(t.TempDir())

	roundTrip := func(lines []string, bufSize int) bool {
		f, err := reg.NewFile(".txt", false)
		if err != nil {
			return false
		}
		defer f.Release()
		f.buf = make([]byte, bufSize)

		if err := f.Open(true); err != nil {
			return false
		}
		if err := f.WriteLines(lines); err != nil {
			return false
		}
		if err := f.Close(); err != nil {
			return false
		}

		if err := f.Open(false); err != nil {
			return false
		}
		for _, want := range lines {
			got, err := f.ReadLine()
			if err != nil || got != want+"\n" {
				return false
			}
		}
		got, err := f.ReadLine()
		return err == nil && got == ""
	}

	properties.Property("written lines read back exactly", prop.ForAll(
		func(lines []string) bool {
			return roundTrip(lines, 16)
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("a line longer than the buffer is reassembled", prop.ForAll(
		func(n int) bool {
			return roundTrip([]string{strings.Repeat("x", n)}, 32)
		},
		gen.IntRange(1, 4096),
	))

	properties.Property("no byte is lost or duplicated across refills", prop.ForAll(
		func(chunks []string, bufSize int) bool {
			f, err := reg.NewFile(".txt", false)
			if err != nil {
				return false
			}
			defer f.Release()
			f.buf = make([]byte, bufSize)

			content := strings.Join(chunks, "\n")
			if err := f.Open(true); err != nil {
				return false
			}
			if err := f.WriteString(content); err != nil {
				return false
			}
			if err := f.Close(); err != nil {
				return false
			}

			if err := f.Open(false); err != nil {
				return false
			}
			var rebuilt strings.Builder
			for {
				line, err := f.ReadLine()
				if err != nil {
					return false
				}
				if line == "" {
					break
				}
				rebuilt.WriteString(line)
			}
			return rebuilt.String() == content
		},
		gen.SliceOf(gen.AlphaString()),
		gen.IntRange(8, 128),
	))

	properties.TestingRun(t)
}
