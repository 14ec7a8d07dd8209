package cmdline

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestSplit(t *testing.T) {
	testCases := []struct {
		name     string
		command  string
		expected []string
	}{
		{"empty", "", nil},
		{"only_spaces", "   \t  ", nil},
		{"single_token", "qemu", []string{"qemu"}},
		{"plain_tokens", "qemu -nographic run.exe", []string{"qemu", "-nographic", "run.exe"}},
		{"collapsed_whitespace", "  a \t b\n c  ", []string{"a", "b", "c"}},
		{"quoted_and_raw", `"foo" bar "baz qux"`, []string{"foo", "bar", "baz qux"}},
		{"quoted_keeps_spaces", `"a b  c"`, []string{"a b  c"}},
		{"empty_quoted", `"" x`, []string{"", "x"}},
		{"adjacent_quoted", `"a""b"`, []string{"a", "b"}},
		{"escaped_quote_raw", `a\"b`, []string{`a"b`}},
		{"escaped_quote_quoted", `"say \"hi\""`, []string{`say "hi"`}},
		{"trailing_raw_token", "qemu -d in_asm", []string{"qemu", "-d", "in_asm"}},
		{"unterminated_quote", `"half done`, []string{"half done"}},
		{"trailing_backslash", `a\`, []string{`a\`}},
		{"lone_backslash_token", `\`, []string{`\`}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Split(tc.command)
			if err != nil {
				t.Fatalf("Split(%q) returned error: %v", tc.command, err)
			}
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("Split(%q) = %#v, want %#v", tc.command, got, tc.expected)
			}
		})
	}
}

func TestSplitQuoteInToken(t *testing.T) {
	testCases := []string{
		`a"b`,
		`run.exe --opt="x"`,
		`one two"`,
	}

	for _, command := range testCases {
		t.Run(command, func(t *testing.T) {
			_, err := Split(command)
			if err == nil {
				t.Fatalf("Split(%q) should fail", command)
			}
			if !errors.Is(err, ErrQuoteInToken) {
				t.Errorf("error should be ErrQuoteInToken: %v", err)
			}
			if !strings.Contains(err.Error(), "command parse") {
				t.Errorf("error should carry the operation label: %v", err)
			}
		})
	}
}

func TestSplit_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("space-joined identifiers split back exactly", prop.ForAll(
		func(tokens []string) bool {
			got, err := Split(strings.Join(tokens, " "))
			if err != nil {
				return false
			}
			if len(got) != len(tokens) {
				return false
			}
			for i := range tokens {
				if got[i] != tokens[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.Property("quoting any alpha token preserves it verbatim", prop.ForAll(
		func(tokens []string) bool {
			quoted := make([]string, len(tokens))
			for i, tok := range tokens {
				quoted[i] = `"` + tok + `"`
			}
			got, err := Split(strings.Join(quoted, " "))
			if err != nil {
				return false
			}
			if len(got) != len(tokens) {
				return false
			}
			for i := range tokens {
				if got[i] != tokens[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
