// Package cmdline splits raw simulator command strings into argument
// vectors: whitespace separates tokens, double quotes group them, and a
// backslash escapes a quote. It is deliberately smaller than a shell; no
// variable expansion, no single quotes, no globbing.
package cmdline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrQuoteInToken reports an unescaped double quote inside an unquoted
// token, e.g. `ab"cd`.
var ErrQuoteInToken = errors.New("quote in token")

type scanState int

const (
	discardSpace scanState = iota
	accumulateQuoted
	accumulateRaw
)

// Split breaks command into argument tokens.
//
// Three states drive the scan: skipping whitespace, accumulating a quoted
// token (whitespace literal, closed by an unescaped quote), and accumulating
// a raw token (closed by whitespace). An escaped quote contributes a bare
// quote character in both accumulate states. Input ending mid-token emits
// the pending token as if terminated.
func Split(command string) ([]string, error) {
	const (
		quote  = '"'
		escape = '\\'
	)

	var (
		args  []string
		token strings.Builder
	)
	state := discardSpace

	i := 0
	for i < len(command) {
		c := command[i]
		switch state {
		case discardSpace:
			switch {
			case c == quote:
				i++
				state = accumulateQuoted
			case isSpace(c):
				i++
			default:
				state = accumulateRaw
			}

		case accumulateQuoted:
			switch {
			case c == quote:
				args = append(args, token.String())
				token.Reset()
				i++
				state = discardSpace
			case c == escape && i+1 < len(command) && command[i+1] == quote:
				token.WriteByte(quote)
				i += 2
			default:
				token.WriteByte(c)
				i++
			}

		case accumulateRaw:
			switch {
			case c == quote:
				return nil, fmt.Errorf("command parse: %w", ErrQuoteInToken)
			case c == escape && i+1 < len(command) && command[i+1] == quote:
				token.WriteByte(quote)
				i += 2
			case isSpace(c):
				args = append(args, token.String())
				token.Reset()
				i++
				state = discardSpace
			default:
				token.WriteByte(c)
				i++
			}
		}
	}

	// End of input terminates a pending token.
	if state != discardSpace {
		args = append(args, token.String())
	}
	return args, nil
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
