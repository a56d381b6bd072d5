// Package mtext tokenizes rich annotation text into format-control tokens
// and plain-text runs.
//
// The grammar covers the MTEXT-style markup found in drawing annotations:
// backslash directives (argless toggles like \P and \L, and argument forms
// like \fArial|b0;, \H2.5x; or \C1; terminated by a semicolon), the {'{','}'}
// group delimiters, and %% symbol codes (%%d, %%c, %%p, %%u, %%o).
//
// The round-trip law is the package contract: Join(Tokenize(s)) == s for
// every input, with no exceptions for malformed markup. An unterminated
// argument directive is consumed to end of string as a single control token
// so the law still holds.
package mtext

import (
	"strings"

	"github.com/cadlingo/cadlingo/internal/common"
)

// TokenKind distinguishes control tokens from translatable text runs.
type TokenKind int

// Token kinds.
const (
	ControlToken TokenKind = iota
	TextRun
)

// Token is one tokenizer output unit. Raw always holds the exact input
// slice, so concatenating Raw over all tokens reproduces the input.
type Token struct {
	Raw  string
	Kind TokenKind
}

// Directives that take an argument terminated by ';'.
const argDirectives = "fFhHwWcCtTqQaApPS"

// Directives that stand alone as two characters. \P is the paragraph break;
// the case toggles are \L \l \O \o \K \k; \~ is a non-breaking space.
const bareDirectives = "Pp~LlOoKkXx"

// HasMarkup reports whether the string contains any format-control sequence.
func HasMarkup(s string) bool {
	if strings.ContainsAny(s, "{}") {
		return true
	}
	if strings.Contains(s, "%%") {
		return true
	}
	return strings.Contains(s, `\`)
}

// Tokenize splits s into an ordered sequence of control tokens and text runs.
func Tokenize(s string) []Token {
	var tokens []Token
	var text strings.Builder

	flush := func() {
		if text.Len() > 0 {
			tokens = append(tokens, Token{Raw: text.String(), Kind: TextRun})
			text.Reset()
		}
	}
	control := func(raw string) {
		flush()
		tokens = append(tokens, Token{Raw: raw, Kind: ControlToken})
	}

	for i := 0; i < len(s); {
		c := s[i]

		switch {
		case c == '{' || c == '}':
			control(s[i : i+1])
			i++

		case c == '%' && i+2 < len(s) && s[i+1] == '%':
			control(s[i : i+3])
			i += 3

		case c == '\\' && i+1 < len(s):
			d := s[i+1]
			switch {
			case d == '\\' || d == '{' || d == '}':
				// Escaped literal; stays with the surrounding control
				// stream so the escape survives translation untouched.
				control(s[i : i+2])
				i += 2
			case strings.IndexByte(argDirectives, d) >= 0 && d != 'P' && d != 'p':
				end := strings.IndexByte(s[i+2:], ';')
				if end < 0 {
					control(s[i:])
					i = len(s)
				} else {
					control(s[i : i+2+end+1])
					i += 2 + end + 1
				}
			case strings.IndexByte(bareDirectives, d) >= 0:
				control(s[i : i+2])
				i += 2
			default:
				// Unknown directive: keep the two-byte sequence verbatim.
				control(s[i : i+2])
				i += 2
			}

		default:
			text.WriteByte(c)
			i++
		}
	}
	flush()

	return tokens
}

// Join concatenates all tokens' raw forms in order. Join(Tokenize(s)) == s.
func Join(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Raw)
	}
	return b.String()
}

// TextRuns returns the contents of every text run, in order.
func TextRuns(tokens []Token) []string {
	var runs []string
	for _, t := range tokens {
		if t.Kind == TextRun {
			runs = append(runs, t.Raw)
		}
	}
	return runs
}

// Reassemble substitutes translated text into each text run, preserving
// every control token in its original position. The translated slice must
// carry exactly one entry per text run.
func Reassemble(tokens []Token, translated []string) (string, error) {
	runs := 0
	for _, t := range tokens {
		if t.Kind == TextRun {
			runs++
		}
	}
	if runs != len(translated) {
		return "", common.ErrFormatPreservation
	}

	var b strings.Builder
	next := 0
	for _, t := range tokens {
		if t.Kind == TextRun {
			b.WriteString(translated[next])
			next++
		} else {
			b.WriteString(t.Raw)
		}
	}
	return b.String(), nil
}

// VerifyPreservation checks that a rebuilt string still carries the original
// control tokens in count and order. A provider response that injects or
// swallows markup shows up here as a FormatPreservationViolation.
func VerifyPreservation(original []Token, rebuilt string) error {
	want := controls(original)
	got := controls(Tokenize(rebuilt))
	if len(want) != len(got) {
		return common.ErrFormatPreservation
	}
	for i := range want {
		if want[i] != got[i] {
			return common.ErrFormatPreservation
		}
	}
	return nil
}

func controls(tokens []Token) []string {
	var out []string
	for _, t := range tokens {
		if t.Kind == ControlToken {
			out = append(out, t.Raw)
		}
	}
	return out
}
