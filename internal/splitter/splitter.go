// Package splitter divides mixed-content strings into literal runs (digits,
// symbols, grade designations) and textual runs that go to translation.
package splitter

import (
	"strings"
	"unicode"
)

// RunKind tags a run as pass-through or translatable.
type RunKind int

// Run kinds.
const (
	// Literal runs are preserved verbatim: digits, punctuation, domain
	// symbols, and alphanumeric designations such as C30 or HRB400.
	Literal RunKind = iota
	// Textual runs are sent to translation. A single character is still a
	// textual run; length is never special-cased.
	Textual
)

// Run is a contiguous slice of the input with a single kind.
type Run struct {
	Text string
	Kind RunKind
}

// Split divides s into ordered runs. A maximal run of CJK ideographs is
// textual; a maximal alphanumeric word is textual only when it contains no
// digit (so "C30" and "M16" stay literal); everything else is literal.
// Concatenating the runs in order reproduces the input.
func Split(s string) []Run {
	var runs []Run
	emit := func(text string, kind RunKind) {
		if text == "" {
			return
		}
		if n := len(runs); n > 0 && runs[n-1].Kind == kind {
			runs[n-1].Text += text
			return
		}
		runs = append(runs, Run{Text: text, Kind: kind})
	}

	rs := []rune(s)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.Is(unicode.Han, r):
			j := i
			for j < len(rs) && unicode.Is(unicode.Han, rs[j]) {
				j++
			}
			emit(string(rs[i:j]), Textual)
			i = j

		case isWordRune(r):
			j := i
			hasDigit := false
			for j < len(rs) && isWordRune(rs[j]) {
				if unicode.IsDigit(rs[j]) {
					hasDigit = true
				}
				j++
			}
			kind := Textual
			if hasDigit {
				kind = Literal
			}
			emit(string(rs[i:j]), kind)
			i = j

		default:
			emit(string(r), Literal)
			i++
		}
	}

	return runs
}

// isWordRune matches the characters that form alphanumeric designations:
// Latin letters and digits, but not CJK ideographs.
func isWordRune(r rune) bool {
	if unicode.Is(unicode.Han, r) {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// TextualRuns returns the text of every translatable run, in order.
func TextualRuns(runs []Run) []string {
	var out []string
	for _, r := range runs {
		if r.Kind == Textual {
			out = append(out, r.Text)
		}
	}
	return out
}

// Reassemble concatenates the runs in original order, substituting the
// translated slice into the textual runs. The caller guarantees one entry
// per textual run.
func Reassemble(runs []Run, translated []string) string {
	var b strings.Builder
	next := 0
	for _, r := range runs {
		if r.Kind == Textual && next < len(translated) {
			b.WriteString(translated[next])
			next++
		} else {
			b.WriteString(r.Text)
		}
	}
	return b.String()
}
