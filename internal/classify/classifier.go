// Package classify assigns a semantic category to raw annotation text.
//
// Classification is a pure function of the string: no state, no I/O. It can
// run fully in parallel across items without coordination.
package classify

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/cadlingo/cadlingo/internal/model"
)

var (
	// Integers, decimals, signed values, scientific notation.
	numberPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d+)?|\.\d+)([eE][+-]?\d+)?$`)

	// A value with a measurement unit, a bare unit, or a unit ratio
	// (e.g. "3000mm", "25 MPa", "kg/m3", "kg/m³").
	unitToken   = `(mm|cm|dm|m|km|mm2|cm2|m2|mm²|cm²|m²|mm3|cm3|m3|mm³|cm³|m³|g|kg|t|ml|l|L|N|kN|Pa|kPa|MPa|GPa|°C|℃|deg|°|%)`
	unitPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d+)?\s*)?` + unitToken + `(\s*/\s*` + unitToken + `)?$`)

	// Equations and ratios with no natural-language words: "L=2400",
	// "1:100", "E=2.1x10^5".
	formulaShape = regexp.MustCompile(`^[A-Za-z0-9\s.+\-*/^×()=:±]+$`)
	ratioPattern = regexp.MustCompile(`^\s*\d+(\.\d+)?\s*[:：]\s*\d+(\.\d+)?\s*$`)
	wordPattern  = regexp.MustCompile(`[A-Za-z]{4,}`)
)

// Domain symbols that appear in dimension and tolerance callouts.
const specialSymbols = "∅Øøφ±°℃≥≤≠<>=×~·"

// Classify assigns a Classification to raw text. The cascade is ordered;
// the first matching rule wins and ambiguity defaults to PlainText.
func Classify(text string) model.Classification {
	s := strings.TrimSpace(text)
	if s == "" {
		return model.ClassPlainText
	}

	if numberPattern.MatchString(s) {
		return model.ClassPureNumber
	}

	if unitPattern.MatchString(s) {
		return model.ClassUnit
	}

	if isSpecialSymbol(s) {
		return model.ClassSpecialSymbol
	}

	if isFormula(s) {
		return model.ClassFormula
	}

	if isMixed(s) {
		return model.ClassMixedContent
	}

	return model.ClassPlainText
}

// isSpecialSymbol reports whether the string is composed entirely of digits,
// punctuation, whitespace, and domain symbols (diameter, tolerance, degree,
// comparison, temperature) with no translatable letters.
func isSpecialSymbol(s string) bool {
	sawSymbol := false
	for _, r := range s {
		switch {
		case unicode.IsDigit(r) || unicode.IsSpace(r):
		case strings.ContainsRune(specialSymbols, r):
			sawSymbol = true
		case unicode.IsPunct(r):
		default:
			return false
		}
	}
	return sawSymbol
}

// isFormula matches equation and ratio grammars: the string contains "=", an
// exponent, or an a:b ratio, uses only formula characters, and carries no
// natural-language words (runs of four or more letters).
func isFormula(s string) bool {
	if ratioPattern.MatchString(s) {
		return true
	}
	if !formulaShape.MatchString(s) {
		return false
	}
	if !strings.ContainsAny(s, "=^") {
		return false
	}
	return !wordPattern.MatchString(s)
}

// isMixed reports whether the string contains both a translatable run
// (letters or CJK ideographs) and a literal run (digits or domain symbols).
func isMixed(s string) bool {
	hasText := false
	hasLiteral := false
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Han, r):
			hasText = true
		case unicode.IsLetter(r):
			hasText = true
		case unicode.IsDigit(r) || strings.ContainsRune(specialSymbols, r):
			hasLiteral = true
		}
		if hasText && hasLiteral {
			return true
		}
	}
	return false
}
