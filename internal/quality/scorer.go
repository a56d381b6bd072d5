// Package quality scores produced translations for length drift, symbol
// loss, and terminology usage. Scores are advisory: they flag items for
// review but never block a job.
package quality

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cadlingo/cadlingo/internal/model"
	"github.com/cadlingo/cadlingo/internal/terminology"
)

// Domain symbols that must survive translation verbatim.
var preservedSymbols = []string{"∅", "Ø", "φ", "±", "°", "℃", "≥", "≤", "≠", "×", "%"}

// Scoring weights on the 0-100 composite.
const (
	lengthPenalty = 25
	symbolPenalty = 15
	termBonus     = 10
	baselineScore = 100
)

// Scorer evaluates one (original, translated) pair at a time.
type Scorer struct {
	terms *terminology.Store
	// reviewThreshold is the composite score below which an item needs
	// review. Tuned empirically; always configuration, never a constant.
	reviewThreshold float64
	maxLengthRatio  float64
}

// NewScorer creates a scorer. Threshold is on the 0-100 scale; maxRatio is
// the translated/original length multiple above which a warning fires.
func NewScorer(terms *terminology.Store, threshold, maxRatio float64) *Scorer {
	if threshold <= 0 {
		threshold = 70
	}
	if maxRatio <= 0 {
		maxRatio = 2.0
	}
	if terms == nil {
		terms = terminology.NewStore()
	}
	return &Scorer{
		terms:           terms,
		reviewThreshold: threshold,
		maxLengthRatio:  maxRatio,
	}
}

// Score returns a confidence in 0.0-1.0, whether the item needs review, and
// any warnings. Classification-skipped content always scores 1.0 since it is
// untouched by definition.
func (s *Scorer) Score(original, translated string, class model.Classification) (float64, bool, []string) {
	if class.SkipsTranslation() || original == translated {
		return 1.0, false, nil
	}

	score := float64(baselineScore)
	var warnings []string

	// Length-ratio check: wildly longer output usually means the provider
	// editorialized, and it will not fit the original layout either.
	origLen := utf8.RuneCountInString(original)
	transLen := utf8.RuneCountInString(translated)
	if origLen > 0 && float64(transLen) > s.maxLengthRatio*float64(origLen) {
		score -= lengthPenalty
		warnings = append(warnings, fmt.Sprintf(
			"translated text is %.1fx the original length (limit %.1fx)",
			float64(transLen)/float64(origLen), s.maxLengthRatio))
	}

	// Symbol preservation: every domain symbol in the original must appear
	// in the translation.
	for _, sym := range preservedSymbols {
		if strings.Contains(original, sym) && !strings.Contains(translated, sym) {
			score -= symbolPenalty
			warnings = append(warnings, fmt.Sprintf("symbol %q missing from translation", sym))
		}
	}

	// Terminology usage: reward translations that land on a known target term.
	for _, target := range s.terms.Targets() {
		if target != "" && strings.Contains(translated, target) {
			score += termBonus
			break
		}
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	needsReview := score < s.reviewThreshold
	if needsReview {
		warnings = append(warnings, fmt.Sprintf(
			"quality score %.0f below review threshold %.0f", score, s.reviewThreshold))
	}

	return score / 100, needsReview, warnings
}
