package model

// Classification is the semantic category assigned to a text item's content.
type Classification string

// Classification constants.
const (
	ClassUnknown       Classification = ""
	ClassPureNumber    Classification = "PURE_NUMBER"
	ClassUnit          Classification = "UNIT"
	ClassSpecialSymbol Classification = "SPECIAL_SYMBOL"
	ClassFormula       Classification = "FORMULA"
	ClassMixedContent  Classification = "MIXED_CONTENT"
	ClassPlainText     Classification = "PLAIN_TEXT"
)

// SkipsTranslation reports whether items of this classification bypass the
// provider entirely. For these classes translation.text == rawContent always.
func (c Classification) SkipsTranslation() bool {
	switch c {
	case ClassPureNumber, ClassUnit, ClassSpecialSymbol, ClassFormula:
		return true
	default:
		return false
	}
}

// TranslationOrigin records which stage of the cascade produced a result.
type TranslationOrigin string

// Translation origin constants.
const (
	OriginMemory         TranslationOrigin = "MEMORY"
	OriginTerminology    TranslationOrigin = "TERMINOLOGY"
	OriginClassifierSkip TranslationOrigin = "CLASSIFIER_SKIP"
	OriginProvider       TranslationOrigin = "PROVIDER"
)

// TranslationResult is the outcome of translating one source string.
type TranslationResult struct {
	Text       string
	Origin     TranslationOrigin
	Confidence float64
	Warnings   []string
}

// TerminologyEntry maps a domain-specific source term to a fixed target term.
type TerminologyEntry struct {
	SourceTerm string `yaml:"source"`
	TargetTerm string `yaml:"target"`
	Domain     string `yaml:"domain,omitempty"`
}
