// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"strings"
)

// EntityKind identifies the kind of drawing entity that owns a text item.
// The set is open in the document format but bounded here; unknown kinds are
// rejected at extraction time rather than silently passed through.
type EntityKind string

// Entity kind constants.
const (
	KindPlainLine         EntityKind = "PLAIN_LINE"
	KindRichBlock         EntityKind = "RICH_BLOCK"
	KindDimensionOverride EntityKind = "DIMENSION_OVERRIDE"
	KindLeaderAnnotation  EntityKind = "LEADER_ANNOTATION"
	KindAttributeValue    EntityKind = "ATTRIBUTE_VALUE"
	KindTableCell         EntityKind = "TABLE_CELL"
)

// ParseEntityKind converts a document-store kind name into an EntityKind.
func ParseEntityKind(s string) (EntityKind, error) {
	switch k := EntityKind(strings.ToUpper(s)); k {
	case KindPlainLine, KindRichBlock, KindDimensionOverride,
		KindLeaderAnnotation, KindAttributeValue, KindTableCell:
		return k, nil
	default:
		return "", fmt.Errorf("unknown entity kind: %q", s)
	}
}

// TextItem is one translatable fragment owned by a drawing entity.
//
// RawContent is immutable after extraction. A translation pass sets
// Translation exactly once; the original text is always recoverable.
// Attributes is an opaque pass-through blob owned by the document store;
// the pipeline never inspects or modifies it.
type TextItem struct {
	ID             string
	Kind           EntityKind
	RawContent     string
	Layer          string
	Attributes     map[string]any
	Classification Classification
	Translation    *TranslationResult
	Confidence     float64
	NeedsReview    bool
	Warning        string
}

// FinalText returns the text that should end up in the document: the
// translation when one was produced, the original content otherwise.
func (t *TextItem) FinalText() string {
	if t.Translation != nil {
		return t.Translation.Text
	}
	return t.RawContent
}

// NormalizeSource canonicalizes a source string for terminology and
// translation-memory lookup: surrounding whitespace is dropped and inner
// whitespace runs collapse to a single space. Identical visible strings
// must hit the same memory key regardless of incidental spacing.
func NormalizeSource(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
