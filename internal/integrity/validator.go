// Package integrity compares pre- and post-mutation document snapshots and
// decides whether a job may finalize.
package integrity

import (
	"fmt"
	"math"
	"strconv"

	"github.com/cadlingo/cadlingo/internal/model"
)

// floatTolerance is the absolute tolerance for float-valued attributes.
// Round-tripping a document through the store may perturb coordinates in
// the last few bits; that is not corruption.
const floatTolerance = 1e-6

// Validate compares two snapshots. applied maps entity ID to the translation
// text written by the mutation phase: a content change matching its applied
// translation is expected, any other difference is critical.
func Validate(pre, post model.DocumentSnapshot, applied map[string]string) model.ValidationReport {
	report := model.ValidationReport{Passed: true}

	critical := func(format string, args ...any) {
		report.Passed = false
		report.CriticalErrors = append(report.CriticalErrors, fmt.Sprintf(format, args...))
	}

	// (a) Entity count.
	if len(pre.Entities) != len(post.Entities) {
		critical("entity count changed: %d before, %d after", len(pre.Entities), len(post.Entities))
	}

	preIdx := pre.Index()
	postIdx := post.Index()

	for id := range preIdx {
		if _, ok := postIdx[id]; !ok {
			critical("entity %s removed", id)
		}
	}
	for id := range postIdx {
		if _, ok := preIdx[id]; !ok {
			critical("entity %s added", id)
		}
	}

	for id, before := range preIdx {
		after, ok := postIdx[id]
		if !ok {
			continue
		}
		compareEntity(&report, critical, before, after, applied)
	}

	return report
}

func compareEntity(report *model.ValidationReport, critical func(string, ...any), before, after model.EntitySnapshot, applied map[string]string) {
	diff := func(field, b, a string, isCritical bool) {
		report.Diffs = append(report.Diffs, model.ValidationDiff{
			EntityID: before.ID,
			Field:    field,
			Before:   b,
			After:    a,
			Critical: isCritical,
		})
		if isCritical {
			critical("entity %s: %s changed from %q to %q", before.ID, field, b, a)
		}
	}

	if before.Kind != after.Kind {
		diff("kind", before.Kind, after.Kind, true)
	}

	// (d) Structural containers must be unchanged for every entity.
	if before.Layer != after.Layer {
		diff("layer", before.Layer, after.Layer, true)
	}
	if before.Group != after.Group {
		diff("group", before.Group, after.Group, true)
	}

	// (b)/(c) Attribute equality; float fields within tolerance.
	compareNumeric(diff, before.Numeric, after.Numeric)
	compareStrings(diff, before.Attributes, after.Attributes)

	// Content: for non-text entities any change is critical. For text
	// entities the change is expected exactly when it matches the applied
	// translation.
	if before.Content != after.Content {
		if !before.IsText {
			diff("content", before.Content, after.Content, true)
			return
		}
		if want, ok := applied[before.ID]; ok && after.Content == want {
			diff("content", before.Content, after.Content, false)
			return
		}
		diff("content", before.Content, after.Content, true)
	}
}

func compareNumeric(diff func(string, string, string, bool), before, after map[string]float64) {
	for field, b := range before {
		a, ok := after[field]
		if !ok {
			diff(field, formatFloat(b), "<missing>", true)
			continue
		}
		if math.Abs(a-b) > floatTolerance {
			diff(field, formatFloat(b), formatFloat(a), true)
		}
	}
	for field, a := range after {
		if _, ok := before[field]; !ok {
			diff(field, "<missing>", formatFloat(a), true)
		}
	}
}

func compareStrings(diff func(string, string, string, bool), before, after map[string]string) {
	for field, b := range before {
		a, ok := after[field]
		if !ok {
			diff(field, b, "<missing>", true)
			continue
		}
		if a != b {
			diff(field, b, a, true)
		}
	}
	for field, a := range after {
		if _, ok := before[field]; !ok {
			diff(field, "<missing>", a, true)
		}
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
