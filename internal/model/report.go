package model

import "time"

// ItemStatus is the user-visible final state of one item after a job.
type ItemStatus string

// Item status constants.
const (
	StatusTranslated ItemStatus = "TRANSLATED"
	StatusSkipped    ItemStatus = "SKIPPED"
	StatusFallback   ItemStatus = "FALLBACK"
	StatusRejected   ItemStatus = "REJECTED"
)

// ItemOutcome summarizes how a single text item fared.
type ItemOutcome struct {
	ItemID         string
	Status         ItemStatus
	Classification Classification
	Origin         TranslationOrigin
	Text           string
	Confidence     float64
	NeedsReview    bool
	Warnings       []string
	Reason         string
}

// MutationOutcome records the result of writing one item back.
type MutationOutcome struct {
	ItemID  string
	Applied bool
	Reason  string
}

// MutationResult aggregates per-item write-back outcomes. There is no
// all-or-nothing failure mode: one rejected item never aborts its siblings.
type MutationResult struct {
	Outcomes []MutationOutcome
	Applied  int
	Rejected int
	Skipped  int
}

// ValidationDiff describes one attribute difference between the pre- and
// post-mutation snapshots.
type ValidationDiff struct {
	EntityID string
	Field    string
	Before   string
	After    string
	Critical bool
}

// ValidationReport is the integrity validator's verdict. Any critical error
// blocks finalization and recommends restoring the pre-mutation snapshot.
type ValidationReport struct {
	Passed         bool
	Diffs          []ValidationDiff
	CriticalErrors []string
}

// JobReport is the complete record of one translation job.
type JobReport struct {
	JobID               string
	TargetLanguage      string
	StartedAt           time.Time
	Duration            time.Duration
	Items               []ItemOutcome
	Mutation            MutationResult
	Validation          ValidationReport
	ProviderCalls       int64
	RollbackRecommended bool
}

// Counts returns the number of items per final status.
func (r *JobReport) Counts() map[ItemStatus]int {
	counts := make(map[ItemStatus]int, 4)
	for _, item := range r.Items {
		counts[item.Status]++
	}
	return counts
}
