// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/cadlingo/cadlingo/internal/model"
)

// DocumentStore is the adapter to one host document. It is authoritative for
// entity identity, opaque attributes, and immutability. One store instance is
// bound to exactly one document; concurrent jobs run against separate stores.
type DocumentStore interface {
	// ExtractTextItems returns every translatable fragment in the document.
	ExtractTextItems(ctx context.Context) ([]model.TextItem, error)
	// ApplyContent writes newText into the content field of the entity and
	// nothing else. Returns an error wrapping common.ErrImmutableSource when
	// the target entity cannot be rewritten.
	ApplyContent(ctx context.Context, entityID, newText string) error
	// Snapshot captures the full comparable state of the document.
	Snapshot(ctx context.Context) (model.DocumentSnapshot, error)
	// Restore rewrites the document to a previously taken snapshot.
	Restore(ctx context.Context, snap model.DocumentSnapshot) error
}

// ContextBundle carries disambiguation context to the translation provider.
type ContextBundle struct {
	EntityKind     model.EntityKind
	Classification model.Classification
	Nearby         []string
}

// TranslationRequest is one provider call.
type TranslationRequest struct {
	Text           string
	SourceLanguage string
	TargetLanguage string
	Context        ContextBundle
}

// Provider is the external machine-translation service. Implementations must
// distinguish transient failures (wrap common.ErrProviderTransient) from
// persistent ones so the orchestrator can retry appropriately.
type Provider interface {
	Translate(ctx context.Context, req TranslationRequest) (string, error)
}

// Persistence pre-seeds and persists terminology and translation memory
// across jobs. It is optional: a single pass is correct without it.
type Persistence interface {
	LoadTerms(ctx context.Context) ([]model.TerminologyEntry, error)
	SaveTerms(ctx context.Context, entries []model.TerminologyEntry) error
	LoadMemory(ctx context.Context, targetLanguage string) (map[string]model.TranslationResult, error)
	SaveMemory(ctx context.Context, targetLanguage string, entries map[string]model.TranslationResult) error
	// ClearMemory drops every memory entry for one target language and
	// reports how many were removed. Terminology is unaffected.
	ClearMemory(ctx context.Context, targetLanguage string) (int, error)
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// JobOptions configures one translation job.
type JobOptions struct {
	// ConcurrencyLimit bounds simultaneous provider calls.
	ConcurrencyLimit int
	// RetryBudget is the attempt budget per provider call.
	RetryBudget int
	// ReviewThreshold is the quality score (0-100) below which an item is
	// flagged for review.
	ReviewThreshold float64
	// MaxLengthRatio flags translations longer than this multiple of the
	// original. Tunable; there is no principled constant here.
	MaxLengthRatio float64
	// Dedupe collapses identical source strings into a single provider call.
	Dedupe bool
	// HoldReviewItems keeps review-flagged items out of the mutation phase.
	HoldReviewItems bool
	// SourceLanguage is an optional hint passed to the provider.
	SourceLanguage string
	// ContextWindow is how many neighboring item texts accompany each call.
	ContextWindow int
	// OnProgress, if set, is called after each item resolves.
	OnProgress func(done, total int)
}

// DefaultJobOptions returns the default job configuration.
func DefaultJobOptions() JobOptions {
	return JobOptions{
		ConcurrencyLimit: 4,
		RetryBudget:      3,
		ReviewThreshold:  70,
		MaxLengthRatio:   2.0,
		Dedupe:           true,
		ContextWindow:    2,
	}
}
