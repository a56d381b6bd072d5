// Package engine runs complete translation jobs: snapshot, classify,
// translate, score, mutate, validate.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cadlingo/cadlingo/internal/classify"
	"github.com/cadlingo/cadlingo/internal/integrity"
	"github.com/cadlingo/cadlingo/internal/memory"
	"github.com/cadlingo/cadlingo/internal/model"
	"github.com/cadlingo/cadlingo/internal/mutate"
	"github.com/cadlingo/cadlingo/internal/quality"
	"github.com/cadlingo/cadlingo/internal/service"
	"github.com/cadlingo/cadlingo/internal/terminology"
	"github.com/cadlingo/cadlingo/internal/translate"
)

// Engine wires the pipeline stages together for one document. The memory and
// single-flight state are constructed fresh per job, so parallel jobs against
// separate documents never share mutable state.
type Engine struct {
	store    service.DocumentStore
	provider service.Provider
	terms    *terminology.Store
	persist  service.Persistence
	logger   *slog.Logger
}

// New creates an engine. persist may be nil; terminology may be empty.
func New(store service.DocumentStore, provider service.Provider, terms *terminology.Store, persist service.Persistence, logger *slog.Logger) *Engine {
	if terms == nil {
		terms = terminology.NewStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:    store,
		provider: provider,
		terms:    terms,
		persist:  persist,
		logger:   logger,
	}
}

// Run executes one translation job and always returns a complete report when
// it ran to the mutation phase. The mutation phase never starts until the
// translation phase has fully resolved; a cancelled translation phase aborts
// with the document untouched.
func (e *Engine) Run(ctx context.Context, targetLanguage string, opts service.JobOptions) (*model.JobReport, error) {
	started := time.Now()
	report := &model.JobReport{
		JobID:          uuid.NewString(),
		TargetLanguage: targetLanguage,
		StartedAt:      started,
	}

	e.logger.Info("starting translation job",
		"job_id", report.JobID,
		"target_language", targetLanguage)

	// Pre-mutation snapshot, kept for validation and rollback.
	pre, err := e.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot document: %w", err)
	}

	items, err := e.store.ExtractTextItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text items: %w", err)
	}
	if len(items) == 0 {
		e.logger.Info("no text items to translate")
		report.Validation.Passed = true
		report.Duration = time.Since(started)
		return report, nil
	}

	// Classification is pure and cheap; a simple pass suffices.
	for i := range items {
		items[i].Classification = classify.Classify(items[i].RawContent)
	}

	mem := memory.New()
	if e.persist != nil {
		seeded, err := e.persist.LoadMemory(ctx, targetLanguage)
		if err != nil {
			e.logger.Warn("failed to load persisted translation memory", "error", err)
		} else if len(seeded) > 0 {
			mem.Seed(targetLanguage, seeded)
			e.logger.Info("seeded translation memory", "entries", len(seeded))
		}
	}

	orch := translate.New(e.provider, mem, e.terms, opts, e.logger)
	batch, err := orch.TranslateBatch(ctx, items, targetLanguage)
	report.ProviderCalls = batch.ProviderCalls
	if err != nil {
		// Cancelled or aborted: the document has not been touched, so there
		// is nothing to roll back. Committed memory entries stay reusable.
		return report, fmt.Errorf("translation phase aborted: %w", err)
	}
	items = batch.Items

	// Quality scoring for provider-produced (and remembered) translations.
	scorer := quality.NewScorer(e.terms, opts.ReviewThreshold, opts.MaxLengthRatio)
	for i := range items {
		item := &items[i]
		if item.Translation == nil {
			continue
		}
		switch item.Translation.Origin {
		case model.OriginProvider, model.OriginMemory:
			if item.NeedsReview {
				continue // already flagged by fallback handling
			}
			conf, review, warnings := scorer.Score(item.RawContent, item.Translation.Text, item.Classification)
			item.Confidence = conf
			item.Translation.Confidence = conf
			item.Translation.Warnings = append(item.Translation.Warnings, warnings...)
			if review {
				item.NeedsReview = true
				item.Warning = warnings[len(warnings)-1]
			}
		}
	}

	// Mutation only begins once every item has resolved.
	mutator := mutate.New(e.store, opts.HoldReviewItems, e.logger)
	report.Mutation = mutator.Apply(ctx, items)

	applied := make(map[string]string, report.Mutation.Applied)
	for _, outcome := range report.Mutation.Outcomes {
		if outcome.Applied {
			for i := range items {
				if items[i].ID == outcome.ItemID {
					applied[outcome.ItemID] = items[i].Translation.Text
					break
				}
			}
		}
	}

	post, err := e.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot document after mutation: %w", err)
	}

	report.Validation = integrity.Validate(pre, post, applied)
	if !report.Validation.Passed {
		report.RollbackRecommended = true
		e.logger.Error("integrity validation failed; restore the pre-mutation snapshot",
			"job_id", report.JobID,
			"critical_errors", len(report.Validation.CriticalErrors))
	}

	report.Items = buildOutcomes(items, report.Mutation)
	report.Duration = time.Since(started)

	if e.persist != nil && report.Validation.Passed {
		if err := e.persist.SaveMemory(ctx, targetLanguage, mem.Export(targetLanguage)); err != nil {
			e.logger.Warn("failed to persist translation memory", "error", err)
		}
	}

	e.logger.Info("translation job complete",
		"job_id", report.JobID,
		"items", len(items),
		"provider_calls", report.ProviderCalls,
		"applied", report.Mutation.Applied,
		"duration", report.Duration)

	return report, nil
}

// buildOutcomes folds translation and mutation results into the per-item
// report entries.
func buildOutcomes(items []model.TextItem, mutation model.MutationResult) []model.ItemOutcome {
	mutated := make(map[string]model.MutationOutcome, len(mutation.Outcomes))
	for _, o := range mutation.Outcomes {
		mutated[o.ItemID] = o
	}

	outcomes := make([]model.ItemOutcome, 0, len(items))
	for i := range items {
		item := &items[i]
		outcome := model.ItemOutcome{
			ItemID:         item.ID,
			Classification: item.Classification,
			Confidence:     item.Confidence,
			NeedsReview:    item.NeedsReview,
		}
		if item.Warning != "" {
			outcome.Warnings = append(outcome.Warnings, item.Warning)
		}
		if item.Translation != nil {
			outcome.Origin = item.Translation.Origin
			outcome.Text = item.Translation.Text
			outcome.Warnings = append(outcome.Warnings, item.Translation.Warnings...)
		}

		m := mutated[item.ID]
		switch {
		case m.Applied:
			outcome.Status = model.StatusTranslated
		case m.Reason == mutate.ReasonImmutable || m.Reason == mutate.ReasonWriteFailed:
			outcome.Status = model.StatusRejected
			outcome.Reason = m.Reason
		case item.NeedsReview && item.Translation != nil && item.Translation.Text == item.RawContent:
			outcome.Status = model.StatusFallback
			outcome.Reason = item.Warning
		default:
			outcome.Status = model.StatusSkipped
			outcome.Reason = m.Reason
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}
