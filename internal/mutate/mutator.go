// Package mutate applies accepted translations back to the owning entities'
// content fields, and nothing else.
package mutate

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cadlingo/cadlingo/internal/common"
	"github.com/cadlingo/cadlingo/internal/model"
	"github.com/cadlingo/cadlingo/internal/service"
)

// Mutator writes translations through the document-store adapter. The
// adapter is authoritative for immutability; a rejected item is recorded and
// skipped without aborting its siblings.
type Mutator struct {
	store      service.DocumentStore
	logger     *slog.Logger
	holdReview bool
}

// New creates a mutator. When holdReview is set, review-flagged items are
// held back instead of written.
func New(store service.DocumentStore, holdReview bool, logger *slog.Logger) *Mutator {
	return &Mutator{
		store:      store,
		logger:     logger,
		holdReview: holdReview,
	}
}

// Apply writes each item's translation into its entity's content field.
// There is no batch-level failure: every item gets its own outcome.
func (m *Mutator) Apply(ctx context.Context, items []model.TextItem) model.MutationResult {
	result := model.MutationResult{
		Outcomes: make([]model.MutationOutcome, 0, len(items)),
	}

	for i := range items {
		item := &items[i]
		outcome := m.applyOne(ctx, item)
		result.Outcomes = append(result.Outcomes, outcome)

		switch {
		case outcome.Applied:
			result.Applied++
		case outcome.Reason == ReasonImmutable || outcome.Reason == ReasonWriteFailed:
			result.Rejected++
		default:
			result.Skipped++
		}
	}

	m.logger.Info("mutation phase complete",
		"applied", result.Applied,
		"rejected", result.Rejected,
		"skipped", result.Skipped)

	return result
}

// Mutation outcome reasons. The rejection reasons are exported so report
// builders can distinguish rejected items from ordinary skips.
const (
	ReasonImmutable   = "ImmutableSource"
	ReasonWriteFailed = "write failed"

	reasonNoTranslation = "no translation produced"
	reasonUnchanged     = "content unchanged"
	reasonHeldForReview = "held for review"
)

func (m *Mutator) applyOne(ctx context.Context, item *model.TextItem) model.MutationOutcome {
	outcome := model.MutationOutcome{ItemID: item.ID}

	if item.Translation == nil {
		outcome.Reason = reasonNoTranslation
		return outcome
	}
	if item.Translation.Text == item.RawContent {
		outcome.Reason = reasonUnchanged
		return outcome
	}
	if m.holdReview && item.NeedsReview {
		outcome.Reason = reasonHeldForReview
		return outcome
	}

	if err := m.store.ApplyContent(ctx, item.ID, item.Translation.Text); err != nil {
		if errors.Is(err, common.ErrImmutableSource) {
			outcome.Reason = ReasonImmutable
			m.logger.Debug("mutation rejected for immutable item", "item_id", item.ID)
			return outcome
		}
		outcome.Reason = ReasonWriteFailed
		m.logger.Warn("content write failed", "item_id", item.ID, "error", err)
		return outcome
	}

	outcome.Applied = true
	return outcome
}
