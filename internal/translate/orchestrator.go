// Package translate orchestrates the per-item translation decision cascade:
// classifier skip, translation-memory reuse, terminology lookup, rich-text
// and mixed-content decomposition, and finally the external provider.
package translate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/cadlingo/cadlingo/internal/classify"
	"github.com/cadlingo/cadlingo/internal/common"
	"github.com/cadlingo/cadlingo/internal/memory"
	"github.com/cadlingo/cadlingo/internal/model"
	"github.com/cadlingo/cadlingo/internal/mtext"
	"github.com/cadlingo/cadlingo/internal/service"
	"github.com/cadlingo/cadlingo/internal/splitter"
	"github.com/cadlingo/cadlingo/internal/terminology"
)

// Orchestrator drives TranslateBatch. All of its mutable shared state (the
// translation memory and the single-flight group) is per-job; two orchestrators
// never interfere.
type Orchestrator struct {
	provider service.Provider
	memory   *memory.Memory
	terms    *terminology.Store
	logger   *slog.Logger
	opts     service.JobOptions
	retry    service.RetryOptions
	flight   singleflight.Group
	calls    atomic.Int64
	failed   atomic.Int64
}

// BatchResult carries the translated items plus batch-level counters.
type BatchResult struct {
	Items         []model.TextItem
	ProviderCalls int64
	Failed        int
}

// New creates an orchestrator for one translation job.
func New(provider service.Provider, mem *memory.Memory, terms *terminology.Store, opts service.JobOptions, logger *slog.Logger) *Orchestrator {
	if opts.ConcurrencyLimit <= 0 {
		opts.ConcurrencyLimit = service.DefaultJobOptions().ConcurrencyLimit
	}
	if opts.RetryBudget <= 0 {
		opts.RetryBudget = service.DefaultJobOptions().RetryBudget
	}
	if terms == nil {
		terms = terminology.NewStore()
	}
	return &Orchestrator{
		provider: provider,
		memory:   mem,
		terms:    terms,
		logger:   logger,
		opts:     opts,
		retry: service.RetryOptions{
			MaxAttempts:  opts.RetryBudget,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// ProviderCalls returns the number of provider invocations so far,
// including retry attempts.
func (o *Orchestrator) ProviderCalls() int64 {
	return o.calls.Load()
}

// TranslateBatch resolves a translation for every item. Per-item failures
// are recorded on the item (fallback to original content, flagged for
// review) and never abort siblings; the returned error is non-nil only when
// the batch as a whole was cancelled.
func (o *Orchestrator) TranslateBatch(ctx context.Context, items []model.TextItem, targetLang string) (BatchResult, error) {
	result := BatchResult{Items: items}
	if len(items) == 0 {
		return result, nil
	}

	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.ConcurrencyLimit)

	for i := range items {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			o.resolveItem(gctx, &items[i], targetLang, o.nearby(items, i))

			if o.opts.OnProgress != nil {
				o.opts.OnProgress(int(done.Add(1)), len(items))
			}
			return nil
		})
	}

	err := g.Wait()
	result.ProviderCalls = o.calls.Load()
	result.Failed = int(o.failed.Load())

	if err != nil {
		// Cancelled mid-batch: memory entries already committed stay valid
		// for reuse, but the caller must not proceed to mutation.
		return result, err
	}

	o.logger.Info("translation batch resolved",
		"items", len(items),
		"provider_calls", result.ProviderCalls,
		"failed", result.Failed)

	return result, nil
}

// nearby collects a small window of neighboring item texts for provider
// disambiguation.
func (o *Orchestrator) nearby(items []model.TextItem, i int) []string {
	window := o.opts.ContextWindow
	if window <= 0 {
		return nil
	}
	var out []string
	for j := i - window; j <= i+window; j++ {
		if j < 0 || j >= len(items) || j == i {
			continue
		}
		out = append(out, items[j].RawContent)
	}
	return out
}

// resolveItem runs the decision cascade for one item. On any item-fatal
// failure the item falls back to its original content, never half-translated.
func (o *Orchestrator) resolveItem(ctx context.Context, item *model.TextItem, lang string, nearby []string) {
	raw := item.RawContent

	// (1) Classifier skip: numbers, units, symbols, formulas pass through.
	if item.Classification.SkipsTranslation() {
		item.Translation = &model.TranslationResult{
			Text:       raw,
			Origin:     model.OriginClassifierSkip,
			Confidence: 1.0,
		}
		item.Confidence = 1.0
		return
	}

	norm := model.NormalizeSource(raw)
	if norm == "" {
		item.Translation = &model.TranslationResult{
			Text:       raw,
			Origin:     model.OriginClassifierSkip,
			Confidence: 1.0,
		}
		item.Confidence = 1.0
		return
	}

	bundle := service.ContextBundle{
		EntityKind:     item.Kind,
		Classification: item.Classification,
		Nearby:         nearby,
	}

	// (2) Translation memory on the whole content.
	if res, ok := o.memory.Get(norm, lang); ok {
		item.Translation = &model.TranslationResult{
			Text:       res.Text,
			Origin:     model.OriginMemory,
			Confidence: res.Confidence,
			Warnings:   res.Warnings,
		}
		item.Confidence = res.Confidence
		return
	}

	// (3) Terminology on the whole content, written through to memory.
	if entry, ok := o.terms.Lookup(norm); ok {
		res := model.TranslationResult{
			Text:       entry.TargetTerm,
			Origin:     model.OriginTerminology,
			Confidence: 1.0,
		}
		stored, _ := o.memory.Put(norm, lang, res)
		item.Translation = &stored
		item.Confidence = stored.Confidence
		return
	}

	var (
		text   string
		origin model.TranslationOrigin
		err    error
	)

	switch {
	// (4) Format-control sequences can appear on any entity kind, so the
	// markup itself decides; runs between control tokens are translated.
	case mtext.HasMarkup(raw):
		text, origin, err = o.translateRich(ctx, raw, lang, bundle)

	// (5) Mixed content: translate textual runs, pass literals through.
	case item.Classification == model.ClassMixedContent:
		text, origin, err = o.translateMixed(ctx, raw, lang, bundle)

	// (6) Plain text: whole normalized string to the provider.
	default:
		var res model.TranslationResult
		res, err = o.translateLeaf(ctx, norm, lang, bundle)
		text, origin = res.Text, res.Origin
	}

	if err != nil {
		o.failed.Add(1)
		item.Translation = &model.TranslationResult{
			Text:   raw,
			Origin: model.OriginProvider,
		}
		item.NeedsReview = true
		if errors.Is(err, common.ErrFormatPreservation) {
			item.Warning = "format preservation violated; original content kept"
		} else {
			item.Warning = "translation failed; original content kept"
		}
		o.logger.Warn("item fell back to original content",
			"item_id", item.ID,
			"error", err)
		return
	}

	item.Translation = &model.TranslationResult{
		Text:   text,
		Origin: origin,
	}
	if origin == model.OriginClassifierSkip || origin == model.OriginTerminology {
		item.Translation.Confidence = 1.0
		item.Confidence = 1.0
	}
}

// translateRich tokenizes markup, translates each distinct text run, and
// reassembles with every control token in its original position. A rebuilt
// string whose control tokens differ from the original is discarded.
func (o *Orchestrator) translateRich(ctx context.Context, raw, lang string, bundle service.ContextBundle) (string, model.TranslationOrigin, error) {
	tokens := mtext.Tokenize(raw)
	runs := mtext.TextRuns(tokens)

	translated := make([]string, len(runs))
	distinct := make(map[string]string, len(runs))
	origin := model.OriginClassifierSkip

	for i, run := range runs {
		if cached, ok := distinct[run]; ok {
			translated[i] = cached
			continue
		}
		out, segOrigin, err := o.translateSegment(ctx, run, lang, bundle)
		if err != nil {
			return "", "", err
		}
		distinct[run] = out
		translated[i] = out
		origin = mergeOrigin(origin, segOrigin)
	}

	rebuilt, err := mtext.Reassemble(tokens, translated)
	if err != nil {
		return "", "", err
	}
	if err := mtext.VerifyPreservation(tokens, rebuilt); err != nil {
		return "", "", err
	}
	return rebuilt, origin, nil
}

// translateMixed splits content by character class and translates only the
// textual runs, preserving literal runs verbatim at their boundaries.
func (o *Orchestrator) translateMixed(ctx context.Context, raw, lang string, bundle service.ContextBundle) (string, model.TranslationOrigin, error) {
	runs := splitter.Split(raw)
	textual := splitter.TextualRuns(runs)
	if len(textual) == 0 {
		return raw, model.OriginClassifierSkip, nil
	}

	translated := make([]string, len(textual))
	distinct := make(map[string]string, len(textual))
	origin := model.OriginClassifierSkip

	for i, run := range textual {
		if cached, ok := distinct[run]; ok {
			translated[i] = cached
			continue
		}
		res, err := o.translateLeaf(ctx, run, lang, bundle)
		if err != nil {
			return "", "", err
		}
		distinct[run] = res.Text
		translated[i] = res.Text
		origin = mergeOrigin(origin, res.Origin)
	}

	return splitter.Reassemble(runs, translated), origin, nil
}

// translateSegment handles one text run from rich markup. The run may itself
// be numeric, mixed, or plain; surrounding whitespace survives translation.
func (o *Orchestrator) translateSegment(ctx context.Context, seg, lang string, bundle service.ContextBundle) (string, model.TranslationOrigin, error) {
	core := strings.TrimSpace(seg)
	if core == "" {
		return seg, model.OriginClassifierSkip, nil
	}
	lead := seg[:strings.Index(seg, core)]
	trail := seg[len(lead)+len(core):]

	class := classify.Classify(core)
	if class.SkipsTranslation() {
		return seg, model.OriginClassifierSkip, nil
	}

	if class == model.ClassMixedContent {
		out, origin, err := o.translateMixed(ctx, core, lang, bundle)
		if err != nil {
			return "", "", err
		}
		return lead + out + trail, origin, nil
	}

	res, err := o.translateLeaf(ctx, core, lang, bundle)
	if err != nil {
		return "", "", err
	}
	return lead + res.Text + trail, res.Origin, nil
}

// translateLeaf resolves one plain string through memory, terminology, and
// finally the provider. Provider calls for the same (source, language) pair
// are collapsed by the single-flight group, and the synchronized
// check-then-insert on the memory guarantees one result per key per pass.
func (o *Orchestrator) translateLeaf(ctx context.Context, text, lang string, bundle service.ContextBundle) (model.TranslationResult, error) {
	norm := model.NormalizeSource(text)
	if norm == "" {
		return model.TranslationResult{Text: text, Origin: model.OriginClassifierSkip, Confidence: 1.0}, nil
	}

	if res, ok := o.memory.Get(norm, lang); ok {
		res.Origin = model.OriginMemory
		return res, nil
	}

	if entry, ok := o.terms.Lookup(norm); ok {
		res := model.TranslationResult{
			Text:       entry.TargetTerm,
			Origin:     model.OriginTerminology,
			Confidence: 1.0,
		}
		stored, _ := o.memory.Put(norm, lang, res)
		return stored, nil
	}

	if !o.opts.Dedupe {
		out, err := o.callProvider(ctx, norm, lang, bundle)
		if err != nil {
			return model.TranslationResult{}, err
		}
		res := model.TranslationResult{Text: out, Origin: model.OriginProvider}
		stored, _ := o.memory.Put(norm, lang, res)
		return stored, nil
	}

	v, err, _ := o.flight.Do(norm+"\x1f"+lang, func() (any, error) {
		if res, ok := o.memory.Get(norm, lang); ok {
			return res, nil
		}
		out, err := o.callProvider(ctx, norm, lang, bundle)
		if err != nil {
			return nil, err
		}
		res := model.TranslationResult{Text: out, Origin: model.OriginProvider}
		stored, _ := o.memory.Put(norm, lang, res)
		return stored, nil
	})
	if err != nil {
		return model.TranslationResult{}, err
	}
	return v.(model.TranslationResult), nil
}

// callProvider invokes the external provider with retry and backoff.
// Transient errors consume the retry budget; persistent ones fail fast.
func (o *Orchestrator) callProvider(ctx context.Context, text, lang string, bundle service.ContextBundle) (string, error) {
	req := service.TranslationRequest{
		Text:           text,
		SourceLanguage: o.opts.SourceLanguage,
		TargetLanguage: lang,
		Context:        bundle,
	}

	var out string
	err := common.WithRetry(ctx, func() error {
		o.calls.Add(1)
		translated, err := o.provider.Translate(ctx, req)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: common.IsRetryable(err)}
		}
		out = translated
		return nil
	}, o.retry)
	if err != nil {
		return "", err
	}
	return out, nil
}

// mergeOrigin aggregates segment origins into an item origin: a provider
// call anywhere makes the item provider-sourced, then memory, then
// terminology, then pure pass-through.
func mergeOrigin(a, b model.TranslationOrigin) model.TranslationOrigin {
	rank := func(o model.TranslationOrigin) int {
		switch o {
		case model.OriginProvider:
			return 3
		case model.OriginMemory:
			return 2
		case model.OriginTerminology:
			return 1
		default:
			return 0
		}
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}
