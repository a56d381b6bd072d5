package engine

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadlingo/cadlingo/internal/model"
	"github.com/cadlingo/cadlingo/internal/service"
	"github.com/cadlingo/cadlingo/internal/terminology"
	"github.com/cadlingo/cadlingo/internal/testutil"
)

func TestRun(t *testing.T) {
	logger := slog.Default()

	t.Run("end to end", func(t *testing.T) {
		store := testutil.NewMockDocumentStore(
			testutil.TextEntity("t1", "PLAIN_LINE", "钢筋"),
			testutil.TextEntity("t2", "PLAIN_LINE", "2400"),
			testutil.TextEntity("t3", "PLAIN_LINE", "预应力混凝土"),
			testutil.GeometryEntity("l1", map[string]float64{"length": 2400}),
		)
		provider := testutil.NewMockProvider().Respond("钢筋", "rebar")

		terms := terminology.NewStore()
		terms.Add(model.TerminologyEntry{SourceTerm: "预应力混凝土", TargetTerm: "prestressed concrete"})

		eng := New(store, provider, terms, nil, logger)
		report, err := eng.Run(context.Background(), "en", service.DefaultJobOptions())
		require.NoError(t, err)

		assert.True(t, report.Validation.Passed)
		assert.False(t, report.RollbackRecommended)
		assert.NotEmpty(t, report.JobID)

		// Plain text and the terminology hit were written; the pure number
		// stayed in place.
		assert.Equal(t, "rebar", store.Content("t1"))
		assert.Equal(t, "2400", store.Content("t2"))
		assert.Equal(t, "prestressed concrete", store.Content("t3"))

		counts := report.Counts()
		assert.Equal(t, 2, counts[model.StatusTranslated])
		assert.Equal(t, 1, counts[model.StatusSkipped])

		// The number never consumed a provider call; the terminology hit
		// did not either.
		assert.EqualValues(t, 1, report.ProviderCalls)
	})

	t.Run("immutable entity is rejected without aborting the job", func(t *testing.T) {
		store := testutil.NewMockDocumentStore(
			testutil.TextEntity("locked", "PLAIN_LINE", "锁定文本"),
			testutil.TextEntity("open", "PLAIN_LINE", "开放文本"),
		)
		store.SetImmutable("locked")
		provider := testutil.NewMockProvider().
			Respond("锁定文本", "locked text").
			Respond("开放文本", "open text")

		eng := New(store, provider, nil, nil, logger)
		report, err := eng.Run(context.Background(), "en", service.DefaultJobOptions())
		require.NoError(t, err)

		assert.True(t, report.Validation.Passed)
		assert.Equal(t, 1, report.Mutation.Applied)
		assert.Equal(t, 1, report.Mutation.Rejected)
		assert.Equal(t, "锁定文本", store.Content("locked"))
		assert.Equal(t, "open text", store.Content("open"))

		counts := report.Counts()
		assert.Equal(t, 1, counts[model.StatusRejected])
		assert.Equal(t, 1, counts[model.StatusTranslated])
	})

	t.Run("empty document short-circuits", func(t *testing.T) {
		store := testutil.NewMockDocumentStore(
			testutil.GeometryEntity("l1", map[string]float64{"length": 100}),
		)
		provider := testutil.NewMockProvider()

		eng := New(store, provider, nil, nil, logger)
		report, err := eng.Run(context.Background(), "en", service.DefaultJobOptions())
		require.NoError(t, err)

		assert.True(t, report.Validation.Passed)
		assert.Empty(t, report.Items)
		assert.EqualValues(t, 0, provider.Calls())
	})

	t.Run("cancelled job aborts before mutation", func(t *testing.T) {
		store := testutil.NewMockDocumentStore(
			testutil.TextEntity("t1", "PLAIN_LINE", "钢筋"),
		)
		provider := testutil.NewMockProvider()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		eng := New(store, provider, nil, nil, logger)
		_, err := eng.Run(ctx, "en", service.DefaultJobOptions())
		require.Error(t, err)

		assert.Equal(t, "钢筋", store.Content("t1"), "document must be untouched after an aborted job")
	})

	t.Run("provider failure falls back and flags review", func(t *testing.T) {
		store := testutil.NewMockDocumentStore(
			testutil.TextEntity("t1", "PLAIN_LINE", "坏的"),
		)
		provider := testutil.NewMockProvider().Fail("坏的", assert.AnError)

		opts := service.DefaultJobOptions()
		opts.RetryBudget = 1

		eng := New(store, provider, nil, nil, logger)
		report, err := eng.Run(context.Background(), "en", opts)
		require.NoError(t, err)

		assert.Equal(t, "坏的", store.Content("t1"))
		counts := report.Counts()
		assert.Equal(t, 1, counts[model.StatusFallback])

		require.Len(t, report.Items, 1)
		assert.True(t, report.Items[0].NeedsReview)
	})
}

func TestRunWithPersistence(t *testing.T) {
	t.Run("seeded memory avoids provider calls", func(t *testing.T) {
		store := testutil.NewMockDocumentStore(
			testutil.TextEntity("t1", "PLAIN_LINE", "钢筋"),
		)
		provider := testutil.NewMockProvider()
		persist := testutil.NewMockPersistence()
		persist.SeedMemory("en", "钢筋", model.TranslationResult{
			Text:       "rebar",
			Origin:     model.OriginProvider,
			Confidence: 0.9,
		})

		eng := New(store, provider, nil, persist, slog.Default())
		report, err := eng.Run(context.Background(), "en", service.DefaultJobOptions())
		require.NoError(t, err)

		assert.EqualValues(t, 0, report.ProviderCalls)
		assert.Equal(t, "rebar", store.Content("t1"))
	})

	t.Run("memory is persisted after a passing job", func(t *testing.T) {
		store := testutil.NewMockDocumentStore(
			testutil.TextEntity("t1", "PLAIN_LINE", "钢筋"),
		)
		provider := testutil.NewMockProvider().Respond("钢筋", "rebar")
		persist := testutil.NewMockPersistence()

		eng := New(store, provider, nil, persist, slog.Default())
		_, err := eng.Run(context.Background(), "en", service.DefaultJobOptions())
		require.NoError(t, err)

		saved := persist.Memory("en")
		require.Contains(t, saved, "钢筋")
		assert.Equal(t, "rebar", saved["钢筋"].Text)
	})
}
