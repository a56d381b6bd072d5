package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadlingo/cadlingo/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreTerms(t *testing.T) {
	ctx := context.Background()

	t.Run("empty database", func(t *testing.T) {
		store := newTestStore(t)
		entries, err := store.LoadTerms(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("save and load", func(t *testing.T) {
		store := newTestStore(t)
		in := []model.TerminologyEntry{
			{SourceTerm: "预应力混凝土", TargetTerm: "prestressed concrete", Domain: "structural"},
			{SourceTerm: "剪力墙", TargetTerm: "shear wall"},
		}
		require.NoError(t, store.SaveTerms(ctx, in))

		out, err := store.LoadTerms(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, in, out)
	})

	t.Run("upsert replaces target", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.SaveTerms(ctx, []model.TerminologyEntry{
			{SourceTerm: "梁", TargetTerm: "beam"},
		}))
		require.NoError(t, store.SaveTerms(ctx, []model.TerminologyEntry{
			{SourceTerm: "梁", TargetTerm: "girder", Domain: "steel"},
		}))

		out, err := store.LoadTerms(ctx)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "girder", out[0].TargetTerm)
		assert.Equal(t, "steel", out[0].Domain)
	})
}

func TestSQLiteStoreMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("save and load round trip", func(t *testing.T) {
		store := newTestStore(t)
		in := map[string]model.TranslationResult{
			"钢筋":  {Text: "rebar", Confidence: 0.9, Origin: model.OriginProvider},
			"混凝土": {Text: "concrete", Confidence: 1.0, Origin: model.OriginTerminology},
		}
		require.NoError(t, store.SaveMemory(ctx, "en", in))

		out, err := store.LoadMemory(ctx, "en")
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "rebar", out["钢筋"].Text)
		assert.Equal(t, model.OriginProvider, out["钢筋"].Origin)
		assert.InDelta(t, 0.9, out["钢筋"].Confidence, 1e-9)
	})

	t.Run("languages are isolated", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.SaveMemory(ctx, "en", map[string]model.TranslationResult{
			"钢筋": {Text: "rebar"},
		}))
		require.NoError(t, store.SaveMemory(ctx, "de", map[string]model.TranslationResult{
			"钢筋": {Text: "Bewehrung"},
		}))

		en, err := store.LoadMemory(ctx, "en")
		require.NoError(t, err)
		assert.Equal(t, "rebar", en["钢筋"].Text)

		de, err := store.LoadMemory(ctx, "de")
		require.NoError(t, err)
		assert.Equal(t, "Bewehrung", de["钢筋"].Text)
	})

	t.Run("clear removes one language only", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.SaveMemory(ctx, "en", map[string]model.TranslationResult{
			"钢筋":  {Text: "rebar"},
			"混凝土": {Text: "concrete"},
		}))
		require.NoError(t, store.SaveMemory(ctx, "de", map[string]model.TranslationResult{
			"钢筋": {Text: "Bewehrung"},
		}))

		n, err := store.ClearMemory(ctx, "en")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		en, err := store.LoadMemory(ctx, "en")
		require.NoError(t, err)
		assert.Empty(t, en)

		de, err := store.LoadMemory(ctx, "de")
		require.NoError(t, err)
		assert.Len(t, de, 1)
	})

	t.Run("clear on an empty language reports zero", func(t *testing.T) {
		store := newTestStore(t)
		n, err := store.ClearMemory(ctx, "en")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("upsert replaces entry", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.SaveMemory(ctx, "en", map[string]model.TranslationResult{
			"梁": {Text: "beam", Confidence: 0.8},
		}))
		require.NoError(t, store.SaveMemory(ctx, "en", map[string]model.TranslationResult{
			"梁": {Text: "girder", Confidence: 0.95},
		}))

		out, err := store.LoadMemory(ctx, "en")
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "girder", out["梁"].Text)
	})
}

func TestNewSQLiteStore(t *testing.T) {
	t.Run("creates missing directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
		store, err := NewSQLiteStore(path)
		require.NoError(t, err)
		assert.NoError(t, store.Close())
	})

	t.Run("empty path rejected", func(t *testing.T) {
		_, err := NewSQLiteStore("")
		assert.Error(t, err)
	})
}
