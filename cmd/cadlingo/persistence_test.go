package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadlingo/cadlingo/internal/model"
	"github.com/cadlingo/cadlingo/internal/storage"
)

func TestTermsDBFlag(t *testing.T) {
	t.Run("--db points list at a specific database", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "glossary.db")

		cmd := termsCmd()
		cmd.SetArgs([]string{"list", "--db", dbPath})
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetErr(new(bytes.Buffer))
		require.NoError(t, cmd.ExecuteContext(context.Background()))

		assert.FileExists(t, dbPath, "the flag path must be opened, not the configured default")
	})

	t.Run("--db is honored by add and read back by list", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "glossary.db")

		cmd := termsCmd()
		cmd.SetArgs([]string{"add", "剪力墙", "shear wall", "--db", dbPath})
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetErr(new(bytes.Buffer))
		require.NoError(t, cmd.ExecuteContext(context.Background()))

		store, err := storage.NewSQLiteStore(dbPath)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		entries, err := store.LoadTerms(context.Background())
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "剪力墙", entries[0].SourceTerm)
		assert.Equal(t, "shear wall", entries[0].TargetTerm)
	})
}

func TestMemoryClearCommand(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "memory.db")

	seed, err := storage.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, seed.SaveMemory(ctx, "en", map[string]model.TranslationResult{
		"钢筋": {Text: "rebar", Origin: model.OriginProvider},
	}))
	require.NoError(t, seed.Close())

	cmd := memoryCmd()
	cmd.SetArgs([]string{"clear", "--target-lang", "en", "--db", dbPath})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	require.NoError(t, cmd.ExecuteContext(ctx))

	store, err := storage.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	entries, err := store.LoadMemory(ctx, "en")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
