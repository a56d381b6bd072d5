package terminology

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadlingo/cadlingo/internal/model"
)

func TestStore(t *testing.T) {
	t.Run("lookup matches after normalization", func(t *testing.T) {
		store := NewStore()
		store.Add(model.TerminologyEntry{SourceTerm: "预应力混凝土", TargetTerm: "prestressed concrete"})

		entry, ok := store.Lookup("预应力混凝土")
		require.True(t, ok)
		assert.Equal(t, "prestressed concrete", entry.TargetTerm)

		// Incidental spacing hits the same key.
		entry, ok = store.Lookup("  预应力混凝土  ")
		require.True(t, ok)
		assert.Equal(t, "prestressed concrete", entry.TargetTerm)
	})

	t.Run("inner whitespace collapses", func(t *testing.T) {
		store := NewStore()
		store.Add(model.TerminologyEntry{SourceTerm: "shear  wall", TargetTerm: "剪力墙"})

		_, ok := store.Lookup("shear wall")
		assert.True(t, ok)
	})

	t.Run("add replaces existing entry", func(t *testing.T) {
		store := NewStore()
		store.Add(model.TerminologyEntry{SourceTerm: "梁", TargetTerm: "beam"})
		store.Add(model.TerminologyEntry{SourceTerm: "梁", TargetTerm: "girder"})

		entry, _ := store.Lookup("梁")
		assert.Equal(t, "girder", entry.TargetTerm)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("empty source is ignored", func(t *testing.T) {
		store := NewStore()
		store.Add(model.TerminologyEntry{SourceTerm: "   ", TargetTerm: "nothing"})
		assert.Equal(t, 0, store.Len())
	})

	t.Run("entries are sorted by source", func(t *testing.T) {
		store := NewStore()
		store.Add(model.TerminologyEntry{SourceTerm: "b-term", TargetTerm: "2"})
		store.Add(model.TerminologyEntry{SourceTerm: "a-term", TargetTerm: "1"})

		entries := store.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, "a-term", entries[0].SourceTerm)
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("loads terms with domain inheritance", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "glossary.yaml")
		content := `domain: structural
terms:
  - source: 预应力混凝土
    target: prestressed concrete
  - source: 剪力墙
    target: shear wall
    domain: architectural
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))

		store, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 2, store.Len())

		entry, ok := store.Lookup("预应力混凝土")
		require.True(t, ok)
		assert.Equal(t, "structural", entry.Domain)

		entry, ok = store.Lookup("剪力墙")
		require.True(t, ok)
		assert.Equal(t, "architectural", entry.Domain)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("terms: {not a list"), 0600))

		_, err := LoadFile(path)
		assert.Error(t, err)
	})
}
