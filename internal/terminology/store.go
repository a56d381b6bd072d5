// Package terminology holds the fixed source-to-target term mappings that
// short-circuit provider calls.
package terminology

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/cadlingo/cadlingo/internal/model"
)

// Store is a thread-safe exact-match terminology lookup keyed on normalized
// source text.
type Store struct {
	entries map[string]model.TerminologyEntry
	mu      sync.RWMutex
}

// NewStore creates an empty terminology store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]model.TerminologyEntry),
	}
}

// Add inserts or replaces an entry. The source term is normalized on insert
// so lookup and storage always agree on the key.
func (s *Store) Add(entry model.TerminologyEntry) {
	key := model.NormalizeSource(entry.SourceTerm)
	if key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
}

// Lookup returns the entry for source text, matching exactly after
// normalization.
func (s *Store) Lookup(source string) (model.TerminologyEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[model.NormalizeSource(source)]
	return entry, ok
}

// Entries returns all entries sorted by source term.
func (s *Store) Entries() []model.TerminologyEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.TerminologyEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceTerm < out[j].SourceTerm })
	return out
}

// Targets returns every target term, for the quality scorer's
// terminology-usage check.
func (s *Store) Targets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.TargetTerm)
	}
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// file is the YAML document shape for terminology files.
type file struct {
	Domain string                   `yaml:"domain,omitempty"`
	Terms  []model.TerminologyEntry `yaml:"terms"`
}

// LoadFile reads a YAML terminology file into a new store. Entries without
// their own domain tag inherit the file-level domain.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read terminology file: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse terminology file: %w", err)
	}

	store := NewStore()
	for _, entry := range f.Terms {
		if entry.Domain == "" {
			entry.Domain = f.Domain
		}
		store.Add(entry)
	}
	return store, nil
}
