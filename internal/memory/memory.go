// Package memory implements the per-job translation memory: the cache that
// guarantees identical source strings map to identical translations within
// one pass.
package memory

import (
	"sync"

	"github.com/cadlingo/cadlingo/internal/model"
)

type key struct {
	source string
	lang   string
}

// Memory is a synchronized write-once map from (normalized source text,
// target language) to a translation result. It is constructed per job and
// discarded afterward; there is no process-wide instance.
type Memory struct {
	entries map[key]model.TranslationResult
	mu      sync.RWMutex
}

// New creates an empty translation memory.
func New() *Memory {
	return &Memory{
		entries: make(map[key]model.TranslationResult),
	}
}

// Get returns the stored result for (source, lang). The source is expected
// to be normalized already.
func (m *Memory) Get(source, lang string) (model.TranslationResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.entries[key{source, lang}]
	return res, ok
}

// Put stores a result under (source, lang) unless the key is already
// present. The first write wins; it returns the stored result and whether
// this call performed the write. Write-once is what keeps every requester of
// the same source observing one identical result within a pass.
func (m *Memory) Put(source, lang string, res model.TranslationResult) (model.TranslationResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{source, lang}
	if existing, ok := m.entries[k]; ok {
		return existing, false
	}
	m.entries[k] = res
	return res, true
}

// Seed pre-populates the memory for one target language, e.g. from a
// persisted store. Existing keys are not overwritten.
func (m *Memory) Seed(lang string, entries map[string]model.TranslationResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for source, res := range entries {
		k := key{source, lang}
		if _, ok := m.entries[k]; !ok {
			m.entries[k] = res
		}
	}
}

// Export returns a copy of all entries for one target language.
func (m *Memory) Export(lang string) map[string]model.TranslationResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]model.TranslationResult)
	for k, res := range m.entries {
		if k.lang == lang {
			out[k.source] = res
		}
	}
	return out
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
