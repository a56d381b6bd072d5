package testutil

import (
	"context"
	"sync"

	"github.com/cadlingo/cadlingo/internal/model"
)

// MockPersistence is an in-memory service.Persistence for engine tests.
type MockPersistence struct {
	mu     sync.Mutex
	terms  []model.TerminologyEntry
	memory map[string]map[string]model.TranslationResult
	closed bool
}

// NewMockPersistence creates an empty persistence mock.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		memory: make(map[string]map[string]model.TranslationResult),
	}
}

// SeedMemory pre-populates one memory entry.
func (m *MockPersistence) SeedMemory(lang, source string, res model.TranslationResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.memory[lang] == nil {
		m.memory[lang] = make(map[string]model.TranslationResult)
	}
	m.memory[lang][source] = res
}

// Memory returns a copy of the stored entries for one language.
func (m *MockPersistence) Memory(lang string) map[string]model.TranslationResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]model.TranslationResult, len(m.memory[lang]))
	for k, v := range m.memory[lang] {
		out[k] = v
	}
	return out
}

// LoadTerms implements service.Persistence.
func (m *MockPersistence) LoadTerms(_ context.Context) ([]model.TerminologyEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.TerminologyEntry, len(m.terms))
	copy(out, m.terms)
	return out, nil
}

// SaveTerms implements service.Persistence.
func (m *MockPersistence) SaveTerms(_ context.Context, entries []model.TerminologyEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terms = append(m.terms, entries...)
	return nil
}

// LoadMemory implements service.Persistence.
func (m *MockPersistence) LoadMemory(_ context.Context, targetLanguage string) (map[string]model.TranslationResult, error) {
	return m.Memory(targetLanguage), nil
}

// SaveMemory implements service.Persistence.
func (m *MockPersistence) SaveMemory(_ context.Context, targetLanguage string, entries map[string]model.TranslationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.memory[targetLanguage] == nil {
		m.memory[targetLanguage] = make(map[string]model.TranslationResult)
	}
	for k, v := range entries {
		m.memory[targetLanguage][k] = v
	}
	return nil
}

// ClearMemory implements service.Persistence.
func (m *MockPersistence) ClearMemory(_ context.Context, targetLanguage string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.memory[targetLanguage])
	delete(m.memory, targetLanguage)
	return n, nil
}

// Close implements service.Persistence.
func (m *MockPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
