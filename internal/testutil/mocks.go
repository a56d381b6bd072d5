// Package testutil provides shared mocks and fixtures for pipeline tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cadlingo/cadlingo/internal/common"
	"github.com/cadlingo/cadlingo/internal/model"
	"github.com/cadlingo/cadlingo/internal/service"
)

// MockProvider is a scripted translation provider. Responses are keyed by
// the exact request text; unscripted texts fall back to a prefix echo so
// tests can tell translated output from the original.
type MockProvider struct {
	mu        sync.Mutex
	responses map[string]string
	errors    map[string]error
	requests  []service.TranslationRequest
	calls     atomic.Int64

	// FailuresBeforeSuccess makes the first N calls per text fail with a
	// transient error before the scripted response is returned.
	FailuresBeforeSuccess int
	failures              map[string]int

	// Delay hook, called before each request is served.
	OnCall func(req service.TranslationRequest)
}

// NewMockProvider creates a provider with no scripted responses.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		responses: make(map[string]string),
		errors:    make(map[string]error),
		failures:  make(map[string]int),
	}
}

// Respond scripts the translation for a source text.
func (m *MockProvider) Respond(text, translation string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[text] = translation
	return m
}

// Fail scripts a permanent error for a source text.
func (m *MockProvider) Fail(text string, err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[text] = err
	return m
}

// Translate implements service.Provider.
func (m *MockProvider) Translate(_ context.Context, req service.TranslationRequest) (string, error) {
	m.calls.Add(1)
	if m.OnCall != nil {
		m.OnCall(req)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	if err, ok := m.errors[req.Text]; ok {
		return "", err
	}
	if m.FailuresBeforeSuccess > 0 && m.failures[req.Text] < m.FailuresBeforeSuccess {
		m.failures[req.Text]++
		return "", fmt.Errorf("scripted transient failure: %w", common.ErrProviderTransient)
	}
	if resp, ok := m.responses[req.Text]; ok {
		return resp, nil
	}
	return "[" + req.TargetLanguage + "] " + req.Text, nil
}

// Calls returns how many times Translate was invoked.
func (m *MockProvider) Calls() int64 {
	return m.calls.Load()
}

// Requests returns a copy of all requests seen so far.
func (m *MockProvider) Requests() []service.TranslationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]service.TranslationRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// MockDocumentStore is an in-memory DocumentStore over a fixed entity set.
type MockDocumentStore struct {
	mu        sync.RWMutex
	entities  []model.EntitySnapshot
	immutable map[string]bool

	// ApplyErr, when set, is returned by every ApplyContent call.
	ApplyErr error
}

// NewMockDocumentStore creates a store over the given entities. Entities
// with IsText set become extractable items.
func NewMockDocumentStore(entities ...model.EntitySnapshot) *MockDocumentStore {
	copied := make([]model.EntitySnapshot, len(entities))
	copy(copied, entities)
	return &MockDocumentStore{
		entities:  copied,
		immutable: make(map[string]bool),
	}
}

// SetImmutable marks an entity as rejecting content writes.
func (m *MockDocumentStore) SetImmutable(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.immutable[id] = true
}

// ExtractTextItems implements service.DocumentStore.
func (m *MockDocumentStore) ExtractTextItems(_ context.Context) ([]model.TextItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var items []model.TextItem
	for _, e := range m.entities {
		if !e.IsText || e.Content == "" {
			continue
		}
		kind, err := model.ParseEntityKind(e.Kind)
		if err != nil {
			return nil, err
		}
		items = append(items, model.TextItem{
			ID:         e.ID,
			Kind:       kind,
			RawContent: e.Content,
			Layer:      e.Layer,
		})
	}
	return items, nil
}

// ApplyContent implements service.DocumentStore.
func (m *MockDocumentStore) ApplyContent(_ context.Context, entityID, newText string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ApplyErr != nil {
		return m.ApplyErr
	}
	if m.immutable[entityID] {
		return fmt.Errorf("entity %s: %w", entityID, common.ErrImmutableSource)
	}
	for i := range m.entities {
		if m.entities[i].ID == entityID {
			m.entities[i].Content = newText
			return nil
		}
	}
	return fmt.Errorf("entity %s: %w", entityID, common.ErrEntityNotFound)
}

// Snapshot implements service.DocumentStore.
func (m *MockDocumentStore) Snapshot(_ context.Context) (model.DocumentSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := model.DocumentSnapshot{
		Entities: make([]model.EntitySnapshot, len(m.entities)),
	}
	copy(snap.Entities, m.entities)
	return snap, nil
}

// Restore implements service.DocumentStore.
func (m *MockDocumentStore) Restore(_ context.Context, snap model.DocumentSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := make(map[string]int, len(m.entities))
	for i, e := range m.entities {
		idx[e.ID] = i
	}
	for _, es := range snap.Entities {
		if i, ok := idx[es.ID]; ok {
			m.entities[i].Content = es.Content
		}
	}
	return nil
}

// Content returns the current content of one entity, for assertions.
func (m *MockDocumentStore) Content(id string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entities {
		if e.ID == id {
			return e.Content
		}
	}
	return ""
}

// TextEntity builds a text-carrying entity snapshot for fixtures.
func TextEntity(id, kind, content string) model.EntitySnapshot {
	return model.EntitySnapshot{
		ID:      id,
		Kind:    kind,
		IsText:  true,
		Content: content,
		Layer:   "0",
	}
}

// GeometryEntity builds a non-text entity snapshot for fixtures.
func GeometryEntity(id string, numeric map[string]float64) model.EntitySnapshot {
	return model.EntitySnapshot{
		ID:      id,
		Kind:    "LINE",
		Layer:   "0",
		Numeric: numeric,
	}
}
