// Package docstore adapts host documents to the pipeline's DocumentStore
// interface. The JSON store reads an exported entity list, applies content
// writes in memory, and saves the file back on request.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/cadlingo/cadlingo/internal/common"
	"github.com/cadlingo/cadlingo/internal/model"
)

// entityRecord is the on-disk shape of one drawing entity.
type entityRecord struct {
	ID         string             `json:"id"`
	Kind       string             `json:"kind"`
	Content    string             `json:"content,omitempty"`
	Layer      string             `json:"layer,omitempty"`
	Group      string             `json:"group,omitempty"`
	Immutable  bool               `json:"immutable,omitempty"`
	Numeric    map[string]float64 `json:"numeric,omitempty"`
	Attributes map[string]string  `json:"attributes,omitempty"`
}

// isTextKind reports whether a record kind carries translatable text.
// Records with other kinds (geometry, blocks) are snapshot-only.
func isTextKind(kind string) bool {
	_, err := model.ParseEntityKind(kind)
	return err == nil
}

// JSONStore is a DocumentStore over a JSON entity export. All mutation
// happens in memory; Save writes the file back.
type JSONStore struct {
	mu       sync.RWMutex
	path     string
	entities []entityRecord
	index    map[string]int
}

// Open reads the document at path.
func Open(path string) (*JSONStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	var doc struct {
		Entities []entityRecord `json:"entities"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	index := make(map[string]int, len(doc.Entities))
	for i, e := range doc.Entities {
		if e.ID == "" {
			return nil, fmt.Errorf("entity at position %d has no id", i)
		}
		if _, dup := index[e.ID]; dup {
			return nil, fmt.Errorf("duplicate entity id %q", e.ID)
		}
		index[e.ID] = i
	}

	return &JSONStore{
		path:     path,
		entities: doc.Entities,
		index:    index,
	}, nil
}

// ExtractTextItems returns one item per text-carrying entity with non-empty
// content. Entities with non-text kinds are snapshot-only and skipped.
func (s *JSONStore) ExtractTextItems(_ context.Context) ([]model.TextItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []model.TextItem
	for _, e := range s.entities {
		kind, err := model.ParseEntityKind(e.Kind)
		if err != nil || e.Content == "" {
			continue
		}
		attrs := make(map[string]any, len(e.Attributes))
		for k, v := range e.Attributes {
			attrs[k] = v
		}
		items = append(items, model.TextItem{
			ID:         e.ID,
			Kind:       kind,
			RawContent: e.Content,
			Layer:      e.Layer,
			Attributes: attrs,
		})
	}
	return items, nil
}

// ApplyContent writes newText into the entity's content field and nothing
// else. Immutable entities reject the write.
func (s *JSONStore) ApplyContent(_ context.Context, entityID, newText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[entityID]
	if !ok {
		return fmt.Errorf("entity %s: %w", entityID, common.ErrEntityNotFound)
	}
	if s.entities[i].Immutable {
		return fmt.Errorf("entity %s: %w", entityID, common.ErrImmutableSource)
	}
	s.entities[i].Content = newText
	return nil
}

// Snapshot captures the comparable state of every entity.
func (s *JSONStore) Snapshot(_ context.Context) (model.DocumentSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := model.DocumentSnapshot{
		Entities: make([]model.EntitySnapshot, 0, len(s.entities)),
	}
	for _, e := range s.entities {
		es := model.EntitySnapshot{
			ID:      e.ID,
			Kind:    e.Kind,
			IsText:  isTextKind(e.Kind),
			Content: e.Content,
			Layer:   e.Layer,
			Group:   e.Group,
		}
		if len(e.Numeric) > 0 {
			es.Numeric = make(map[string]float64, len(e.Numeric))
			for k, v := range e.Numeric {
				es.Numeric[k] = v
			}
		}
		if len(e.Attributes) > 0 {
			es.Attributes = make(map[string]string, len(e.Attributes))
			for k, v := range e.Attributes {
				es.Attributes[k] = v
			}
		}
		snap.Entities = append(snap.Entities, es)
	}
	return snap, nil
}

// Restore rewrites every entity's content from the snapshot. Only content is
// restored; the store never mutates anything else, so nothing else can have
// drifted.
func (s *JSONStore) Restore(_ context.Context, snap model.DocumentSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, es := range snap.Entities {
		i, ok := s.index[es.ID]
		if !ok {
			return fmt.Errorf("entity %s: %w", es.ID, common.ErrEntityNotFound)
		}
		s.entities[i].Content = es.Content
	}
	return nil
}

// Save writes the document back to its file.
func (s *JSONStore) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := struct {
		Entities []entityRecord `json:"entities"`
	}{Entities: s.entities}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}
