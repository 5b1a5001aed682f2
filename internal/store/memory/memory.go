// Package memory provides an in-memory DocumentStore for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/username/vacation-calendar/internal/store"
)

// Store keeps documents per collection in insertion order
type Store struct {
	mu          sync.RWMutex
	collections map[string][]store.Document
}

func New() *Store {
	return &Store{
		collections: make(map[string][]store.Document),
	}
}

func (m *Store) Query(_ context.Context, collection string, filters ...store.Filter) ([]store.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []store.Document
	for _, doc := range m.collections[collection] {
		if store.Matches(doc.Fields, filters) {
			result = append(result, store.Document{ID: doc.ID, Fields: copyFields(doc.Fields)})
		}
	}
	return result, nil
}

func (m *Store) Add(_ context.Context, collection string, fields store.Fields) (string, error) {
	id := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.collections[collection] = append(m.collections[collection], store.Document{
		ID:     id,
		Fields: copyFields(fields),
	})
	return id, nil
}

// Update merges fields into the document
func (m *Store) Update(_ context.Context, collection, id string, fields store.Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(collection, id)
	if i < 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	for k, v := range fields {
		m.collections[collection][i].Fields[k] = v
	}
	return nil
}

func (m *Store) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(collection, id)
	if i < 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	docs := m.collections[collection]
	m.collections[collection] = append(docs[:i:i], docs[i+1:]...)
	return nil
}

// Close is a no-op
func (m *Store) Close() error {
	return nil
}

func (m *Store) indexLocked(collection, id string) int {
	for i, doc := range m.collections[collection] {
		if doc.ID == id {
			return i
		}
	}
	return -1
}

func copyFields(fields store.Fields) store.Fields {
	out := make(store.Fields, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
