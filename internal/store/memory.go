package store

import (
	"context"
	"iter"
	"slices"
	"sync"

	"dataspace-connector/internal/metadata"
	"dataspace-connector/internal/query"
)

// MemoryStore keeps entities in a map guarded by a RWMutex, remembering
// insertion order for queries. Values are cloned on the way in and out.
type MemoryStore[T metadata.Record[T]] struct {
	mu    sync.RWMutex
	kind  string
	items map[string]T
	order []string
}

func NewMemoryStore[T metadata.Record[T]](kind string) *MemoryStore[T] {
	return &MemoryStore[T]{kind: kind, items: make(map[string]T)}
}

func (m *MemoryStore[T]) Create(_ context.Context, e T) error {
	if err := e.Validate(); err != nil {
		return err
	}
	id := e.EntityID()

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[id]; exists {
		return duplicate(m.kind, id)
	}
	m.items[id] = e.Clone()
	m.order = append(m.order, id)
	return nil
}

func (m *MemoryStore[T]) Get(_ context.Context, id string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.items[id]
	if !ok {
		var zero T
		return zero, notFound(m.kind, id)
	}
	return e.Clone(), nil
}

func (m *MemoryStore[T]) Update(_ context.Context, id string, e T) error {
	if e.EntityID() != id {
		return mismatch(m.kind, id, e.EntityID())
	}
	if err := e.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[id]; !exists {
		return notFound(m.kind, id)
	}
	m.items[id] = e.Clone()
	return nil
}

func (m *MemoryStore[T]) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[id]; !exists {
		return notFound(m.kind, id)
	}
	delete(m.items, id)
	if i := slices.Index(m.order, id); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
	return nil
}

// Query snapshots the store under the read lock and filters the snapshot as
// the caller pulls, so writers are never blocked by a slow consumer.
func (m *MemoryStore[T]) Query(_ context.Context, criteria []metadata.Criterion) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		if err := query.Validate(criteria); err != nil {
			yield(zero, err)
			return
		}

		m.mu.RLock()
		snapshot := make([]T, len(m.order))
		for i, id := range m.order {
			snapshot[i] = m.items[id]
		}
		m.mu.RUnlock()

		for _, e := range snapshot {
			ok, err := query.MatchAll(criteria, e)
			if err != nil {
				yield(zero, err)
				return
			}
			if ok && !yield(e.Clone(), nil) {
				return
			}
		}
	}
}

// Len returns the number of stored entities.
func (m *MemoryStore[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
