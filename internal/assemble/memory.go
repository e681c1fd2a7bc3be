package assemble

import (
	"context"
	"fmt"
	"sync"
)

type memoryStore struct {
	mu    sync.RWMutex
	tests map[string]Test
}

func NewInMemoryStore() Store {
	return &memoryStore{tests: map[string]Test{}}
}

func (m *memoryStore) Put(_ context.Context, t Test, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tests[t.ID] = t
	return nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Test, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tests[id]
	if !ok {
		return Test{}, fmt.Errorf("test %s: %w", id, ErrNotFound)
	}
	return t, nil
}
