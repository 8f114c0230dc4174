package store

import (
	"context"
	"sync"
	"sync/atomic"
)

// MemoryBackend is the in-process durable medium used by tests and
// throwaway runs. Two Stores may share one instance to exercise
// cross-instance convergence; watch callbacks then fire synchronously on
// the writer's goroutine, so delivery order matches write order.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte

	watchMu  sync.RWMutex
	watchers map[uint64]func(Change)
	nextID   atomic.Uint64
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *MemoryBackend {
	return &MemoryBackend{
		data:     make(map[string][]byte),
		watchers: make(map[uint64]func(Change)),
	}
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

func (m *MemoryBackend) Save(_ context.Context, key string, data []byte) error {
	stored := make([]byte, len(data))
	copy(stored, data)

	m.mu.Lock()
	m.data[key] = stored
	m.mu.Unlock()

	m.fanOut(Change{Key: key})
	return nil
}

func (m *MemoryBackend) Apply(_ context.Context, key string, fn func(prev []byte, found bool) ([]byte, error)) ([]byte, error) {
	m.mu.Lock()
	prev, found := m.data[key]
	next, err := fn(prev, found)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	stored := make([]byte, len(next))
	copy(stored, next)
	m.data[key] = stored
	m.mu.Unlock()

	m.fanOut(Change{Key: key})
	return next, nil
}

func (m *MemoryBackend) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.data, k)
	}
	m.mu.Unlock()

	for _, k := range keys {
		m.fanOut(Change{Key: k})
	}
	return nil
}

func (m *MemoryBackend) Watch(fn func(Change)) (func(), error) {
	id := m.nextID.Add(1)
	m.watchMu.Lock()
	m.watchers[id] = fn
	m.watchMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.watchMu.Lock()
			delete(m.watchers, id)
			m.watchMu.Unlock()
		})
	}, nil
}

func (m *MemoryBackend) Close() error { return nil }

func (m *MemoryBackend) fanOut(c Change) {
	m.watchMu.RLock()
	targets := make([]func(Change), 0, len(m.watchers))
	for _, fn := range m.watchers {
		targets = append(targets, fn)
	}
	m.watchMu.RUnlock()

	for _, fn := range targets {
		fn(c)
	}
}
