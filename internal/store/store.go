// Package store implements the key-addressed persistence layer beneath the
// tracker: values serialize to JSON text under string keys, every successful
// write notifies listeners inside this running instance, and a backend
// watcher folds in writes made by other instances sharing the same durable
// medium.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	terrors "git.home.luguber.info/inful/hardtrack/internal/errors"
	"git.home.luguber.info/inful/hardtrack/internal/logfields"
)

// Change is the hint a backend watcher delivers when a slot may have been
// modified by another running instance. It carries no payload; the store
// re-reads the slot on receipt.
type Change struct {
	Key string
}

// Backend is the durable medium beneath a Store.
//
// Apply must run fn as an atomic read-modify-write critical section per key:
// fn observes the freshest persisted bytes, and no concurrent Apply on the
// same key may interleave. Compare-and-set backends retry, so fn can run
// more than once. An error returned by fn aborts Apply and is propagated
// unchanged.
type Backend interface {
	Name() string
	Load(ctx context.Context, key string) (data []byte, found bool, err error)
	Save(ctx context.Context, key string, data []byte) error
	Apply(ctx context.Context, key string, fn func(prev []byte, found bool) ([]byte, error)) ([]byte, error)
	Remove(ctx context.Context, keys ...string) error
	Watch(fn func(Change)) (cancel func(), err error)
	Close() error
}

// Notification is delivered to subscribed listeners after a slot changed.
// Data holds the serialized content as present on the medium; Found is false
// when the slot was removed. External marks changes that originate from
// another running instance.
type Notification struct {
	Key      string
	Data     []byte
	Found    bool
	External bool
}

// Listener receives key-scoped change notifications. Local writes invoke
// listeners synchronously on the writer's goroutine; external changes arrive
// on the backend watcher's goroutine.
type Listener func(Notification)

// Store binds JSON slot values to a Backend and fans change notifications
// out to key-scoped listeners. It exclusively owns the durable medium:
// domain components keep in-memory mirrors convergent by subscribing, never
// by mutating persisted bytes around the store.
type Store struct {
	backend Backend
	logger  *slog.Logger

	mu        sync.RWMutex
	listeners map[string]map[uint64]Listener
	nextID    atomic.Uint64

	// lastSeen holds the freshest bytes this instance wrote or observed per
	// key (nil for seen-as-absent). The watcher compares against it to drop
	// echoes of our own writes.
	seenMu   sync.Mutex
	lastSeen map[string][]byte

	cancelWatch func()
	closeOnce   sync.Once
}

// New wires a Store to its backend and starts observing cross-instance
// changes.
func New(backend Backend, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		backend:   backend,
		logger:    logger.With(logfields.Backend(backend.Name())),
		listeners: make(map[string]map[uint64]Listener),
		lastSeen:  make(map[string][]byte),
	}

	cancel, err := backend.Watch(s.handleChange)
	if err != nil {
		return nil, terrors.StorageError("watch", err)
	}
	s.cancelWatch = cancel

	return s, nil
}

// BackendName reports the underlying durable medium, for logs and health
// output.
func (s *Store) BackendName() string {
	return s.backend.Name()
}

// Probe verifies the durable medium answers reads.
func (s *Store) Probe(ctx context.Context) error {
	if _, _, err := s.backend.Load(ctx, "probe"); err != nil {
		return terrors.StorageError("probe", err)
	}
	return nil
}

// Subscribe registers a listener for changes to key. The returned cancel
// function removes the registration and is safe to call more than once.
func (s *Store) Subscribe(key string, l Listener) func() {
	id := s.nextID.Add(1)

	s.mu.Lock()
	if s.listeners[key] == nil {
		s.listeners[key] = make(map[uint64]Listener)
	}
	s.listeners[key][id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()

			if keyListeners, ok := s.listeners[key]; ok {
				delete(keyListeners, id)
				if len(keyListeners) == 0 {
					delete(s.listeners, key)
				}
			}
		})
	}
}

// Clear removes the given slots in one backend operation and notifies their
// listeners. Readers observe defaults afterwards.
func (s *Store) Clear(ctx context.Context, keys ...string) error {
	restores := make([]func(), 0, len(keys))
	for _, k := range keys {
		restores = append(restores, s.remember(k, nil))
	}

	if err := s.backend.Remove(ctx, keys...); err != nil {
		for _, restore := range restores {
			restore()
		}
		return terrors.StorageError("remove", err)
	}

	for _, k := range keys {
		s.notify(Notification{Key: k, Found: false})
	}
	return nil
}

// Close stops watching for external changes and releases the backend.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.cancelWatch != nil {
			s.cancelWatch()
		}
		err = s.backend.Close()
	})
	return err
}

// notify fans a notification out to every listener registered for its key.
// Listeners are collected under the read lock and invoked outside it so a
// listener may subscribe or unsubscribe without deadlocking.
func (s *Store) notify(n Notification) {
	s.mu.RLock()
	targets := make([]Listener, 0, len(s.listeners[n.Key]))
	for _, l := range s.listeners[n.Key] {
		targets = append(targets, l)
	}
	s.mu.RUnlock()

	for _, l := range targets {
		l(n)
	}
}

// remember records data as the freshest locally known content for key and
// returns a restore func that rolls the record back when the write
// ultimately fails.
func (s *Store) remember(key string, data []byte) func() {
	s.seenMu.Lock()
	prev, had := s.lastSeen[key]
	s.lastSeen[key] = data
	s.seenMu.Unlock()

	return func() {
		s.seenMu.Lock()
		if had {
			s.lastSeen[key] = prev
		} else {
			delete(s.lastSeen, key)
		}
		s.seenMu.Unlock()
	}
}

// observe records newly seen content for key, reporting whether it differs
// from what was already recorded.
func (s *Store) observe(key string, data []byte) bool {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()

	prev, had := s.lastSeen[key]
	if had && bytes.Equal(prev, data) {
		return false
	}
	s.lastSeen[key] = data
	return true
}

// handleChange reacts to a backend watch hint: re-read the slot, drop echoes
// of writes this instance already saw, and notify listeners of genuinely
// foreign content. A foreign write carrying byte-identical content is
// indistinguishable from an echo and is also dropped, which is harmless
// since listeners would converge on an identical value.
func (s *Store) handleChange(c Change) {
	data, found, err := s.backend.Load(context.Background(), c.Key)
	if err != nil {
		s.logger.Warn("re-read after external change failed",
			logfields.SlotKey(c.Key), logfields.Error(err))
		return
	}
	if !found {
		data = nil
	}

	if !s.observe(c.Key, data) {
		return
	}
	s.notify(Notification{Key: c.Key, Data: data, Found: found, External: true})
}

// Get returns the value stored under key, or def when the slot is absent or
// its content does not parse. The fallback is pure: a failed read never
// writes def back to the medium.
func Get[T any](ctx context.Context, s *Store, key string, def T) T {
	data, found, err := s.backend.Load(ctx, key)
	if err != nil {
		s.logger.Warn("slot read failed, falling back to default",
			logfields.SlotKey(key), logfields.Error(err))
		return def
	}
	if !found {
		return def
	}

	v, err := decode[T](data)
	if err != nil {
		s.logger.Warn("slot content unparseable, falling back to default",
			logfields.SlotKey(key), logfields.Error(err))
		return def
	}
	return v
}

// Set serializes v and writes it under key. A serialization failure aborts
// before the medium is touched; listeners hear about the write only after it
// succeeded.
func Set[T any](ctx context.Context, s *Store, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return terrors.SerializationError(key, err)
	}

	restore := s.remember(key, data)
	if err := s.backend.Save(ctx, key, data); err != nil {
		restore()
		return terrors.StorageError("save", err).WithContext("key", key)
	}

	s.notify(Notification{Key: key, Data: data, Found: true})
	return nil
}

// Update applies fn to the freshest persisted value inside the backend's
// per-key critical section and stores the result, eliminating the lost
// update a read-then-Set against a stale snapshot would allow. Absent or
// unparseable content presents to fn as def. fn must be pure: it can run
// more than once and must not mutate prev in place.
func Update[T any](ctx context.Context, s *Store, key string, def T, fn func(prev T) T) (T, error) {
	var out T
	var restore func()

	data, err := s.backend.Apply(ctx, key, func(prev []byte, found bool) ([]byte, error) {
		cur := def
		if found {
			decoded, derr := decode[T](prev)
			if derr != nil {
				s.logger.Warn("slot content unparseable, updating from default",
					logfields.SlotKey(key), logfields.Error(derr))
			} else {
				cur = decoded
			}
		}

		next := fn(cur)
		encoded, merr := json.Marshal(next)
		if merr != nil {
			return nil, terrors.SerializationError(key, merr)
		}

		out = next
		if restore == nil {
			restore = s.remember(key, encoded)
		} else {
			s.remember(key, encoded)
		}
		return encoded, nil
	})
	if err != nil {
		if restore != nil {
			restore()
		}
		var zero T
		if terrors.IsCategory(err, terrors.CategorySerialization) {
			return zero, err
		}
		return zero, terrors.StorageError("apply", err).WithContext("key", key)
	}

	s.notify(Notification{Key: key, Data: data, Found: true})
	return out, nil
}

func decode[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
