package store

import (
	"context"
	"sync"
	"sync/atomic"

	"git.home.luguber.info/inful/hardtrack/internal/logfields"
)

// Slot is a live, typed binding to one store key. It keeps an in-memory
// mirror of the persisted value and converges on every notification for its
// key, whether the write happened through this binding, another binding in
// the same instance, or another running instance entirely. Reads are served
// from the mirror without touching the medium.
//
// Reference-typed values returned by Get are shared with the mirror and must
// be treated as read-only snapshots.
type Slot[T any] struct {
	store *Store
	key   string
	def   T

	mu    sync.RWMutex
	value T

	cbMu      sync.Mutex
	callbacks map[uint64]func(T)
	nextCB    atomic.Uint64

	cancel    func()
	closeOnce sync.Once
}

// Bind creates a Slot for key, seeding the mirror from the medium (def when
// the slot is absent or unparseable) and subscribing to subsequent changes.
func Bind[T any](ctx context.Context, s *Store, key string, def T) *Slot[T] {
	sl := &Slot[T]{
		store:     s,
		key:       key,
		def:       def,
		callbacks: make(map[uint64]func(T)),
	}
	sl.value = Get(ctx, s, key, def)
	sl.cancel = s.Subscribe(key, sl.apply)
	return sl
}

// Key returns the bound store key.
func (sl *Slot[T]) Key() string {
	return sl.key
}

// Get returns the mirrored value.
func (sl *Slot[T]) Get() T {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.value
}

// Set replaces the slot value. The mirror is refreshed through the store's
// own notification, the same path every other binding converges on, so a
// failed write leaves the mirror untouched.
func (sl *Slot[T]) Set(ctx context.Context, v T) error {
	return Set(ctx, sl.store, sl.key, v)
}

// Update applies fn atomically against the freshest persisted value. fn must
// be pure: it can run more than once and must not mutate prev in place.
func (sl *Slot[T]) Update(ctx context.Context, fn func(prev T) T) (T, error) {
	return Update(ctx, sl.store, sl.key, sl.def, fn)
}

// OnChange registers a callback invoked with the new value after every
// mirror refresh. The returned cancel removes the registration.
func (sl *Slot[T]) OnChange(fn func(T)) func() {
	id := sl.nextCB.Add(1)
	sl.cbMu.Lock()
	sl.callbacks[id] = fn
	sl.cbMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sl.cbMu.Lock()
			delete(sl.callbacks, id)
			sl.cbMu.Unlock()
		})
	}
}

// Close detaches the slot from the store; the mirror stops converging.
func (sl *Slot[T]) Close() {
	sl.closeOnce.Do(func() {
		sl.cancel()
	})
}

// apply refreshes the mirror from a notification. Unparseable content keeps
// the last-known-good mirror rather than degrading a live binding to the
// default.
func (sl *Slot[T]) apply(n Notification) {
	next := sl.def
	if n.Found {
		decoded, err := decode[T](n.Data)
		if err != nil {
			sl.store.logger.Warn("notification content unparseable, keeping mirror",
				logfields.SlotKey(sl.key), logfields.Error(err))
			return
		}
		next = decoded
	}

	sl.mu.Lock()
	sl.value = next
	sl.mu.Unlock()

	sl.cbMu.Lock()
	targets := make([]func(T), 0, len(sl.callbacks))
	for _, cb := range sl.callbacks {
		targets = append(targets, cb)
	}
	sl.cbMu.Unlock()

	for _, cb := range targets {
		cb(next)
	}
}
