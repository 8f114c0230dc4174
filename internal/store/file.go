package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/hardtrack/internal/retry"
)

const (
	fileDebounce   = 200 * time.Millisecond
	lockStaleAfter = 5 * time.Second
)

// lockBackoff paces polling for a contended lock file. Fixed cadence: the
// holder releases by deleting the file, there is no queue to be polite to.
var lockBackoff = retry.Policy{Mode: retry.Fixed, Initial: 10 * time.Millisecond, Max: 10 * time.Millisecond}

// FileBackend persists each slot as <key>.json inside one directory. Writes
// go through a temp file and rename, so readers in other instances never
// observe partial content. Apply coordinates across instances with a lock
// file per key; a lock left behind by a crashed holder is taken over once it
// goes stale.
type FileBackend struct {
	dir string
	mu  sync.Mutex
}

// NewFile creates the slot directory if needed and returns a backend over
// it.
func NewFile(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create slot directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) Name() string { return "file" }

func (b *FileBackend) slotPath(key string) string {
	return filepath.Join(b.dir, key+".json")
}

func (b *FileBackend) Load(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(b.slotPath(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read slot file: %w", err)
	}
	return data, true, nil
}

func (b *FileBackend) Save(_ context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writeSlot(key, data)
}

// writeSlot writes via a temp file and rename so concurrent readers see
// either the old or the new content, never a torn write.
func (b *FileBackend) writeSlot(key string, data []byte) error {
	path := b.slotPath(key)
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write slot file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace slot file: %w", err)
	}
	return nil
}

func (b *FileBackend) Apply(ctx context.Context, key string, fn func(prev []byte, found bool) ([]byte, error)) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	release, err := b.lockKey(ctx, key)
	if err != nil {
		return nil, err
	}
	defer release()

	prev, found, err := b.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	next, err := fn(prev, found)
	if err != nil {
		return nil, err
	}
	if err := b.writeSlot(key, next); err != nil {
		return nil, err
	}
	return next, nil
}

// lockKey acquires the cross-instance lock file for key. Stale locks older
// than lockStaleAfter are removed and retried, so a crashed holder cannot
// wedge the slot forever.
func (b *FileBackend) lockKey(ctx context.Context, key string) (func(), error) {
	lockPath := filepath.Join(b.dir, key+".lock")
	for attempt := 0; ; attempt++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_ = f.Close()
			return func() { _ = os.Remove(lockPath) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}

		if info, serr := os.Stat(lockPath); serr == nil && time.Since(info.ModTime()) > lockStaleAfter {
			_ = os.Remove(lockPath)
			continue
		}

		if err := lockBackoff.Wait(ctx, attempt+1); err != nil {
			return nil, err
		}
	}
}

func (b *FileBackend) Remove(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, k := range keys {
		if err := os.Remove(b.slotPath(k)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove slot file %s: %w", k, err)
		}
	}
	return nil
}

// Watch observes the slot directory for writes by other instances. Each
// slot file debounces independently, so a burst of renames on one key
// collapses into a single change hint.
func (b *FileBackend) Watch(fn func(Change)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := watcher.Add(b.dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch slot directory: %w", err)
	}

	w := &fileWatcher{
		watcher: watcher,
		notify:  fn,
		timers:  make(map[string]*time.Timer),
		stop:    make(chan struct{}),
	}
	go w.loop()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(w.stop)
			_ = watcher.Close()
		})
	}, nil
}

func (b *FileBackend) Close() error { return nil }

type fileWatcher struct {
	watcher *fsnotify.Watcher
	notify  func(Change)

	mu     sync.Mutex
	timers map[string]*time.Timer

	stop chan struct{}
}

func (w *fileWatcher) loop() {
	for {
		select {
		case <-w.stop:
			w.stopTimers()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if !strings.HasSuffix(name, ".json") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.schedule(strings.TrimSuffix(name, ".json"))
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *fileWatcher) schedule(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[key]; ok {
		t.Stop()
	}
	w.timers[key] = time.AfterFunc(fileDebounce, func() {
		select {
		case <-w.stop:
			return
		default:
		}
		w.notify(Change{Key: key})
	})
}

func (w *fileWatcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, t := range w.timers {
		t.Stop()
	}
}
