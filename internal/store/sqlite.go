package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	_ "modernc.org/sqlite"
)

const sqliteUpsert = `
INSERT INTO slots (key, value, revision)
VALUES (?, ?, (SELECT COALESCE(MAX(revision), 0) + 1 FROM slots))
ON CONFLICT(key) DO UPDATE SET value = excluded.value, revision = excluded.revision`

const sqliteDebounce = 200 * time.Millisecond

// SQLiteBackend stores every slot as a row in a single-table SQLite
// database. A per-write revision counter lets the watcher tell which slots
// changed when another instance touches the database file.
//
// Use ":memory:" for an in-memory database, or a file path for persistent
// storage. Cross-instance change watching only applies to file databases.
type SQLiteBackend struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// NewSQLite opens (creating if needed) the slots database at dbPath.
func NewSQLite(dbPath string) (*SQLiteBackend, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		// Immediate transactions take the write lock up front, so Apply
		// serializes against writers in other processes instead of failing
		// at commit.
		dsn = "file:" + dbPath + "?_txlock=immediate"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	b := &SQLiteBackend{db: db, path: dbPath}
	if err := b.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) initialize() error {
	if _, err := b.db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return err
	}
	schema := `
	CREATE TABLE IF NOT EXISTS slots (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		revision INTEGER NOT NULL
	);
	`
	_, err := b.db.Exec(schema)
	return err
}

func (b *SQLiteBackend) Name() string { return "sqlite" }

func (b *SQLiteBackend) Load(ctx context.Context, key string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var value []byte
	err := b.db.QueryRowContext(ctx, "SELECT value FROM slots WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query slot: %w", err)
	}
	return value, true, nil
}

func (b *SQLiteBackend) Save(ctx context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.db.ExecContext(ctx, sqliteUpsert, key, data); err != nil {
		return fmt.Errorf("upsert slot: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Apply(ctx context.Context, key string, fn func(prev []byte, found bool) ([]byte, error)) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var prev []byte
	found := true
	err = tx.QueryRowContext(ctx, "SELECT value FROM slots WHERE key = ?", key).Scan(&prev)
	if errors.Is(err, sql.ErrNoRows) {
		prev, found = nil, false
	} else if err != nil {
		return nil, fmt.Errorf("query slot: %w", err)
	}

	next, err := fn(prev, found)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, sqliteUpsert, key, next); err != nil {
		return nil, fmt.Errorf("upsert slot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return next, nil
}

func (b *SQLiteBackend) Remove(ctx context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, "DELETE FROM slots WHERE key = ?", k); err != nil {
			return fmt.Errorf("delete slot %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Watch observes the database file for writes by other instances. Any
// filesystem event on the database (or its journal) schedules a debounced
// rescan; slots whose revision moved, appeared, or disappeared since the
// last scan are reported.
func (b *SQLiteBackend) Watch(fn func(Change)) (func(), error) {
	if b.path == ":memory:" {
		return func() {}, nil
	}

	absPath, err := filepath.Abs(b.path)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	// Watch the directory containing the database (more reliable than
	// watching the file directly).
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch database directory: %w", err)
	}

	seed, err := b.snapshotRevisions()
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}

	w := &sqliteWatcher{
		backend:  b,
		watcher:  watcher,
		notify:   fn,
		baseName: filepath.Base(absPath),
		known:    seed,
		stop:     make(chan struct{}),
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

func (b *SQLiteBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.db.Close()
}

func (b *SQLiteBackend) snapshotRevisions() (map[string]int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rows, err := b.db.Query("SELECT key, revision FROM slots")
	if err != nil {
		return nil, fmt.Errorf("query revisions: %w", err)
	}
	defer rows.Close()

	revs := make(map[string]int64)
	for rows.Next() {
		var key string
		var rev int64
		if err := rows.Scan(&key, &rev); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		revs[key] = rev
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return revs, nil
}

type sqliteWatcher struct {
	backend  *SQLiteBackend
	watcher  *fsnotify.Watcher
	notify   func(Change)
	baseName string

	scanMu sync.Mutex
	known  map[string]int64

	timerMu sync.Mutex
	timer   *time.Timer

	stop chan struct{}
}

func (w *sqliteWatcher) loop() {
	for {
		select {
		case <-w.stop:
			w.stopTimer()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// The journal and WAL side files share the database basename as
			// prefix; a write to any of them can mean new slot content.
			if !strings.HasPrefix(filepath.Base(event.Name), w.baseName) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.scheduleScan()
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// scheduleScan (re)starts the debounce timer so bursts of filesystem events
// collapse into one rescan.
func (w *sqliteWatcher) scheduleScan() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(sqliteDebounce, w.scan)
}

func (w *sqliteWatcher) stopTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *sqliteWatcher) scan() {
	select {
	case <-w.stop:
		return
	default:
	}

	fresh, err := w.backend.snapshotRevisions()
	if err != nil {
		return
	}

	w.scanMu.Lock()
	changed := make([]string, 0, len(fresh))
	for key, rev := range fresh {
		if w.known[key] != rev {
			changed = append(changed, key)
		}
	}
	for key := range w.known {
		if _, ok := fresh[key]; !ok {
			changed = append(changed, key)
		}
	}
	w.known = fresh
	w.scanMu.Unlock()

	for _, key := range changed {
		w.notify(Change{Key: key})
	}
}
