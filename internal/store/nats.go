package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/hardtrack/internal/retry"
)

// NATSConfig carries the connection settings for the NATS backend.
type NATSConfig struct {
	URL    string
	Bucket string
}

// casBackoff paces the compare-and-set loop when another writer keeps
// winning, so contending instances do not hammer the server in lockstep.
var casBackoff = retry.Policy{Mode: retry.Linear, Initial: 5 * time.Millisecond, Max: 100 * time.Millisecond}

// NATSBackend persists slots in a JetStream key-value bucket, so instances
// on different machines converge through the same medium. Apply runs a
// compare-and-set loop on the entry revision, retrying until the write lands
// against the freshest value.
type NATSBackend struct {
	conn    *nats.Conn
	kv      jetstream.KeyValue
	backoff retry.Policy
}

// NewNATS connects to the server and opens (creating if needed) the slot
// bucket.
func NewNATS(ctx context.Context, cfg NATSConfig) (*NATSBackend, error) {
	conn, err := nats.Connect(cfg.URL, nats.Name("hardtrack"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	kv, err := js.KeyValue(ctx, cfg.Bucket)
	if err != nil {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      cfg.Bucket,
			Description: "hardtrack challenge slots",
			History:     1, // Keep only latest value
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("create KV bucket: %w", err)
		}
	}

	return &NATSBackend{conn: conn, kv: kv, backoff: casBackoff}, nil
}

func (b *NATSBackend) Name() string { return "nats" }

func (b *NATSBackend) Load(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := b.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get key: %w", err)
	}
	return entry.Value(), true, nil
}

func (b *NATSBackend) Save(ctx context.Context, key string, data []byte) error {
	if _, err := b.kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("put key: %w", err)
	}
	return nil
}

func (b *NATSBackend) Apply(ctx context.Context, key string, fn func(prev []byte, found bool) ([]byte, error)) ([]byte, error) {
	attempt := 0
	for {
		if err := b.backoff.Wait(ctx, attempt); err != nil {
			return nil, err
		}

		entry, err := b.kv.Get(ctx, key)
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			next, ferr := fn(nil, false)
			if ferr != nil {
				return nil, ferr
			}
			if _, err := b.kv.Create(ctx, key, next); err != nil {
				if errors.Is(err, jetstream.ErrKeyExists) {
					attempt++ // lost the create race, retry against the winner
					continue
				}
				return nil, fmt.Errorf("create key: %w", err)
			}
			return next, nil
		}
		if err != nil {
			return nil, fmt.Errorf("get key: %w", err)
		}

		next, ferr := fn(entry.Value(), true)
		if ferr != nil {
			return nil, ferr
		}
		if _, err := b.kv.Update(ctx, key, next, entry.Revision()); err != nil {
			if isWrongLastSequence(err) {
				attempt++ // another writer got in between, retry
				continue
			}
			return nil, fmt.Errorf("update key: %w", err)
		}
		return next, nil
	}
}

func isWrongLastSequence(err error) bool {
	var apiErr *jetstream.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
}

func (b *NATSBackend) Remove(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if err := b.kv.Delete(ctx, k); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			return fmt.Errorf("delete key %s: %w", k, err)
		}
	}
	return nil
}

// Watch follows the bucket for updates from any instance, including our
// own writes; the store discards those as echoes.
func (b *NATSBackend) Watch(fn func(Change)) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())

	watcher, err := b.kv.WatchAll(ctx, jetstream.UpdatesOnly())
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watch KV bucket: %w", err)
	}

	go func() {
		for entry := range watcher.Updates() {
			if entry == nil {
				// Marker for the end of the initial replay.
				continue
			}
			fn(Change{Key: entry.Key()})
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = watcher.Stop()
			cancel()
		})
	}, nil
}

func (b *NATSBackend) Close() error {
	b.conn.Close()
	return nil
}
