package store

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cockroachdb/pebble"

	"github.com/newsky/krati/codec"
	pebblestore "github.com/newsky/krati/internal/storage/pebble"
)

// ErrNotFound names the missing-key condition. PebbleStore.Get does not
// return it: a key that was never put, or was deleted and not put again,
// is reported as ok == false with a nil error.
var ErrNotFound = errors.New("store: key not found")

// Store is Krati's latest-value key-value interface. Keys are always
// strings: Krati's callers address records by an opaque identifier (a
// UUID, an entity id), never by a structured or binary key, so the
// generic parameter here covers only the value type.
type Store[V any] interface {
	Put(key string, value V) error
	Get(key string) (V, bool, error)
	Delete(key string) error
	// Keys returns every key currently present, in lexicographic order.
	Keys() ([]string, error)
	Flush() error
	Close() error
}

// PebbleStore is the pebble-backed Store implementation. Each PebbleStore
// opens and owns the pebble database in its own directory and writes every
// key under the fixed "kv/" prefix; two stores opened on one directory
// would use the same prefix.
type PebbleStore[V any] struct {
	db     *pebblestore.DB
	prefix []byte
	codec  codec.ValueCodec[V]
}

// Open opens (or creates) a pebble database at dataDir and wraps it as a
// Store[V] using codec for value (de)serialization. All keys are stored
// under the "kv/" prefix to leave room in the same database for
// co-located metadata, mirroring the retention log's own keyspace
// convention.
func Open[V any](dataDir string, valueCodec codec.ValueCodec[V]) (*PebbleStore[V], error) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dataDir})
	if err != nil {
		return nil, fmt.Errorf("store: open pebble database: %w", err)
	}
	return &PebbleStore[V]{db: db, prefix: []byte("kv/"), codec: valueCodec}, nil
}

func (s *PebbleStore[V]) encodeKey(key string) []byte {
	return append(append([]byte(nil), s.prefix...), key...)
}

// Put implements Store.
func (s *PebbleStore[V]) Put(key string, value V) error {
	b, err := s.codec.Encode(value)
	if err != nil {
		return fmt.Errorf("store: encode value for key %q: %w", key, err)
	}
	if err := s.db.Set(s.encodeKey(key), b); err != nil {
		return fmt.Errorf("store: put key %q: %w", key, err)
	}
	return nil
}

// Get implements Store.
func (s *PebbleStore[V]) Get(key string) (V, bool, error) {
	var zero V
	b, err := s.db.Get(s.encodeKey(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("store: get key %q: %w", key, err)
	}
	v, err := s.codec.Decode(b)
	if err != nil {
		return zero, false, fmt.Errorf("store: decode value for key %q: %w", key, err)
	}
	return v, true, nil
}

// Delete implements Store.
func (s *PebbleStore[V]) Delete(key string) error {
	if err := s.db.Delete(s.encodeKey(key)); err != nil {
		return fmt.Errorf("store: delete key %q: %w", key, err)
	}
	return nil
}

// Keys implements Store by taking a point-in-time snapshot and scanning
// the key prefix, so concurrent writers never see a torn result.
func (s *PebbleStore[V]) Keys() ([]string, error) {
	snap := s.db.NewSnapshot()
	defer snap.Close()

	upper := append(append([]byte(nil), s.prefix...), 0xff)
	it, err := snap.NewIter(&pebble.IterOptions{LowerBound: s.prefix, UpperBound: upper})
	if err != nil {
		return nil, fmt.Errorf("store: iterate keys: %w", err)
	}
	defer it.Close()

	var keys []string
	for it.First(); it.Valid(); it.Next() {
		keys = append(keys, string(it.Key()[len(s.prefix):]))
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("store: iterate keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Flush implements Store. It does nothing: every Put and Delete is
// committed to pebble when it is made, without a forced WAL sync, and
// Flush does not force one either.
func (s *PebbleStore[V]) Flush() error {
	return nil
}

// Close implements Store.
func (s *PebbleStore[V]) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
