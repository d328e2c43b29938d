package retention

import (
	"fmt"

	"github.com/newsky/krati/clock"
	"github.com/newsky/krati/codec"
	"github.com/newsky/krati/store"
)

// ReadEvent is a decoded Event: the retention's raw bytes run back through
// the reader's value codec before being handed to the caller.
type ReadEvent[V any] struct {
	Key     string
	Value   V
	Deleted bool
	Clock   clock.Clock
}

// Reader is the single-source replay protocol: it resolves an arbitrary
// starting clock into a Position and then drains events from it,
// transitioning once and for all from indexed (reading sealed history)
// to streaming (tailing the open batch).
type Reader[V any] struct {
	source    string
	log       *Log
	store     store.Store[V]
	codec     codec.ValueCodec[V]
	batchSize int
}

// NewReader builds a Reader for source over log and st, draining at most
// batchSize events per Get call.
func NewReader[V any](source string, log *Log, st store.Store[V], valueCodec codec.ValueCodec[V], batchSize int) *Reader[V] {
	return &Reader[V]{source: source, log: log, store: st, codec: valueCodec, batchSize: batchSize}
}

// GetSource returns the reader's source name.
func (r *Reader[V]) GetSource() string { return r.source }

// GetPosition resolves target into a starting Position for this source.
func (r *Reader[V]) GetPosition(target clock.Clock) (Position, error) {
	return r.log.GetPosition(r.source, target)
}

// Get drains up to the reader's configured batch size of events starting
// at position, decoding each through the reader's value codec. On
// ErrRetentionExhausted the original position is returned unchanged so the
// caller can decide how to resynchronize.
func (r *Reader[V]) Get(position Position) (Position, []ReadEvent[V], error) {
	next, raw, err := r.log.Get(position, r.batchSize)
	if err != nil {
		return position, nil, err
	}
	if len(raw) == 0 {
		return next, nil, nil
	}

	out := make([]ReadEvent[V], 0, len(raw))
	for _, e := range raw {
		re := ReadEvent[V]{Key: e.Key, Deleted: e.Deleted, Clock: e.Clock}
		if !e.Deleted {
			v, err := r.codec.Decode(e.Value)
			if err != nil {
				return position, nil, fmt.Errorf("%w: decode value for key %q: %v", ErrSerializationFailure, e.Key, err)
			}
			re.Value = v
		}
		out = append(out, re)
	}
	return next, out, nil
}

// GetValue returns key's current value via the store, bypassing the
// retention entirely.
func (r *Reader[V]) GetValue(key string) (V, bool, error) {
	return r.store.Get(key)
}
