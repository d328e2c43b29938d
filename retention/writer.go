package retention

import (
	"fmt"
	"sync"

	"github.com/newsky/krati/clock"
	"github.com/newsky/krati/codec"
	internallog "github.com/newsky/krati/internal/log"
	"github.com/newsky/krati/store"
)

// Writer binds a key-value store, a retention log, and a source watermark
// clock into one logically atomic put/delete for a single named source.
// Concurrent calls on the same Writer are serialized through its own
// mutex - the "stripe" the concurrency model requires for one source;
// Writers for different sources (even sharing a Log) are independent.
type Writer[V any] struct {
	source string
	log    *Log
	store  store.Store[V]
	clock  *clock.SourceWaterMarksClock
	codec  codec.ValueCodec[V]

	mu sync.Mutex
}

// NewWriter builds a Writer for source over log, st, and wm. wm must have
// source among its declared sources.
func NewWriter[V any](source string, log *Log, st store.Store[V], wm *clock.SourceWaterMarksClock, valueCodec codec.ValueCodec[V]) *Writer[V] {
	return &Writer[V]{source: source, log: log, store: st, clock: wm, codec: valueCodec}
}

// Source returns the writer's source name.
func (w *Writer[V]) Source() string { return w.source }

// HighWaterMark returns the writer's source's current high watermark.
func (w *Writer[V]) HighWaterMark() (uint64, error) {
	return w.clock.HighWaterMark(w.source)
}

// Put validates scn against the current high watermark, appends the event
// to the retention, applies it to the store, and advances the watermark -
// in that order, so a reader can never observe the store update without
// the retention having already recorded it.
func (w *Writer[V]) Put(key string, value V, scn uint64) error {
	return w.apply(key, value, scn, false)
}

// Delete is Put's tombstone counterpart: the store entry is removed and a
// deleted event is appended in its place.
func (w *Writer[V]) Delete(key string, scn uint64) error {
	var zero V
	return w.apply(key, zero, scn, true)
}

func (w *Writer[V]) apply(key string, value V, scn uint64, deleted bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hwm, err := w.clock.HighWaterMark(w.source)
	if err != nil {
		return err
	}
	if scn < hwm {
		w.log.Logger().Warn("clock regression rejected",
			internallog.Str("source", w.source), internallog.Uint64("scn", scn), internallog.Uint64("highWaterMark", hwm))
		return fmt.Errorf("%w: source %q scn %d < high watermark %d", ErrClockRegression, w.source, scn, hwm)
	}

	eventClock := w.clock.Current().With(w.source, scn)

	var encoded []byte
	if !deleted {
		encoded, err = w.codec.Encode(value)
		if err != nil {
			return fmt.Errorf("%w: encode value for key %q: %v", ErrSerializationFailure, key, err)
		}
	}

	if err := w.log.Append(w.source, key, encoded, eventClock, deleted); err != nil {
		return err
	}

	if deleted {
		err = w.store.Delete(key)
	} else {
		err = w.store.Put(key, value)
	}
	if err != nil {
		return fmt.Errorf("%w: apply store write for key %q: %v", ErrIO, key, err)
	}

	if err := w.clock.Advance(w.source, scn); err != nil {
		return fmt.Errorf("%w: watermark advance after durable write: %v", ErrInvariantViolation, err)
	}
	return nil
}

// Flush makes the writer's pending state durable: the retention's sealed
// batches are already durable at seal time, so Flush's real work is
// persisting the watermark's high marks as the new low marks.
func (w *Writer[V]) Flush() error {
	if err := w.clock.Flush(); err != nil {
		return err
	}
	w.log.Logger().Debug("watermark flushed", internallog.Str("source", w.source))
	return nil
}

// Close releases nothing the Writer itself owns - the store, log, and
// clock are shared with readers and are the caller's to close.
func (w *Writer[V]) Close() error {
	return nil
}
