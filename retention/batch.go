package retention

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/newsky/krati/clock"
)

// EventBatch is an ordered, append-only, capacity-bounded run of events.
// It tracks its own minClock (the first event's clock) and maxClock (the
// last event's clock) and is sealed - made immutable - once full or once
// the retention log rotates it out from under a new write. A batch may
// receive appends from more than one writer source (retentions can be
// shared); regression is checked per source, since only per-source order
// is guaranteed across the batch as a whole.
type EventBatch struct {
	id       uint64
	capacity int

	events       []Event
	perSourceMax map[string]uint64
	minClock     clock.Clock
	maxClock     clock.Clock
	createdAt    time.Time
	sealed       bool
}

// NewEventBatch starts a new, empty, open batch with the given id and
// capacity.
func NewEventBatch(id uint64, capacity int) *EventBatch {
	return &EventBatch{
		id:           id,
		capacity:     capacity,
		perSourceMax: make(map[string]uint64),
		createdAt:    time.Now(),
	}
}

// ID returns the batch's dense internal id, assigned at construction.
func (b *EventBatch) ID() uint64 { return b.id }

// Len returns the number of events currently in the batch.
func (b *EventBatch) Len() int { return len(b.events) }

// IsSealed reports whether the batch is immutable.
func (b *EventBatch) IsSealed() bool { return b.sealed }

// MinClock returns the first event's clock, or the zero clock if empty.
func (b *EventBatch) MinClock() clock.Clock { return b.minClock }

// MaxClock returns the last event's clock, or the zero clock if empty.
func (b *EventBatch) MaxClock() clock.Clock { return b.maxClock }

// CreatedAt returns the batch's creation time.
func (b *EventBatch) CreatedAt() time.Time { return b.createdAt }

// BatchMeta is the lightweight, always-in-memory summary of a batch: its
// id, clock range, event count, and creation time. Retention policies and
// the log's own bookkeeping operate on BatchMeta rather than full batches
// so that checking eviction never requires reading a sealed batch's bytes
// back off disk.
type BatchMeta struct {
	ID        uint64
	MinClock  clock.Clock
	MaxClock  clock.Clock
	Count     int
	CreatedAt time.Time
}

// Meta summarizes the batch as a BatchMeta.
func (b *EventBatch) Meta() BatchMeta {
	return BatchMeta{
		ID:        b.id,
		MinClock:  b.minClock,
		MaxClock:  b.maxClock,
		Count:     len(b.events),
		CreatedAt: b.createdAt,
	}
}

// Append adds an event to the batch on behalf of source. It fails with
// ErrBatchFull once the batch is at capacity (the log reacts by sealing
// and rotating), and with ErrClockRegression if c's coordinate for source
// is lower than the highest coordinate for source already appended to
// this batch - per-source append order within one batch must be
// non-decreasing, even when other sources are interleaved.
func (b *EventBatch) Append(source, key string, value []byte, c clock.Clock, deleted bool) error {
	if b.sealed {
		return fmt.Errorf("%w: batch %d is sealed", ErrInvariantViolation, b.id)
	}
	if len(b.events) >= b.capacity {
		return ErrBatchFull
	}
	if scn := c.Get(source); scn < b.perSourceMax[source] {
		return fmt.Errorf("%w: source %q clock %d < batch max %d", ErrClockRegression,
			source, scn, b.perSourceMax[source])
	}
	if len(b.events) == 0 {
		b.minClock = c
	}
	b.maxClock = c
	b.perSourceMax[source] = c.Get(source)
	b.events = append(b.events, Event{Key: key, Value: value, Clock: c, Deleted: deleted})
	return nil
}

// Seal marks the batch immutable. It is idempotent.
func (b *EventBatch) Seal() {
	b.sealed = true
}

// At returns the event at offset, an index inside a sealed batch.
func (b *EventBatch) At(offset int) (Event, error) {
	if offset < 0 || offset >= len(b.events) {
		return Event{}, fmt.Errorf("%w: offset %d out of range [0,%d)", ErrInvariantViolation, offset, len(b.events))
	}
	return b.events[offset], nil
}

// Serialize encodes the batch as a length-prefixed record: a header
// (minClock, maxClock, count, createdAtMillis) followed by count records
// of (keyLen, key, deleted flag, valueLen, value, clock). codec and
// sourceOrder must agree with whatever decodes the result.
func (b *EventBatch) Serialize(codec clock.Codec, sourceOrder []string) ([]byte, error) {
	minBytes, err := codec.Encode(b.minClock, sourceOrder)
	if err != nil {
		return nil, fmt.Errorf("%w: encode minClock: %v", ErrSerializationFailure, err)
	}
	maxBytes, err := codec.Encode(b.maxClock, sourceOrder)
	if err != nil {
		return nil, fmt.Errorf("%w: encode maxClock: %v", ErrSerializationFailure, err)
	}

	buf := make([]byte, 0, len(minBytes)+len(maxBytes)+12+len(b.events)*32)
	buf = append(buf, minBytes...)
	buf = append(buf, maxBytes...)
	buf = appendUint32(buf, uint32(len(b.events)))
	buf = appendInt64(buf, b.createdAt.UnixMilli())

	for _, e := range b.events {
		buf = appendUint32(buf, uint32(len(e.Key)))
		buf = append(buf, e.Key...)
		if e.Deleted {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		buf = appendUint32(buf, uint32(len(e.Value)))
		buf = append(buf, e.Value...)
		eventClock, err := codec.Encode(e.Clock, sourceOrder)
		if err != nil {
			return nil, fmt.Errorf("%w: encode event clock: %v", ErrSerializationFailure, err)
		}
		buf = append(buf, eventClock...)
	}
	return buf, nil
}

// DeserializeEventBatch decodes bytes produced by Serialize. The resulting
// batch is sealed (a deserialized batch is always a sealed, immutable,
// historical one) and its id must be set by the caller from the key it
// was read under - batch id is not part of the wire payload.
func DeserializeEventBatch(b []byte, codec clock.Codec, sourceOrder []string) (*EventBatch, error) {
	clockLen := 8 * len(sourceOrder)
	if len(b) < 2*clockLen+12 {
		return nil, fmt.Errorf("%w: batch payload too short", ErrSerializationFailure)
	}
	off := 0
	minClock, err := codec.Decode(b[off:off+clockLen], sourceOrder)
	if err != nil {
		return nil, fmt.Errorf("%w: decode minClock: %v", ErrSerializationFailure, err)
	}
	off += clockLen
	maxClock, err := codec.Decode(b[off:off+clockLen], sourceOrder)
	if err != nil {
		return nil, fmt.Errorf("%w: decode maxClock: %v", ErrSerializationFailure, err)
	}
	off += clockLen
	count := binary.BigEndian.Uint32(b[off : off+4])
	off += 4
	createdAtMillis := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8

	events := make([]Event, 0, count)
	for i := uint32(0); i < count; i++ {
		if off+4 > len(b) {
			return nil, fmt.Errorf("%w: truncated record %d", ErrSerializationFailure, i)
		}
		keyLen := int(binary.BigEndian.Uint32(b[off : off+4]))
		off += 4
		if off+keyLen > len(b) {
			return nil, fmt.Errorf("%w: truncated key at record %d", ErrSerializationFailure, i)
		}
		key := string(b[off : off+keyLen])
		off += keyLen

		if off+1 > len(b) {
			return nil, fmt.Errorf("%w: truncated deleted flag at record %d", ErrSerializationFailure, i)
		}
		deleted := b[off] != 0
		off++

		if off+4 > len(b) {
			return nil, fmt.Errorf("%w: truncated value length at record %d", ErrSerializationFailure, i)
		}
		valueLen := int(binary.BigEndian.Uint32(b[off : off+4]))
		off += 4
		if off+valueLen > len(b) {
			return nil, fmt.Errorf("%w: truncated value at record %d", ErrSerializationFailure, i)
		}
		var value []byte
		if valueLen > 0 {
			value = append([]byte(nil), b[off:off+valueLen]...)
		}
		off += valueLen

		if off+clockLen > len(b) {
			return nil, fmt.Errorf("%w: truncated clock at record %d", ErrSerializationFailure, i)
		}
		eventClock, err := codec.Decode(b[off:off+clockLen], sourceOrder)
		if err != nil {
			return nil, fmt.Errorf("%w: decode event clock at record %d: %v", ErrSerializationFailure, i, err)
		}
		off += clockLen

		events = append(events, Event{Key: key, Value: value, Clock: eventClock, Deleted: deleted})
	}

	return &EventBatch{
		capacity:  len(events),
		events:    events,
		minClock:  minClock,
		maxClock:  maxClock,
		createdAt: time.UnixMilli(createdAtMillis),
		sealed:    true,
	}, nil
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendInt64(buf []byte, v int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return append(buf, b[:]...)
}
