package retention

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/newsky/krati/clock"
	"github.com/newsky/krati/internal/log"
	pebblestore "github.com/newsky/krati/internal/storage/pebble"
)

// Log is the ordered, bounded-history sequence of sealed batches plus one
// open batch. Only sealed batches are persisted; the open batch lives in
// memory and starts empty again after a crash, consistent with the
// retention durability guarantee: a put is durable in the retention only
// once its containing batch is sealed and flushed.
type Log struct {
	cfg Config
	db  *pebblestore.DB
	log log.Logger

	mu          sync.RWMutex
	nextBatchID uint64
	sealed      []BatchMeta
	open        *EventBatch
	everEvicted bool
}

type persistedBatchMeta struct {
	ID              uint64   `json:"id"`
	MinClock        []uint64 `json:"minClock"`
	MaxClock        []uint64 `json:"maxClock"`
	Count           int      `json:"count"`
	CreatedAtMillis int64    `json:"createdAtMillis"`
}

type persistedMeta struct {
	NextBatchID uint64               `json:"nextBatchId"`
	Sealed      []persistedBatchMeta `json:"sealed"`
	EverEvicted bool                 `json:"everEvicted"`
}

// OpenLog opens (or creates) the pebble database backing cfg's retention
// and recovers its sealed-batch metadata from the last flush. The open
// batch always starts fresh and empty.
func OpenLog(cfg Config) (*Log, error) {
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: BatchSize must be positive", ErrInvariantViolation)
	}
	dir := filepath.Join(cfg.HomeDir, "retention-"+cfg.ID)
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		return nil, fmt.Errorf("%w: open retention database: %v", ErrIO, err)
	}

	l := &Log{cfg: cfg, db: db, log: cfg.logger()}
	if err := l.loadMeta(); err != nil {
		db.Close()
		return nil, err
	}
	l.open = NewEventBatch(l.nextBatchID, cfg.BatchSize)
	l.nextBatchID++
	l.log.Info("retention opened", log.Str("id", cfg.ID), log.Int("sealedBatches", len(l.sealed)))
	return l, nil
}

func (l *Log) loadMeta() error {
	b, err := l.db.Get(metaKey)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("%w: load retention meta: %v", ErrIO, err)
	}
	var pm persistedMeta
	if err := json.Unmarshal(b, &pm); err != nil {
		return fmt.Errorf("%w: decode retention meta: %v", ErrSerializationFailure, err)
	}
	l.nextBatchID = pm.NextBatchID
	l.everEvicted = pm.EverEvicted
	l.sealed = make([]BatchMeta, 0, len(pm.Sealed))
	for _, sm := range pm.Sealed {
		minC, err := clock.New(l.cfg.Sources, sm.MinClock)
		if err != nil {
			return fmt.Errorf("%w: decode sealed batch minClock: %v", ErrSerializationFailure, err)
		}
		maxC, err := clock.New(l.cfg.Sources, sm.MaxClock)
		if err != nil {
			return fmt.Errorf("%w: decode sealed batch maxClock: %v", ErrSerializationFailure, err)
		}
		l.sealed = append(l.sealed, BatchMeta{
			ID:        sm.ID,
			MinClock:  minC,
			MaxClock:  maxC,
			Count:     sm.Count,
			CreatedAt: time.UnixMilli(sm.CreatedAtMillis),
		})
	}
	return nil
}

func (l *Log) persistMeta(pb *pebble.Batch) error {
	pm := persistedMeta{NextBatchID: l.nextBatchID, EverEvicted: l.everEvicted}
	for _, m := range l.sealed {
		pm.Sealed = append(pm.Sealed, persistedBatchMeta{
			ID:              m.ID,
			MinClock:        clockValues(m.MinClock, l.cfg.Sources),
			MaxClock:        clockValues(m.MaxClock, l.cfg.Sources),
			Count:           m.Count,
			CreatedAtMillis: m.CreatedAt.UnixMilli(),
		})
	}
	raw, err := json.Marshal(pm)
	if err != nil {
		return fmt.Errorf("%w: encode retention meta: %v", ErrSerializationFailure, err)
	}
	return pb.Set(metaKey, raw, nil)
}

func clockValues(c clock.Clock, sources []string) []uint64 {
	values := make([]uint64, len(sources))
	for i, s := range sources {
		values[i] = c.Get(s)
	}
	return values
}

// Append adds an event on behalf of source to the log's open batch,
// sealing and rotating (and evicting, if the policy requires it) when the
// open batch is full.
func (l *Log) Append(source, key string, value []byte, c clock.Clock, deleted bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.open.Append(source, key, value, c, deleted); err != nil {
		if err != ErrBatchFull {
			return err
		}
		// The open batch was already at capacity (should only happen if
		// a prior eager seal below somehow didn't fire); seal it and
		// retry once against the fresh batch.
		if err := l.sealAndRotateLocked(); err != nil {
			return err
		}
		if err := l.open.Append(source, key, value, c, deleted); err != nil {
			return err
		}
	}

	if l.open.Len() >= l.cfg.BatchSize {
		if err := l.sealAndRotateLocked(); err != nil {
			return err
		}
	}
	return nil
}

func (l *Log) sealAndRotateLocked() error {
	l.open.Seal()

	pb := l.db.NewBatch()
	defer pb.Close()

	payload, err := l.open.Serialize(l.cfg.clockCodec(), l.cfg.Sources)
	if err != nil {
		return err
	}
	if err := pb.Set(batchKey(l.open.ID()), payload, nil); err != nil {
		return fmt.Errorf("%w: write sealed batch: %v", ErrIO, err)
	}

	l.sealed = append(l.sealed, l.open.Meta())
	l.log.Debug("batch sealed", log.Uint64("batchId", l.open.ID()), log.Int("count", l.open.Len()))

	var evictedID uint64
	var evicted bool
	if l.cfg.Policy != nil && len(l.sealed) > 0 && l.cfg.Policy.ShouldEvict(l.sealed) {
		evictedID = l.sealed[0].ID
		evicted = true
		l.sealed = l.sealed[1:]
		l.everEvicted = true
	}
	if evicted {
		if err := pb.Delete(batchKey(evictedID), nil); err != nil {
			return fmt.Errorf("%w: delete evicted batch: %v", ErrIO, err)
		}
		l.log.Info("batch evicted", log.Uint64("batchId", evictedID))
	}

	if err := l.persistMeta(pb); err != nil {
		return err
	}
	if err := l.db.CommitBatch(context.Background(), pb); err != nil {
		return fmt.Errorf("%w: commit seal: %v", ErrIO, err)
	}

	l.open = NewEventBatch(l.nextBatchID, l.cfg.BatchSize)
	l.nextBatchID++
	return nil
}

// Logger returns the logger the retention was opened with (a discard
// logger if none was configured), for collaborators such as Writer that
// want to log under the same sink.
func (l *Log) Logger() log.Logger {
	return l.log
}

// Flush persists all sealed batches. Sealed batches are already written
// durably at seal time, so Flush is a no-op kept for interface symmetry
// with Store.Flush and the writer's own flush step.
func (l *Log) Flush() error {
	return nil
}

// Close releases the log's pebble database.
func (l *Log) Close() error {
	if err := l.db.Close(); err != nil {
		return fmt.Errorf("%w: close retention database: %v", ErrIO, err)
	}
	return nil
}

// allBatchesLocked returns every batch with at least one event, sealed
// first then the open batch, in retention order. Caller must hold l.mu.
func (l *Log) allBatchesLocked() []BatchMeta {
	out := make([]BatchMeta, 0, len(l.sealed)+1)
	out = append(out, l.sealed...)
	if l.open.Len() > 0 {
		out = append(out, l.open.Meta())
	}
	return out
}

func (l *Log) eventsForLocked(id uint64) ([]Event, bool) {
	if id == l.open.ID() {
		return l.open.events, true
	}
	raw, err := l.db.Get(batchKey(id))
	if err != nil {
		return nil, false
	}
	b, err := DeserializeEventBatch(raw, l.cfg.clockCodec(), l.cfg.Sources)
	if err != nil {
		return nil, false
	}
	return b.events, true
}

// GetPosition resolves target into a Position for source: indexed into
// retained history, streaming if target is already caught up, or
// ErrRetentionExhausted if target predates history the policy has
// evicted.
func (l *Log) GetPosition(source string, target clock.Clock) (Position, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	batches := l.allBatchesLocked()
	if len(batches) == 0 {
		return StreamingPosition(source, target), nil
	}

	floorScn := batches[0].MinClock.Get(source)
	targetFloorScn := target.Get(source)
	switch {
	case targetFloorScn == floorScn:
		return IndexedPosition(source, batches[0].ID, 0), nil
	case targetFloorScn < floorScn:
		if !l.everEvicted {
			return IndexedPosition(source, batches[0].ID, 0), nil
		}
		l.log.Warn("retention exhausted", log.Str("source", source))
		return Position{}, fmt.Errorf("%w: requested clock predates evicted history", ErrRetentionExhausted)
	}

	targetScn := target.Get(source)
	for _, meta := range batches {
		if meta.MaxClock.Get(source) <= targetScn {
			continue
		}
		events, ok := l.eventsForLocked(meta.ID)
		if !ok {
			return Position{}, fmt.Errorf("%w: batch %d no longer resolves", ErrRetentionExhausted, meta.ID)
		}
		for i, e := range events {
			if e.Clock.Get(source) > targetScn {
				return IndexedPosition(source, meta.ID, i), nil
			}
		}
	}
	return StreamingPosition(source, target), nil
}

// Get drains up to maxEvents events starting at position, returning the
// advanced position. An indexed position that walks off the retention's
// known tail transitions, once and for all, to a streaming position; a
// streaming position with nothing new returns an empty slice and the
// position unchanged.
func (l *Log) Get(position Position, maxEvents int) (Position, []Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if position.IsIndexed() {
		return l.getIndexedLocked(position, maxEvents)
	}
	return l.getStreamingLocked(position, maxEvents)
}

func (l *Log) getIndexedLocked(position Position, maxEvents int) (Position, []Event, error) {
	source := position.Source()
	batchID := position.BatchID()
	offset := position.Offset()

	var out []Event
	for len(out) < maxEvents {
		events, ok := l.eventsForLocked(batchID)
		if !ok {
			return position, out, fmt.Errorf("%w: batch %d no longer resolves", ErrRetentionExhausted, batchID)
		}
		if offset < len(events) {
			out = append(out, events[offset])
			offset++
			continue
		}

		nextID, hasNext := l.nextBatchIDLocked(batchID)
		if hasNext {
			batchID = nextID
			offset = 0
			continue
		}

		lastDelivered := l.lastDeliveredClock(out, batchID)
		return StreamingPosition(source, lastDelivered), out, nil
	}
	return IndexedPosition(source, batchID, offset), out, nil
}

func (l *Log) lastDeliveredClock(delivered []Event, currentBatchID uint64) clock.Clock {
	if len(delivered) > 0 {
		return delivered[len(delivered)-1].Clock
	}
	// Nothing was delivered this call, so the batch just walked off was
	// delivered in full by earlier calls: anchor on its last event.
	for _, m := range l.allBatchesLocked() {
		if m.ID == currentBatchID {
			return m.MaxClock
		}
	}
	return clock.Zero()
}

func (l *Log) nextBatchIDLocked(id uint64) (uint64, bool) {
	batches := l.allBatchesLocked()
	for i, m := range batches {
		if m.ID == id && i+1 < len(batches) {
			return batches[i+1].ID, true
		}
	}
	return 0, false
}

func (l *Log) getStreamingLocked(position Position, maxEvents int) (Position, []Event, error) {
	source := position.Source()
	baseline := position.Clock()
	targetScn := baseline.Get(source)

	var out []Event
	newest := baseline
	for _, meta := range l.allBatchesLocked() {
		if meta.MaxClock.Get(source) <= targetScn {
			continue
		}
		events, ok := l.eventsForLocked(meta.ID)
		if !ok {
			continue
		}
		for _, e := range events {
			if e.Clock.Get(source) <= targetScn {
				continue
			}
			if len(out) >= maxEvents {
				return StreamingPosition(source, newest), out, nil
			}
			out = append(out, e)
			newest = e.Clock
			targetScn = e.Clock.Get(source)
		}
	}
	return StreamingPosition(source, newest), out, nil
}
