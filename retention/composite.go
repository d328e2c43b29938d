package retention

import (
	"fmt"

	"github.com/newsky/krati/clock"
)

// CompositePosition is a vector of single-source positions, one per
// constituent reader of a CompositeReader, in the same order the
// CompositeReader was constructed with.
type CompositePosition struct {
	positions []Position
}

// IsIndexed reports whether any component is still indexed. It turns
// false only once every child has transitioned to streaming - the
// "caught up" signal consumers watch for.
func (cp CompositePosition) IsIndexed() bool {
	for _, p := range cp.positions {
		if p.IsIndexed() {
			return true
		}
	}
	return false
}

// At returns the i-th component position.
func (cp CompositePosition) At(i int) Position { return cp.positions[i] }

// GlobalClock returns the per-coordinate maximum over every component
// that has reached a streaming position. Components still indexed do not
// contribute a coordinate, since an indexed position names a location in
// history rather than a clock value.
func (cp CompositePosition) GlobalClock() clock.Clock {
	c := clock.Zero()
	for _, p := range cp.positions {
		if p.IsIndexed() {
			continue
		}
		pc := p.Clock()
		for _, s := range pc.Sources() {
			if v := pc.Get(s); v > c.Get(s) {
				c = c.With(s, v)
			}
		}
	}
	return c
}

// CompositeReader fans multiple single-source Readers with distinct
// sources in behind one cursor. Per-source order is strictly preserved;
// cross-source order is not globally linearized.
type CompositeReader[V any] struct {
	readers []*Reader[V]
}

// NewCompositeReader builds a CompositeReader over readers, which must
// have pairwise distinct sources.
func NewCompositeReader[V any](readers ...*Reader[V]) (*CompositeReader[V], error) {
	seen := make(map[string]struct{}, len(readers))
	for _, r := range readers {
		if _, dup := seen[r.GetSource()]; dup {
			return nil, fmt.Errorf("%w: duplicate source %q in composite reader", ErrInvariantViolation, r.GetSource())
		}
		seen[r.GetSource()] = struct{}{}
	}
	return &CompositeReader[V]{readers: append([]*Reader[V](nil), readers...)}, nil
}

// GetPosition resolves target into a CompositePosition whose k-th
// component is readers[k].GetPosition(target).
func (cr *CompositeReader[V]) GetPosition(target clock.Clock) (CompositePosition, error) {
	positions := make([]Position, len(cr.readers))
	for i, r := range cr.readers {
		p, err := r.GetPosition(target)
		if err != nil {
			return CompositePosition{}, fmt.Errorf("source %q: %w", r.GetSource(), err)
		}
		positions[i] = p
	}
	return CompositePosition{positions: positions}, nil
}

// Get visits every child reader once, in construction order, and
// accumulates whatever each produces into a map keyed by source. A
// child's component position always advances to whatever that reader
// returned, even when it produced no events this round (an indexed to
// streaming transition can happen with nothing delivered).
func (cr *CompositeReader[V]) Get(position CompositePosition) (CompositePosition, map[string][]ReadEvent[V], error) {
	if len(position.positions) != len(cr.readers) {
		return position, nil, fmt.Errorf("%w: composite position has %d components, reader has %d sources",
			ErrInvariantViolation, len(position.positions), len(cr.readers))
	}

	newPositions := append([]Position(nil), position.positions...)
	out := make(map[string][]ReadEvent[V])
	for i, r := range cr.readers {
		next, events, err := r.Get(position.positions[i])
		if err != nil {
			return position, nil, fmt.Errorf("source %q: %w", r.GetSource(), err)
		}
		newPositions[i] = next
		if len(events) > 0 {
			out[r.GetSource()] = events
		}
	}
	return CompositePosition{positions: newPositions}, out, nil
}

// GetValue returns a mapping from source to key's current value, for every
// child that currently holds the key.
func (cr *CompositeReader[V]) GetValue(key string) (map[string]V, error) {
	out := make(map[string]V)
	for _, r := range cr.readers {
		v, ok, err := r.GetValue(key)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", r.GetSource(), err)
		}
		if ok {
			out[r.GetSource()] = v
		}
	}
	return out, nil
}
