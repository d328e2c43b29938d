// Package retention implements Krati's change-retention log: an
// append-only, segmented, bounded-history stream of change events tagged
// with a multi-source logical clock, the writer that binds a put/delete to
// a store update and a clock advance, and the single-source and composite
// readers that replay history and then stream live updates.
//
// Sealed batches are durable in pebble once flushed; the currently open
// batch lives only in memory and is rebuilt from scratch (empty) after a
// crash, since the spec only guarantees retention durability of a put once
// its containing batch is sealed and flushed.
package retention
