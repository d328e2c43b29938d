// Package clock implements Krati's vector clock and durable per-source
// watermark tracking.
//
// # Overview
//
// A Clock is a vector of nonnegative sequence numbers, one slot per named
// source. Two clocks compare as LT, EQ, GT or Incomparable depending on
// whether one dominates the other coordinate-wise; incomparable clocks are
// expected whenever more than one source is in play, and callers that need
// a total order must pick one coordinate (their own source) rather than
// rely on Compare.
//
//	a := clock.Zero()
//	b := a.With("source1", 42)
//	clock.Compare(a, b) // clock.LT
//
// SourceWaterMarksClock adds durable storage on top of Clock: a mapping
// from declared source name to a (low, high) watermark pair, persisted to a
// small text file and rewritten atomically on Flush. The high watermark
// moves in memory on every Advance; only Flush makes it durable, at which
// point it also becomes the new low watermark.
package clock
