package retention

import "errors"

// Sentinel errors surfaced by the retention log, writer, and readers.
// Callers match on these with errors.Is; they are always wrapped with
// call-specific context via fmt.Errorf("...: %w", err).
var (
	// ErrClockRegression is returned when a write's sequence number is
	// lower than the source's current high watermark, or when an
	// appended event's coordinate for its source is lower than the
	// highest one that source already has in the batch.
	ErrClockRegression = errors.New("retention: clock regression")

	// ErrBatchFull is returned internally by EventBatch.Append when the
	// batch is already at capacity; the log catches it, seals the batch,
	// and starts a new one.
	ErrBatchFull = errors.New("retention: batch full")

	// ErrRetentionExhausted is returned when a reader asks for a
	// position that predates history the retention policy has already
	// evicted.
	ErrRetentionExhausted = errors.New("retention: exhausted")

	// ErrSerializationFailure wraps a codec failure encountered while
	// encoding or decoding a batch, event, or clock.
	ErrSerializationFailure = errors.New("retention: serialization failure")

	// ErrIO wraps a failure persisting or reading segment or metadata
	// state.
	ErrIO = errors.New("retention: io failure")

	// ErrInvariantViolation marks a condition that should be impossible
	// given the rest of the package's own guarantees - a bug, not a
	// caller error.
	ErrInvariantViolation = errors.New("retention: invariant violation")
)
