package retention

import (
	"errors"
	"testing"

	"github.com/newsky/krati/clock"
)

func clockAt(t *testing.T, source string, scn uint64) clock.Clock {
	t.Helper()
	c, err := clock.New([]string{source}, []uint64{scn})
	if err != nil {
		t.Fatalf("clock.New: %v", err)
	}
	return c
}

func TestEventBatchAppendTracksMinMax(t *testing.T) {
	b := NewEventBatch(1, 10)
	if err := b.Append("source1", "k1", []byte("v1"), clockAt(t, "source1", 1), false); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := b.Append("source1", "k2", []byte("v2"), clockAt(t, "source1", 3), false); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if b.MinClock().Get("source1") != 1 {
		t.Fatalf("MinClock = %d, want 1", b.MinClock().Get("source1"))
	}
	if b.MaxClock().Get("source1") != 3 {
		t.Fatalf("MaxClock = %d, want 3", b.MaxClock().Get("source1"))
	}
}

func TestEventBatchAppendFullFails(t *testing.T) {
	b := NewEventBatch(1, 1)
	if err := b.Append("source1", "k1", nil, clockAt(t, "source1", 1), false); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := b.Append("source1", "k2", nil, clockAt(t, "source1", 2), false); !errors.Is(err, ErrBatchFull) {
		t.Fatalf("Append beyond capacity = %v, want ErrBatchFull", err)
	}
}

func TestEventBatchAppendRegressionFails(t *testing.T) {
	b := NewEventBatch(1, 10)
	if err := b.Append("source1", "k1", nil, clockAt(t, "source1", 5), false); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := b.Append("source1", "k2", nil, clockAt(t, "source1", 4), false); !errors.Is(err, ErrClockRegression) {
		t.Fatalf("Append with regressed clock = %v, want ErrClockRegression", err)
	}
}

func TestEventBatchAppendAfterSealFails(t *testing.T) {
	b := NewEventBatch(1, 10)
	b.Seal()
	b.Seal() // idempotent
	if err := b.Append("source1", "k1", nil, clockAt(t, "source1", 1), false); !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("Append after seal = %v, want ErrInvariantViolation", err)
	}
}

func TestEventBatchAtOutOfRange(t *testing.T) {
	b := NewEventBatch(1, 10)
	if _, err := b.At(0); err == nil {
		t.Fatalf("expected error reading empty batch")
	}
}

func TestEventBatchSerializeRoundTrip(t *testing.T) {
	b := NewEventBatch(7, 10)
	if err := b.Append("source1", "k1", []byte("v1"), clockAt(t, "source1", 1), false); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := b.Append("source1", "k2", nil, clockAt(t, "source1", 2), true); err != nil {
		t.Fatalf("Append: %v", err)
	}
	b.Seal()

	var codec clock.BinaryCodec
	order := []string{"source1"}
	payload, err := b.Serialize(codec, order)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	got, err := DeserializeEventBatch(payload, codec, order)
	if err != nil {
		t.Fatalf("DeserializeEventBatch: %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", got.Len())
	}
	first, err := got.At(0)
	if err != nil {
		t.Fatalf("At(0): %v", err)
	}
	if first.Key != "k1" || string(first.Value) != "v1" || first.Deleted {
		t.Fatalf("unexpected first event: %+v", first)
	}
	second, err := got.At(1)
	if err != nil {
		t.Fatalf("At(1): %v", err)
	}
	if second.Key != "k2" || !second.Deleted || second.Value != nil {
		t.Fatalf("unexpected second event: %+v", second)
	}
	if got.MaxClock().Get("source1") != 2 {
		t.Fatalf("MaxClock after round trip = %d, want 2", got.MaxClock().Get("source1"))
	}
}

func TestDeserializeEventBatchTruncated(t *testing.T) {
	if _, err := DeserializeEventBatch([]byte{1, 2, 3}, clock.BinaryCodec{}, []string{"source1"}); !errors.Is(err, ErrSerializationFailure) {
		t.Fatalf("Deserialize of truncated payload = %v, want ErrSerializationFailure", err)
	}
}
