package retention

import (
	"testing"

	"github.com/newsky/krati/clock"
	"github.com/newsky/krati/codec"
)

type sourceFixture struct {
	source string
	log    *Log
	writer *Writer[string]
	reader *Reader[string]
}

func newSourceFixture(t *testing.T, source string, log *Log, batchSize int) *sourceFixture {
	t.Helper()
	w, st, _ := openTestWriter(t, source, log)
	r := NewReader[string](source, log, st, codec.UTF8Codec{}, batchSize)
	return &sourceFixture{source: source, log: log, writer: w, reader: r}
}

func drainComposite(t *testing.T, cr *CompositeReader[string], pos CompositePosition) (CompositePosition, map[string][]ReadEvent[string]) {
	t.Helper()
	totals := make(map[string][]ReadEvent[string])
	for {
		next, batch, err := cr.Get(pos)
		if err != nil {
			t.Fatalf("composite Get: %v", err)
		}
		pos = next
		empty := true
		for source, events := range batch {
			if len(events) > 0 {
				empty = false
				totals[source] = append(totals[source], events...)
			}
		}
		if empty {
			return pos, totals
		}
	}
}

func TestCompositeReaderTwoSourcesReplayAndCatchUp(t *testing.T) {
	log := openTestLog(t, 100, RetentionPolicyOnSize(3), []string{"source1", "source2"})
	f1 := newSourceFixture(t, "source1", log, 50)
	f2 := newSourceFixture(t, "source2", log, 50)

	for i := 1; i <= 150; i++ {
		if i%2 == 1 {
			if err := f1.writer.Put(keyFor(i), valueFor(i), uint64((i+1)/2)); err != nil {
				t.Fatalf("source1 Put: %v", err)
			}
		} else {
			if err := f2.writer.Put(keyFor(i), valueFor(i), uint64(i/2)); err != nil {
				t.Fatalf("source2 Put: %v", err)
			}
		}
	}

	cr, err := NewCompositeReader[string](f1.reader, f2.reader)
	if err != nil {
		t.Fatalf("NewCompositeReader: %v", err)
	}
	pos, err := cr.GetPosition(clock.Zero())
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}

	final, totals := drainComposite(t, cr, pos)
	total := len(totals["source1"]) + len(totals["source2"])
	if total != 150 {
		t.Fatalf("composite replayed %d events, want 150", total)
	}
	if final.IsIndexed() {
		t.Fatalf("expected non-indexed (streaming) composite position after drain")
	}

	keys := make(map[string]struct{}, 150)
	for _, events := range totals {
		for _, e := range events {
			keys[e.Key] = struct{}{}
		}
	}
	if len(keys) != 150 {
		t.Fatalf("distinct keys delivered = %d, want 150", len(keys))
	}
}

func TestCompositeReaderStreamingTailAfterCatchUp(t *testing.T) {
	log := openTestLog(t, 100, RetentionPolicyOnSize(10), []string{"source1", "source2"})
	f1 := newSourceFixture(t, "source1", log, 50)
	f2 := newSourceFixture(t, "source2", log, 50)

	for i := 1; i <= 20; i++ {
		if err := f1.writer.Put(keyFor(i), valueFor(i), uint64(i)); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if err := f2.writer.Put(keyFor(i+1000), valueFor(i), uint64(i)); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	cr, err := NewCompositeReader[string](f1.reader, f2.reader)
	if err != nil {
		t.Fatalf("NewCompositeReader: %v", err)
	}
	pos, err := cr.GetPosition(clock.Zero())
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	pos, _ = drainComposite(t, cr, pos)
	if pos.IsIndexed() {
		t.Fatalf("expected caught up")
	}

	for i := 21; i <= 25; i++ {
		if err := f1.writer.Put(keyFor(i), valueFor(i), uint64(i)); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if err := f2.writer.Put(keyFor(i+1000), valueFor(i), uint64(i)); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	next, batch, err := cr.Get(pos)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(batch["source1"]) != 5 || len(batch["source2"]) != 5 {
		t.Fatalf("streaming tail delivered source1=%d source2=%d, want 5 and 5",
			len(batch["source1"]), len(batch["source2"]))
	}

	_, batch2, err := cr.Get(next)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(batch2) != 0 {
		t.Fatalf("expected no events on a repeat call with no new writes, got %v", batch2)
	}
}

func TestCompositeReaderGetValueAggregatesBySource(t *testing.T) {
	log := openTestLog(t, 100, RetentionPolicyOnSize(10), []string{"source1", "source2"})
	f1 := newSourceFixture(t, "source1", log, 50)
	f2 := newSourceFixture(t, "source2", log, 50)

	if err := f1.writer.Put("shared", "from-source1", 1); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := f2.writer.Put("shared", "from-source2", 1); err != nil {
		t.Fatalf("Put: %v", err)
	}

	cr, err := NewCompositeReader[string](f1.reader, f2.reader)
	if err != nil {
		t.Fatalf("NewCompositeReader: %v", err)
	}
	values, err := cr.GetValue("shared")
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if values["source1"] != "from-source1" || values["source2"] != "from-source2" {
		t.Fatalf("GetValue(shared) = %v, want both sources present with their own values", values)
	}
}

func TestCompositeReaderRejectsDuplicateSources(t *testing.T) {
	log := openTestLog(t, 100, RetentionPolicyOnSize(10), []string{"source1"})
	f1 := newSourceFixture(t, "source1", log, 50)

	if _, err := NewCompositeReader[string](f1.reader, f1.reader); err == nil {
		t.Fatalf("expected error constructing composite reader with duplicate sources")
	}
}

func TestCompositeReaderThreeSourcesAcrossTwoRetentions(t *testing.T) {
	retentionA := openTestLog(t, 100, RetentionPolicyOnSize(10), []string{"source1", "source2"})
	retentionB := openTestLog(t, 100, RetentionPolicyOnSize(10), []string{"source3"})

	f1 := newSourceFixture(t, "source1", retentionA, 50)
	f2 := newSourceFixture(t, "source2", retentionA, 50)
	f3 := newSourceFixture(t, "source3", retentionB, 50)

	for i := 1; i <= 100; i++ {
		if err := f1.writer.Put(keyFor(i), valueFor(i), uint64(i)); err != nil {
			t.Fatalf("source1 Put: %v", err)
		}
		if err := f2.writer.Put(keyFor(i+1000), valueFor(i), uint64(i)); err != nil {
			t.Fatalf("source2 Put: %v", err)
		}
		if err := f3.writer.Put(keyFor(i+2000), valueFor(i), uint64(i)); err != nil {
			t.Fatalf("source3 Put: %v", err)
		}
	}

	cr, err := NewCompositeReader[string](f1.reader, f2.reader, f3.reader)
	if err != nil {
		t.Fatalf("NewCompositeReader: %v", err)
	}
	pos, err := cr.GetPosition(clock.Zero())
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	_, totals := drainComposite(t, cr, pos)
	total := len(totals["source1"]) + len(totals["source2"]) + len(totals["source3"])
	if total != 300 {
		t.Fatalf("composite replayed %d events across two retentions, want 300", total)
	}
}
