package retention

import (
	"strconv"
	"testing"

	"github.com/newsky/krati/clock"
	"github.com/newsky/krati/codec"
)

func TestReaderReplaysWriterEventsInOrder(t *testing.T) {
	log := openTestLog(t, 100, RetentionPolicyOnSize(10), []string{"source1"})
	w, st, _ := openTestWriter(t, "source1", log)

	for i := 1; i <= 30; i++ {
		if err := w.Put(keyFor(i), valueFor(i), uint64(i)); err != nil {
			t.Fatalf("Put(%d): %v", i, err)
		}
	}

	r := NewReader[string]("source1", log, st, codec.UTF8Codec{}, 7)
	pos, err := r.GetPosition(clock.Zero())
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}

	var got []ReadEvent[string]
	for {
		next, events, err := r.Get(pos)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		got = append(got, events...)
		if len(events) == 0 {
			break
		}
		pos = next
	}
	if len(got) != 30 {
		t.Fatalf("got %d events, want 30", len(got))
	}
	for i, e := range got {
		if e.Key != keyFor(i+1) || e.Value != valueFor(i+1) {
			t.Fatalf("event %d = %+v, want key=%s value=%s", i, e, keyFor(i+1), valueFor(i+1))
		}
	}
}

func TestReaderGetValueBypassesRetention(t *testing.T) {
	log := openTestLog(t, 100, RetentionPolicyOnSize(10), []string{"source1"})
	w, st, _ := openTestWriter(t, "source1", log)

	if err := w.Put("k1", "v1", 1); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := w.Put("k1", "v2", 2); err != nil {
		t.Fatalf("Put: %v", err)
	}

	r := NewReader[string]("source1", log, st, codec.UTF8Codec{}, 10)
	v, ok, err := r.GetValue("k1")
	if err != nil || !ok || v != "v2" {
		t.Fatalf("GetValue(k1) = (%q, %v, %v), want (v2, true, nil)", v, ok, err)
	}
}

func keyFor(i int) string   { return "key-" + strconv.Itoa(i) }
func valueFor(i int) string { return "value-" + strconv.Itoa(i) }
