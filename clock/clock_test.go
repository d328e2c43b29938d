package clock

import "testing"

func TestZeroDominatedByEverything(t *testing.T) {
	z := Zero()
	c, err := New([]string{"s1", "s2"}, []uint64{5, 0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := Compare(z, c); got != LT {
		t.Fatalf("Compare(zero, c) = %v, want LT", got)
	}
	if !LessEqual(z, c) {
		t.Fatalf("expected zero <= c")
	}
}

func TestCompareEqual(t *testing.T) {
	a, _ := New([]string{"s1"}, []uint64{3})
	b, _ := New([]string{"s1"}, []uint64{3})
	if got := Compare(a, b); got != EQ {
		t.Fatalf("Compare = %v, want EQ", got)
	}
}

func TestCompareIncomparable(t *testing.T) {
	a, _ := New([]string{"s1", "s2"}, []uint64{5, 0})
	b, _ := New([]string{"s1", "s2"}, []uint64{0, 5})
	if got := Compare(a, b); got != Incomparable {
		t.Fatalf("Compare = %v, want Incomparable", got)
	}
}

func TestWithAppendsMissingSource(t *testing.T) {
	a := Zero()
	b := a.With("s1", 7)
	if b.Get("s1") != 7 {
		t.Fatalf("Get(s1) = %d, want 7", b.Get("s1"))
	}
	if a.Get("s1") != 0 {
		t.Fatalf("With mutated receiver")
	}
}

func TestWithUpdatesExistingSource(t *testing.T) {
	a, _ := New([]string{"s1", "s2"}, []uint64{1, 2})
	b := a.With("s1", 9)
	if b.Get("s1") != 9 || b.Get("s2") != 2 {
		t.Fatalf("unexpected clock after With: %+v", b)
	}
	if len(b.Sources()) != 2 {
		t.Fatalf("With on existing source should not grow coordinate count")
	}
}

func TestDuplicateSourceRejected(t *testing.T) {
	if _, err := New([]string{"s1", "s1"}, []uint64{1, 2}); err == nil {
		t.Fatalf("expected error for duplicate source")
	}
}

func TestNewMismatchedLengths(t *testing.T) {
	if _, err := New([]string{"s1"}, []uint64{1, 2}); err == nil {
		t.Fatalf("expected error for mismatched lengths")
	}
}
