package codec

import (
	"errors"
	"testing"
)

func TestUTF8CodecRoundTrip(t *testing.T) {
	var c UTF8Codec
	b, err := c.Encode("hello, krati")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != "hello, krati" {
		t.Fatalf("got %q, want %q", got, "hello, krati")
	}
}

func TestUTF8CodecEmptyString(t *testing.T) {
	var c UTF8Codec
	b, err := c.Encode("")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(b) != 0 {
		t.Fatalf("expected empty encoding, got %v", b)
	}
	got, err := c.Decode(b)
	if err != nil || got != "" {
		t.Fatalf("Decode(empty) = (%q, %v), want (\"\", nil)", got, err)
	}
}

func TestUTF8CodecRejectsInvalidBytes(t *testing.T) {
	var c UTF8Codec
	if _, err := c.Decode([]byte{0xff, 0xfe, 0xfd}); err == nil {
		t.Fatalf("expected error decoding invalid UTF-8")
	} else if !errors.Is(err, ErrSerializationFailure) {
		t.Fatalf("error %v does not wrap ErrSerializationFailure", err)
	}
}
