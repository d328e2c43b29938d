package clock

import (
	"encoding/binary"
	"fmt"
)

// Codec converts a Clock to and from a fixed-size byte representation: one
// 64-bit big-endian integer per source, in the order given by sourceOrder.
// The writer and reader of a retention must agree on sourceOrder; nothing
// in the wire format itself records it.
type Codec interface {
	Encode(c Clock, sourceOrder []string) ([]byte, error)
	Decode(b []byte, sourceOrder []string) (Clock, error)
}

// BinaryCodec is the default Codec: 8*len(sourceOrder) bytes, big-endian.
type BinaryCodec struct{}

// Encode implements Codec.
func (BinaryCodec) Encode(c Clock, sourceOrder []string) ([]byte, error) {
	buf := make([]byte, 8*len(sourceOrder))
	for i, s := range sourceOrder {
		binary.BigEndian.PutUint64(buf[i*8:(i+1)*8], c.Get(s))
	}
	return buf, nil
}

// Decode implements Codec.
func (BinaryCodec) Decode(b []byte, sourceOrder []string) (Clock, error) {
	want := 8 * len(sourceOrder)
	if len(b) != want {
		return Clock{}, fmt.Errorf("clock: encoded length %d, want %d for %d sources", len(b), want, len(sourceOrder))
	}
	values := make([]uint64, len(sourceOrder))
	for i := range sourceOrder {
		values[i] = binary.BigEndian.Uint64(b[i*8 : (i+1)*8])
	}
	return New(sourceOrder, values)
}
