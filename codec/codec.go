package codec

import "errors"

// ErrSerializationFailure wraps any encode/decode failure from an
// underlying codec (malformed bytes, schema mismatch, encoder error). It is
// the codec-level counterpart of retention.ErrSerializationFailure: the
// retention writer and reader report codec failures under that sentinel,
// while the store wraps the codec's error under its own message.
var ErrSerializationFailure = errors.New("codec: serialization failure")

// ValueCodec converts a value of type V to and from its wire
// representation. Implementations must round-trip: Decode(Encode(v)) == v
// for every v the application ever passes in.
type ValueCodec[V any] interface {
	Encode(v V) ([]byte, error)
	Decode(b []byte) (V, error)
}
