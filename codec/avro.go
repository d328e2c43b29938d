package codec

import (
	"fmt"

	"github.com/hamba/avro/v2"
)

// AvroResolvingCodec is a ValueCodec backed by Avro binary encoding with
// independent writer and reader schemas, mirroring the resolving
// serializer pattern: values are always encoded with the writer schema,
// and always decoded with the reader schema, with Avro's own schema
// resolution rules (field reordering, defaults for added fields, ignoring
// removed ones) bridging the two. Both schemas are parsed once at
// construction and reused for every Encode/Decode call.
type AvroResolvingCodec[V any] struct {
	writer avro.Schema
	reader avro.Schema
}

// NewAvroResolvingCodec parses writerSchema and readerSchema (Avro schema
// JSON) and returns a codec that resolves between them on every decode.
func NewAvroResolvingCodec[V any](writerSchema, readerSchema string) (*AvroResolvingCodec[V], error) {
	w, err := avro.Parse(writerSchema)
	if err != nil {
		return nil, fmt.Errorf("%w: parse writer schema: %v", ErrSerializationFailure, err)
	}
	r, err := avro.Parse(readerSchema)
	if err != nil {
		return nil, fmt.Errorf("%w: parse reader schema: %v", ErrSerializationFailure, err)
	}
	resolved, err := avro.NewSchemaCompatibility().Resolve(r, w)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve reader schema against writer schema: %v", ErrSerializationFailure, err)
	}
	return &AvroResolvingCodec[V]{writer: w, reader: resolved}, nil
}

// NewAvroCodec is NewAvroResolvingCodec with a single schema used for both
// encode and decode, for the common case where writer and reader agree.
func NewAvroCodec[V any](schema string) (*AvroResolvingCodec[V], error) {
	return NewAvroResolvingCodec[V](schema, schema)
}

// Encode implements ValueCodec using the writer schema.
func (c *AvroResolvingCodec[V]) Encode(v V) ([]byte, error) {
	b, err := avro.Marshal(c.writer, v)
	if err != nil {
		return nil, fmt.Errorf("%w: avro encode: %v", ErrSerializationFailure, err)
	}
	return b, nil
}

// Decode implements ValueCodec using the reader schema.
func (c *AvroResolvingCodec[V]) Decode(b []byte) (V, error) {
	var v V
	if len(b) == 0 {
		return v, nil
	}
	if err := avro.Unmarshal(c.reader, b, &v); err != nil {
		return v, fmt.Errorf("%w: avro decode: %v", ErrSerializationFailure, err)
	}
	return v, nil
}
