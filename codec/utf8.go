package codec

import (
	"fmt"
	"unicode/utf8"
)

// UTF8Codec is the simplest ValueCodec[string]: Encode is a direct byte
// copy of the string, Decode validates that the bytes are well-formed
// UTF-8 before returning them as a string.
type UTF8Codec struct{}

// Encode implements ValueCodec[string].
func (UTF8Codec) Encode(v string) ([]byte, error) {
	return []byte(v), nil
}

// Decode implements ValueCodec[string].
func (UTF8Codec) Decode(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: invalid UTF-8 sequence", ErrSerializationFailure)
	}
	return string(b), nil
}
