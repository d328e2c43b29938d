package retention

import (
	"encoding/binary"
	"fmt"

	"github.com/newsky/krati/clock"
)

// Position is a replay cursor with two shapes, discriminated by
// IsIndexed: an indexed position points inside a sealed batch of the
// retention; a streaming position means "every event with a clock
// strictly greater than this on the source coordinate has not yet been
// delivered". Serialization is tag-first so the shape can be recovered
// without decoding the rest of the payload.
type Position struct {
	source  string
	indexed bool

	batchID uint64
	offset  int

	streamClock clock.Clock
}

// IndexedPosition builds an indexed Position at (batchID, offset) on
// source.
func IndexedPosition(source string, batchID uint64, offset int) Position {
	return Position{source: source, indexed: true, batchID: batchID, offset: offset}
}

// StreamingPosition builds a streaming Position on source at c.
func StreamingPosition(source string, c clock.Clock) Position {
	return Position{source: source, indexed: false, streamClock: c}
}

// Source returns the source this position replays.
func (p Position) Source() string { return p.source }

// IsIndexed reports whether this is an indexed (vs. streaming) position.
func (p Position) IsIndexed() bool { return p.indexed }

// BatchID is only meaningful when IsIndexed is true.
func (p Position) BatchID() uint64 { return p.batchID }

// Offset is only meaningful when IsIndexed is true.
func (p Position) Offset() int { return p.offset }

// Clock is only meaningful when IsIndexed is false.
func (p Position) Clock() clock.Clock { return p.streamClock }

const (
	positionTagIndexed   byte = 0
	positionTagStreaming byte = 1
)

// EncodePosition serializes p tag-first: a shape byte, the source name,
// then either (batchID, offset) or a clock encoded with codec over
// sourceOrder.
func EncodePosition(p Position, codec clock.Codec, sourceOrder []string) ([]byte, error) {
	buf := make([]byte, 0, 32)
	if p.indexed {
		buf = append(buf, positionTagIndexed)
	} else {
		buf = append(buf, positionTagStreaming)
	}
	buf = appendUint32(buf, uint32(len(p.source)))
	buf = append(buf, p.source...)

	if p.indexed {
		var idBuf [8]byte
		binary.BigEndian.PutUint64(idBuf[:], p.batchID)
		buf = append(buf, idBuf[:]...)
		buf = appendUint32(buf, uint32(p.offset))
		return buf, nil
	}

	clockBytes, err := codec.Encode(p.streamClock, sourceOrder)
	if err != nil {
		return nil, fmt.Errorf("%w: encode position clock: %v", ErrSerializationFailure, err)
	}
	buf = append(buf, clockBytes...)
	return buf, nil
}

// DecodePosition reverses EncodePosition.
func DecodePosition(b []byte, codec clock.Codec, sourceOrder []string) (Position, error) {
	if len(b) < 1 {
		return Position{}, fmt.Errorf("%w: empty position payload", ErrSerializationFailure)
	}
	tag := b[0]
	off := 1
	if off+4 > len(b) {
		return Position{}, fmt.Errorf("%w: truncated position source length", ErrSerializationFailure)
	}
	sourceLen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if off+sourceLen > len(b) {
		return Position{}, fmt.Errorf("%w: truncated position source", ErrSerializationFailure)
	}
	source := string(b[off : off+sourceLen])
	off += sourceLen

	switch tag {
	case positionTagIndexed:
		if off+12 > len(b) {
			return Position{}, fmt.Errorf("%w: truncated indexed position", ErrSerializationFailure)
		}
		batchID := binary.BigEndian.Uint64(b[off : off+8])
		offset := binary.BigEndian.Uint32(b[off+8 : off+12])
		return IndexedPosition(source, batchID, int(offset)), nil
	case positionTagStreaming:
		c, err := codec.Decode(b[off:], sourceOrder)
		if err != nil {
			return Position{}, fmt.Errorf("%w: decode position clock: %v", ErrSerializationFailure, err)
		}
		return StreamingPosition(source, c), nil
	default:
		return Position{}, fmt.Errorf("%w: unknown position tag %d", ErrSerializationFailure, tag)
	}
}
