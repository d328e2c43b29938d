package retention

import (
	"github.com/newsky/krati/clock"
	"github.com/newsky/krati/internal/log"
)

// Config configures a retention Log.
type Config struct {
	// ID names the retention; its pebble directory is
	// <HomeDir>/retention-<ID>.
	ID string
	// HomeDir is the parent directory under which the retention's
	// pebble database lives.
	HomeDir string
	// BatchSize is the event capacity of each batch before it is
	// sealed and rotated.
	BatchSize int
	// Policy decides when the oldest sealed batch is evicted.
	Policy Policy
	// Sources is the fixed source order used for clock serialization.
	// Writer and reader must agree on it.
	Sources []string
	// ClockCodec (de)serializes clocks within batch and position
	// payloads. Defaults to clock.BinaryCodec{} when nil.
	ClockCodec clock.Codec
	// Logger receives structured events for seals, evictions, and
	// exhaustion. Defaults to a discard logger when nil.
	Logger log.Logger
}

func (c Config) clockCodec() clock.Codec {
	if c.ClockCodec != nil {
		return c.ClockCodec
	}
	return clock.BinaryCodec{}
}

func (c Config) logger() log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.NewDiscardLogger()
}
