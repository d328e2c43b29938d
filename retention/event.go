package retention

import "github.com/newsky/krati/clock"

// Event is the unit a consumer reads: a key, its value at the time of the
// write, and the writer's clock at the moment of the put. A deleted key is
// carried as a tombstone event with Deleted set and Value nil.
type Event struct {
	Key     string
	Value   []byte
	Clock   clock.Clock
	Deleted bool
}
