package runtime

import (
	"context"
	"errors"
	"path/filepath"

	cfgpkg "github.com/newsky/krati/internal/config"
	internallog "github.com/newsky/krati/internal/log"
	pebblestore "github.com/newsky/krati/internal/storage/pebble"

	"github.com/newsky/krati/clock"
	"github.com/newsky/krati/codec"
	"github.com/newsky/krati/retention"
	"github.com/newsky/krati/store"
)

// Options configures a Runtime.
type Options struct {
	DataDir string
	Fsync   pebblestore.FsyncMode
	Config  cfgpkg.Config
	Logger  internallog.Logger
}

// Runtime wires configuration and on-disk layout for a single krati
// instance: it knows where a named key-value store's pebble directory
// lives, where a named retention's pebble directory lives, and where a
// source's watermark file lives, and opens each lazily on request. It owns
// no single shared database itself - each store/retention/watermarks gets
// its own independent pebble database or file, so their lifecycles (and
// crash recovery) stay independent, per the layout in the persisted-state
// design.
type Runtime struct {
	dataDir string
	fsync   pebblestore.FsyncMode
	config  cfgpkg.Config
	logger  internallog.Logger
}

// Open validates the data directory and returns a Runtime ready to open
// stores and retentions under it.
func Open(opts Options) (*Runtime, error) {
	if opts.DataDir == "" {
		return nil, errors.New("runtime: Options.DataDir is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = internallog.NewDiscardLogger()
	}
	return &Runtime{dataDir: opts.DataDir, fsync: opts.Fsync, config: opts.Config, logger: logger}, nil
}

// Close releases resources owned directly by the Runtime. Stores and
// retentions opened through it own their own pebble databases and must be
// closed individually by the caller.
func (r *Runtime) Close() error { return nil }

// CheckHealth verifies the data directory is reachable.
func (r *Runtime) CheckHealth(_ context.Context) error {
	_, err := filepath.Abs(r.dataDir)
	return err
}

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Logger returns the runtime's logger.
func (r *Runtime) Logger() internallog.Logger { return r.logger }

func (r *Runtime) storeDir(name string) string {
	return filepath.Join(r.dataDir, "store-"+name)
}

// WatermarksPath returns the path of a source watermark file for the given
// retention id, distinct per retention so independently-retained stores
// don't share a watermark file.
func (r *Runtime) WatermarksPath(retentionID string) string {
	return filepath.Join(r.dataDir, "watermarks-"+retentionID)
}

// OpenRetention opens (or creates) the named retention under the runtime's
// data directory.
func (r *Runtime) OpenRetention(cfg retention.Config) (*retention.Log, error) {
	if cfg.HomeDir == "" {
		cfg.HomeDir = r.dataDir
	}
	if cfg.Logger == nil {
		cfg.Logger = r.logger
	}
	return retention.OpenLog(cfg)
}

// OpenWatermarks opens the source watermark file for retentionID.
func (r *Runtime) OpenWatermarks(retentionID string, sources []string) (*clock.SourceWaterMarksClock, error) {
	return clock.Open(r.WatermarksPath(retentionID), sources)
}

// OpenStore opens the named pebble-backed key-value store under the
// runtime's data directory. A package-level function rather than a method,
// since Go methods cannot carry their own type parameters.
func OpenStore[V any](r *Runtime, name string, valueCodec codec.ValueCodec[V]) (*store.PebbleStore[V], error) {
	return store.Open[V](r.storeDir(name), valueCodec)
}
