package runtime

import (
	"context"
	"testing"

	cfgpkg "github.com/newsky/krati/internal/config"
	pebblestore "github.com/newsky/krati/internal/storage/pebble"

	"github.com/newsky/krati/codec"
	"github.com/newsky/krati/retention"
)

func TestOpenCloseHealth(t *testing.T) {
	dir := t.TempDir()
	rt, err := Open(Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	defer rt.Close()
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestOpenStoreAndRetention(t *testing.T) {
	dir := t.TempDir()
	rt, err := Open(Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()

	st, err := OpenStore[string](rt, "orders", codec.UTF8Codec{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	if err := st.Put("k1", "v1"); err != nil {
		t.Fatalf("put: %v", err)
	}

	l, err := rt.OpenRetention(retention.Config{
		ID:        "orders",
		BatchSize: 10,
		Policy:    retention.RetentionPolicyOnSize(4),
		Sources:   []string{"orders"},
	})
	if err != nil {
		t.Fatalf("open retention: %v", err)
	}
	defer l.Close()

	wm, err := rt.OpenWatermarks("orders", []string{"orders"})
	if err != nil {
		t.Fatalf("open watermarks: %v", err)
	}
	if _, err := wm.HighWaterMark("orders"); err != nil {
		t.Fatalf("watermark lookup: %v", err)
	}
}
