package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.LogLevel != "info" {
		t.Fatalf("default log level = %q, want info", cfg.LogLevel)
	}
	if cfg.DefaultBatchSize != 1000 {
		t.Fatalf("default batch size = %d, want 1000", cfg.DefaultBatchSize)
	}
	if cfg.DefaultMaxBatches != 64 {
		t.Fatalf("default max batches = %d, want 64", cfg.DefaultMaxBatches)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "krati.json")
	data := []byte(`{"logLevel":"debug","defaultBatchSize":500,"fsync":"always"}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected debug, got %q", cfg.LogLevel)
	}
	if cfg.DefaultBatchSize != 500 {
		t.Fatalf("expected 500, got %d", cfg.DefaultBatchSize)
	}
	if cfg.Fsync != "always" {
		t.Fatalf("expected always, got %q", cfg.Fsync)
	}
	// Fields absent from the file keep their default.
	if cfg.DefaultMaxBatches != 64 {
		t.Fatalf("expected default max batches to survive partial override, got %d", cfg.DefaultMaxBatches)
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	os.Setenv("KRATI_LOG_LEVEL", "warn")
	os.Setenv("KRATI_DATA_DIR", "/tmp/krati-data")
	os.Setenv("KRATI_DEFAULT_BATCH_SIZE", "250")
	t.Cleanup(func() {
		os.Unsetenv("KRATI_LOG_LEVEL")
		os.Unsetenv("KRATI_DATA_DIR")
		os.Unsetenv("KRATI_DEFAULT_BATCH_SIZE")
	})
	FromEnv(&cfg)
	if cfg.LogLevel != "warn" {
		t.Fatalf("env override log level")
	}
	if cfg.DataDir != "/tmp/krati-data" {
		t.Fatalf("env override data dir")
	}
	if cfg.DefaultBatchSize != 250 {
		t.Fatalf("env override batch size")
	}
}
