package config

import (
	"os"
	"strconv"
)

// FromEnv overlays KRATI_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("KRATI_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("KRATI_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("KRATI_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("KRATI_FSYNC"); v != "" {
		cfg.Fsync = v
	}
	if v := os.Getenv("KRATI_DEFAULT_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DefaultBatchSize = n
		}
	}
	if v := os.Getenv("KRATI_DEFAULT_MAX_BATCHES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DefaultMaxBatches = n
		}
	}
}
