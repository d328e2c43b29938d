package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config is the top-level configuration for a krati CLI/host process: where
// it keeps its data on disk, how it logs, and the retention defaults a
// store opens with when none are given explicitly.
type Config struct {
	DataDir           string `json:"dataDir"`
	LogLevel          string `json:"logLevel"`
	LogFormat         string `json:"logFormat"`
	Fsync             string `json:"fsync"`
	DefaultBatchSize  int    `json:"defaultBatchSize"`
	DefaultMaxBatches int    `json:"defaultMaxBatches"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		DataDir:           DefaultDataDir(),
		LogLevel:          "info",
		LogFormat:         "text",
		Fsync:             "interval",
		DefaultBatchSize:  1000,
		DefaultMaxBatches: 64,
	}
}

// Load reads configuration from a JSON file. If path is empty, returns
// defaults. Fields absent from the file keep their default values.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return Config{}, errors.New("yaml config not supported; use JSON")
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}
