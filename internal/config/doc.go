// Package config provides loading and environment overlay for the krati
// host process's configuration: data directory, log level/format, fsync
// policy, and the retention defaults a store opens with when the CLI
// doesn't override them.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/krati.json"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
package config
