// Package log provides Krati's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Entries flow straight through a
// configurable Formatter (JSON or text) to one or more Outputs (console,
// writer, file, or discard), keeping consistent output across the retention
// log, the writer, the reader, and the CLI.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("retention"), log.Str("source", "orders"))
//	l.Info("batch sealed", log.Int("count", 100))
//
// Components that don't need logging take a Logger defaulting to a discard
// logger rather than a nil check at every call site.
package log
