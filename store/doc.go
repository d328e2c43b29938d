// Package store implements Krati's latest-value key-value store: a pebble
// database holding, for every key, only the most recently put value (or
// nothing, once deleted). It is the read-optimized counterpart to the
// retention log, which keeps history; the store keeps only the present.
package store
