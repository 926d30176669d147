// Package pebblestore provides a thin wrapper around Pebble with fsync policy,
// batches, and point helpers used by the queue store.
package pebblestore
