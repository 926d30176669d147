// Package queuestore implements the authoritative queue/job engine over
// Pebble.
//
// It owns queue settings records, the global job id counter, and the FIFO
// retrieval order. All mutations are atomic Pebble batches; callers above
// this package never sequence or reorder jobs themselves.
package queuestore
