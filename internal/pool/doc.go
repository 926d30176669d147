// Package pool bounds concurrent access to the queue store and is the single
// source of connection-kind failures.
package pool
