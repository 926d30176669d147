// Package runtime wires the broker's storage, staging area, and connection
// pool into one openable unit.
package runtime
