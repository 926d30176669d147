// Package serverrun boots the jobq broker process: runtime, staging janitor,
// and HTTP server, with signal-driven shutdown.
package serverrun
