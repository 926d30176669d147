// Package client contains Cobra CLI commands for talking to a jobq server.
package client

import (
	"github.com/spf13/cobra"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// NewRoot constructs a root Cobra command for the jobq client.
// It registers the queue and job command groups.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "jobq",
		Short: "jobq client commands",
	}
	root.AddCommand(NewQueueCommand(baseURL))
	root.AddCommand(NewJobCommand(baseURL))
	return root
}
