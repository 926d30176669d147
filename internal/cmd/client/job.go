package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
)

// NewJobCommand constructs the `job` command group and subcommands.
func NewJobCommand(baseURL BaseURLFunc) *cobra.Command {
	jobCmd := &cobra.Command{Use: "job", Short: "Job operations"}

	jobCmd.AddCommand(
		newJobCreateCommand(baseURL),
		newJobNextCommand(baseURL),
		newJobFetchCommand(baseURL),
		newJobReattemptCommand(baseURL),
	)

	return jobCmd
}

// newJobCreateCommand constructs the `job create` subcommand.
func newJobCreateCommand(baseURL BaseURLFunc) *cobra.Command {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Submit a job to a queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			queue, _ := cmd.Flags().GetString("queue")
			input, _ := cmd.Flags().GetString("input")
			tags, _ := cmd.Flags().GetStringSlice("tag")
			if queue == "" {
				return fmt.Errorf("--queue is required")
			}
			req := map[string]any{}
			if input != "" {
				var raw json.RawMessage
				if err := json.Unmarshal([]byte(input), &raw); err != nil {
					return fmt.Errorf("invalid --input JSON: %w", err)
				}
				req["input"] = raw
			}
			if len(tags) > 0 {
				req["tags"] = tags
			}
			body, err := json.Marshal(req)
			if err != nil {
				return err
			}
			resp, err := doJSON(cmd.Context(), http.MethodPost, queueURL(baseURL, queue, "/job"), body)
			if err != nil {
				return err
			}
			return printResponse(cmd, resp)
		},
	}
	createCmd.Flags().String("queue", "", "Queue name")
	createCmd.Flags().String("input", "", "Job input JSON")
	createCmd.Flags().StringSlice("tag", nil, "Job tag (repeatable)")
	return createCmd
}

// newJobNextCommand constructs the `job next` subcommand.
func newJobNextCommand(baseURL BaseURLFunc) *cobra.Command {
	nextCmd := &cobra.Command{
		Use:   "next",
		Short: "Pop the oldest queued job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			queue, _ := cmd.Flags().GetString("queue")
			if queue == "" {
				return fmt.Errorf("--queue is required")
			}
			resp, err := doJSON(cmd.Context(), http.MethodGet, queueURL(baseURL, queue, "/job"), nil)
			if err != nil {
				return err
			}
			return printResponse(cmd, resp)
		},
	}
	nextCmd.Flags().String("queue", "", "Queue name")
	return nextCmd
}

// newJobFetchCommand constructs the `job fetch` subcommand.
func newJobFetchCommand(baseURL BaseURLFunc) *cobra.Command {
	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Read a queued job by id without consuming it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			queue, _ := cmd.Flags().GetString("queue")
			id, _ := cmd.Flags().GetUint64("id")
			if queue == "" {
				return fmt.Errorf("--queue is required")
			}
			suffix := "/job/" + strconv.FormatUint(id, 10)
			resp, err := doJSON(cmd.Context(), http.MethodGet, queueURL(baseURL, queue, suffix), nil)
			if err != nil {
				return err
			}
			return printResponse(cmd, resp)
		},
	}
	fetchCmd.Flags().String("queue", "", "Queue name")
	fetchCmd.Flags().Uint64("id", 0, "Job id")
	return fetchCmd
}

// newJobReattemptCommand constructs the `job reattempt` subcommand.
func newJobReattemptCommand(baseURL BaseURLFunc) *cobra.Command {
	reattemptCmd := &cobra.Command{
		Use:   "reattempt",
		Short: "Replay a staged job whose commit failed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			queue, _ := cmd.Flags().GetString("queue")
			ts, _ := cmd.Flags().GetInt64("timestamp")
			if queue == "" {
				return fmt.Errorf("--queue is required")
			}
			if ts == 0 {
				return fmt.Errorf("--timestamp is required")
			}
			suffix := "/job/" + strconv.FormatInt(ts, 10) + "/reattempt"
			resp, err := doJSON(cmd.Context(), http.MethodPost, queueURL(baseURL, queue, suffix), nil)
			if err != nil {
				return err
			}
			return printResponse(cmd, resp)
		},
	}
	reattemptCmd.Flags().String("queue", "", "Queue name")
	reattemptCmd.Flags().Int64("timestamp", 0, "Staging timestamp of the failed submission")
	return reattemptCmd
}
