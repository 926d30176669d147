package client

import (
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"
)

// NewQueueCommand constructs the `queue` command group and subcommands.
func NewQueueCommand(baseURL BaseURLFunc) *cobra.Command {
	queueCmd := &cobra.Command{Use: "queue", Short: "Queue operations"}

	queueCmd.AddCommand(
		newQueueListCommand(baseURL),
		newQueueApplyCommand(baseURL),
		newQueueDeleteCommand(baseURL),
		newQueueSettingsCommand(baseURL),
		newQueueSizeCommand(baseURL),
		newQueueJobIDsCommand(baseURL),
	)

	return queueCmd
}

func queueURL(baseURL BaseURLFunc, name string, suffix string) string {
	u := baseURL() + "/queue"
	if name != "" {
		u += "/" + url.PathEscape(name)
	}
	return u + suffix
}

// newQueueListCommand constructs the `queue list` subcommand.
func newQueueListCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queues",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := doJSON(cmd.Context(), http.MethodGet, queueURL(baseURL, "", ""), nil)
			if err != nil {
				return err
			}
			return printResponse(cmd, resp)
		},
	}
}

// newQueueApplyCommand constructs the `queue apply` subcommand. Settings come
// from --settings (inline JSON) or --file; empty applies defaults.
func newQueueApplyCommand(baseURL BaseURLFunc) *cobra.Command {
	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Create a queue or update its settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			settings, _ := cmd.Flags().GetString("settings")
			file, _ := cmd.Flags().GetString("file")
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			body := []byte(settings)
			if file != "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				body = b
			}
			if len(body) == 0 {
				body = []byte("{}")
			}
			resp, err := doJSON(cmd.Context(), http.MethodPut, queueURL(baseURL, name, ""), body)
			if err != nil {
				return err
			}
			return printResponse(cmd, resp)
		},
	}
	applyCmd.Flags().String("name", "", "Queue name")
	applyCmd.Flags().String("settings", "", "Settings JSON (inline)")
	applyCmd.Flags().String("file", "", "Settings JSON file")
	return applyCmd
}

// newQueueDeleteCommand constructs the `queue delete` subcommand.
func newQueueDeleteCommand(baseURL BaseURLFunc) *cobra.Command {
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a queue and its queued jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			resp, err := doJSON(cmd.Context(), http.MethodDelete, queueURL(baseURL, name, ""), nil)
			if err != nil {
				return err
			}
			return printResponse(cmd, resp)
		},
	}
	deleteCmd.Flags().String("name", "", "Queue name")
	return deleteCmd
}

// newQueueSettingsCommand constructs the `queue settings` subcommand.
func newQueueSettingsCommand(baseURL BaseURLFunc) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show a queue's settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			resp, err := doJSON(cmd.Context(), http.MethodGet, queueURL(baseURL, name, "/settings"), nil)
			if err != nil {
				return err
			}
			return printResponse(cmd, resp)
		},
	}
	settingsCmd.Flags().String("name", "", "Queue name")
	return settingsCmd
}

// newQueueSizeCommand constructs the `queue size` subcommand.
func newQueueSizeCommand(baseURL BaseURLFunc) *cobra.Command {
	sizeCmd := &cobra.Command{
		Use:   "size",
		Short: "Show the number of queued jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			resp, err := doJSON(cmd.Context(), http.MethodGet, queueURL(baseURL, name, "/size"), nil)
			if err != nil {
				return err
			}
			return printResponse(cmd, resp)
		},
	}
	sizeCmd.Flags().String("name", "", "Queue name")
	return sizeCmd
}

// newQueueJobIDsCommand constructs the `queue job-ids` subcommand.
func newQueueJobIDsCommand(baseURL BaseURLFunc) *cobra.Command {
	jobIDsCmd := &cobra.Command{
		Use:   "job-ids",
		Short: "List queued job ids in retrieval order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			resp, err := doJSON(cmd.Context(), http.MethodGet, queueURL(baseURL, name, "/job_ids"), nil)
			if err != nil {
				return err
			}
			return printResponse(cmd, resp)
		},
	}
	jobIDsCmd.Flags().String("name", "", "Queue name")
	return jobIDsCmd
}
