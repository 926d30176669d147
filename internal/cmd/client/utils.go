package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

// doJSON performs an HTTP request with an optional JSON body and returns the
// response. The caller owns the response body.
func doJSON(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return http.DefaultClient.Do(req)
}

// printResponse writes the status line and any JSON body to the command's
// stdout. Bodies are re-indented for readability.
func printResponse(cmd *cobra.Command, resp *http.Response) error {
	defer resp.Body.Close()
	fmt.Fprintln(cmd.OutOrStdout(), "status:", resp.Status)
	if reason := resp.Header.Get("X-Status-Reason"); reason != "" {
		fmt.Fprintln(cmd.OutOrStdout(), "reason:", reason)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	var pretty bytes.Buffer
	if json.Indent(&pretty, b, "", "  ") == nil {
		fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
