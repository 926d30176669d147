package queuestore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rzbill/jobq/internal/qerr"
)

// Settings is a queue's configuration record. Durations are Go duration
// strings ("30s", "5m"). The execution-related fields (timeout, heartbeat,
// retries) are carried for workers; the broker itself only enforces
// InputFilter.
type Settings struct {
	Timeout          string   `json:"timeout,omitempty"`
	HeartbeatTimeout string   `json:"heartbeat_timeout,omitempty"`
	ExpiresAfter     string   `json:"expires_after,omitempty"`
	Retries          int      `json:"retries,omitempty"`
	RetryDelays      []string `json:"retry_delays,omitempty"`

	// InputFilter is an optional CEL expression evaluated against each
	// submitted job's input; a false result rejects the job.
	InputFilter string `json:"input_filter,omitempty"`
}

// parseSettings validates a raw settings document. Any violation is a
// BadRequest so an upsert with bad settings never partially applies.
func parseSettings(raw []byte) (Settings, error) {
	var s Settings
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return Settings{}, qerr.BadRequest(fmt.Sprintf("invalid queue settings: %v", err))
	}
	for _, d := range []struct {
		field, value string
	}{
		{"timeout", s.Timeout},
		{"heartbeat_timeout", s.HeartbeatTimeout},
		{"expires_after", s.ExpiresAfter},
	} {
		if d.value == "" {
			continue
		}
		if _, err := time.ParseDuration(d.value); err != nil {
			return Settings{}, qerr.BadRequest(fmt.Sprintf("invalid %s: %v", d.field, err))
		}
	}
	for _, d := range s.RetryDelays {
		if _, err := time.ParseDuration(d); err != nil {
			return Settings{}, qerr.BadRequest(fmt.Sprintf("invalid retry_delays entry: %v", err))
		}
	}
	if s.Retries < 0 {
		return Settings{}, qerr.BadRequest("retries must not be negative")
	}
	if _, err := newInputFilter(s.InputFilter); err != nil {
		return Settings{}, qerr.BadRequest(fmt.Sprintf("invalid input_filter: %v", err))
	}
	return s, nil
}
