package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/rzbill/jobq/internal/qerr"
)

// reasonHeader carries the human-readable status reason. Go's HTTP server
// cannot replace the status line's reason phrase, so it travels as a header.
const reasonHeader = "X-Status-Reason"

// statusFor maps an error kind to its HTTP status. Kinds are never collapsed
// into a generic 500 unless they really are internal.
func statusFor(kind qerr.Kind) int {
	switch kind {
	case qerr.KindBadRequest:
		return http.StatusBadRequest
	case qerr.KindNoSuchQueue, qerr.KindNotFound:
		return http.StatusNotFound
	default:
		// Connection, Staging, Internal
		return http.StatusInternalServerError
	}
}

// writeError writes an error response, deriving the status from the error's
// kind and echoing the message in a JSON body.
func writeError(w http.ResponseWriter, err error) {
	kind := qerr.KindOf(err)
	status := statusFor(kind)
	if kind == qerr.KindNoSuchQueue {
		w.Header().Set(reasonHeader, "Queue not found")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// writeJSON writes a JSON response with the given data.
func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// writeNoContent writes a 204 with an optional reason.
func writeNoContent(w http.ResponseWriter, reason string) {
	if reason != "" {
		w.Header().Set(reasonHeader, reason)
	}
	w.WriteHeader(http.StatusNoContent)
}
