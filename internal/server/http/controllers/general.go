package controllers

import (
	"net/http"

	"github.com/rzbill/jobq/internal/runtime"
	queuesvc "github.com/rzbill/jobq/internal/services/queues"
)

// serverVersion is reported by the info endpoint.
const serverVersion = "0.1.0"

// GeneralController handles health and server-info endpoints.
type GeneralController struct {
	rt     *runtime.Runtime
	queues *queuesvc.Service
}

// NewGeneralController creates a new general controller.
func NewGeneralController(rt *runtime.Runtime, queues *queuesvc.Service) *GeneralController {
	return &GeneralController{rt: rt, queues: queues}
}

// RegisterRoutes registers health and info routes with the given mux.
func (c *GeneralController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", c.handleHealth)
	mux.HandleFunc("GET /info", c.handleInfo)
}

// handleHealth reports storage liveness.
// GET /health
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{"status": "not_serving"})
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleInfo reports the server name, version, and queue count.
// GET /info
func (c *GeneralController) handleInfo(w http.ResponseWriter, r *http.Request) {
	names, err := c.queues.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"name":    "jobq",
		"version": serverVersion,
		"queues":  len(names),
	})
}
