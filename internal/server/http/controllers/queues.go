package controllers

import (
	"io"
	"net/http"

	"github.com/rzbill/jobq/internal/qerr"
	"github.com/rzbill/jobq/internal/queuestore"
	"github.com/rzbill/jobq/internal/runtime"
	queuesvc "github.com/rzbill/jobq/internal/services/queues"
)

// QueuesController handles queue lifecycle HTTP endpoints: upsert, delete,
// and the settings/size/job-id reads.
type QueuesController struct {
	rt     *runtime.Runtime
	queues *queuesvc.Service
}

// NewQueuesController creates a new queues controller.
func NewQueuesController(rt *runtime.Runtime, svc *queuesvc.Service) *QueuesController {
	return &QueuesController{rt: rt, queues: svc}
}

// RegisterRoutes registers queue lifecycle routes with the given mux.
func (c *QueuesController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /queue", c.handleList)
	mux.HandleFunc("PUT /queue/{name}", c.handleUpsert)
	mux.HandleFunc("DELETE /queue/{name}", c.handleDelete)
	mux.HandleFunc("GET /queue/{name}/settings", c.handleSettings)
	mux.HandleFunc("GET /queue/{name}/size", c.handleSize)
	mux.HandleFunc("GET /queue/{name}/job_ids", c.handleJobIDs)
}

// handleList lists all queue names.
// GET /queue
func (c *QueuesController) handleList(w http.ResponseWriter, r *http.Request) {
	names, err := c.queues.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, names)
}

// handleUpsert creates a queue or replaces its settings. The response
// distinguishes the two: 201 on create, 204 on update.
// PUT /queue/{name}
func (c *QueuesController) handleUpsert(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, qerr.BadRequest("unreadable request body"))
		return
	}
	out, err := c.queues.CreateOrUpdate(r.Context(), name, body)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/queue/"+name)
	if out == queuestore.OutcomeCreated {
		w.WriteHeader(http.StatusCreated)
		return
	}
	writeNoContent(w, "Queue setting updated")
}

// handleDelete removes a queue and its queued jobs.
// DELETE /queue/{name}
func (c *QueuesController) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	deleted, err := c.queues.Delete(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		writeError(w, qerr.NoSuchQueue(name))
		return
	}
	writeNoContent(w, "Queue deleted")
}

// handleSettings returns a queue's settings.
// GET /queue/{name}/settings
func (c *QueuesController) handleSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := c.queues.Settings(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, settings)
}

// handleSize returns the number of queued jobs.
// GET /queue/{name}/size
func (c *QueuesController) handleSize(w http.ResponseWriter, r *http.Request) {
	size, err := c.queues.Size(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, size)
}

// handleJobIDs returns queued job ids in retrieval order.
// GET /queue/{name}/job_ids
func (c *QueuesController) handleJobIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := c.queues.JobIDs(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	if ids == nil {
		ids = []uint64{}
	}
	writeJSON(w, ids)
}
