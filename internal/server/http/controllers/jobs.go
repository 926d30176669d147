package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rzbill/jobq/internal/qerr"
	"github.com/rzbill/jobq/internal/queuestore"
	"github.com/rzbill/jobq/internal/runtime"
	jobsvc "github.com/rzbill/jobq/internal/services/jobs"
)

// JobsController handles job submission and retrieval endpoints.
type JobsController struct {
	rt   *runtime.Runtime
	jobs *jobsvc.Service
}

// NewJobsController creates a new jobs controller.
func NewJobsController(rt *runtime.Runtime, svc *jobsvc.Service) *JobsController {
	return &JobsController{rt: rt, jobs: svc}
}

// RegisterRoutes registers job routes with the given mux.
func (c *JobsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /queue/{name}/job", c.handleCreate)
	mux.HandleFunc("GET /queue/{name}/job", c.handleNext)
	mux.HandleFunc("GET /queue/{name}/job/{id}", c.handleFetch)
	mux.HandleFunc("POST /queue/{name}/job/{timestamp}/reattempt", c.handleReattempt)
}

// handleCreate stages and commits a new job.
// POST /queue/{name}/job
func (c *JobsController) handleCreate(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var req queuestore.JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, qerr.BadRequest("invalid job request: "+err.Error()))
		return
	}
	id, err := c.jobs.Submit(r.Context(), name, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/job/"+strconv.FormatUint(id, 10))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(id)
}

// handleNext pops the oldest queued job. An empty queue yields 204, held for
// the configured next-job delay.
// GET /queue/{name}/job
func (c *JobsController) handleNext(w http.ResponseWriter, r *http.Request) {
	job, err := c.jobs.NextJob(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	if job == nil {
		writeNoContent(w, "")
		return
	}
	writeJSON(w, job)
}

// handleFetch reads a queued job by id without consuming it.
// GET /queue/{name}/job/{id}
func (c *JobsController) handleFetch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, qerr.BadRequest("invalid job id"))
		return
	}
	job, err := c.jobs.FetchJob(r.Context(), r.PathValue("name"), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if job == nil {
		writeNoContent(w, "")
		return
	}
	writeJSON(w, job)
}

// handleReattempt replays a staged job whose commit previously failed.
// POST /queue/{name}/job/{timestamp}/reattempt
func (c *JobsController) handleReattempt(w http.ResponseWriter, r *http.Request) {
	stagingID, err := strconv.ParseInt(r.PathValue("timestamp"), 10, 64)
	if err != nil {
		writeError(w, qerr.BadRequest("invalid staging timestamp"))
		return
	}
	id, err := c.jobs.Reattempt(r.Context(), r.PathValue("name"), stagingID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/job/"+strconv.FormatUint(id, 10))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(id)
}
