package controllers

import (
	"net/http"

	"github.com/rzbill/jobq/internal/runtime"
	jobsvc "github.com/rzbill/jobq/internal/services/jobs"
	queuesvc "github.com/rzbill/jobq/internal/services/queues"
)

// ControllerRegistry manages all HTTP controllers.
//
// It provides a centralized way to register all controller routes
// and manages the lifecycle of individual controllers.
type ControllerRegistry struct {
	general *GeneralController
	queues  *QueuesController
	jobs    *JobsController
}

// NewControllerRegistry creates a new controller registry.
//
// It initializes all controllers with the provided runtime and services.
func NewControllerRegistry(rt *runtime.Runtime, queuesSvc *queuesvc.Service, jobsSvc *jobsvc.Service) *ControllerRegistry {
	return &ControllerRegistry{
		general: NewGeneralController(rt, queuesSvc),
		queues:  NewQueuesController(rt, queuesSvc),
		jobs:    NewJobsController(rt, jobsSvc),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.queues.RegisterRoutes(mux)
	r.jobs.RegisterRoutes(mux)
}
