// Package handler adapts HTTP requests to the task service.
package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/taskly/internal/application/task"
	mw "github.com/rezkam/taskly/internal/infrastructure/http/middleware"
	"github.com/rezkam/taskly/internal/infrastructure/http/openapi"
)

// TaskHandler serves the /v1 task routes.
type TaskHandler struct {
	service *task.Service
}

// NewTaskHandler creates a new HTTP API handler.
func NewTaskHandler(service *task.Service) *TaskHandler {
	return &TaskHandler{service: service}
}

// NewOpenAPIRouter returns the /api sub-router: OpenAPI request validation
// followed by the task routes. Production and tests both build the API
// through this function so they validate identically.
func NewOpenAPIRouter(service *task.Service) (http.Handler, error) {
	h := NewTaskHandler(service)

	spec, err := openapi.GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}

	r := chi.NewRouter()
	r.Use(mw.NewValidator(spec, mw.ValidationConfig{MultiError: true}))
	h.Routes(r)
	return r, nil
}

// Routes registers the task routes on r.
func (h *TaskHandler) Routes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/tasks", h.CreateTask)
		r.Get("/tasks", h.ListTasks)
		r.Get("/tasks/{task_id}", h.GetTask)
		r.Patch("/tasks/{task_id}", h.UpdateTask)
		r.Delete("/tasks/{task_id}", h.DeleteTask)
		r.Post("/tasks/{task_id}/toggle", h.ToggleTask)
		r.Get("/stats", h.GetStats)
	})
}
