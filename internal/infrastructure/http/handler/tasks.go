package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/taskly/internal/application/auth"
	"github.com/rezkam/taskly/internal/application/task"
	"github.com/rezkam/taskly/internal/domain"
	"github.com/rezkam/taskly/internal/infrastructure/http/response"
)

// CreateTask implements POST /v1/tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	loc, err := domain.LoadLocation(r.URL.Query().Get("timezone"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	params := task.CreateTaskParams{
		Name:     req.Name,
		Location: loc,
	}
	if req.Details != nil {
		params.Details = *req.Details
	}
	if req.DueDate != nil {
		params.DueDate = *req.DueDate
	}

	created, err := h.service.CreateTask(r.Context(), auth.UserIDFromContext(r.Context()), params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, TaskResponse{Task: MapTaskToDTO(created, h.service.Now(loc))})
}

// ListTasks implements GET /v1/tasks: filtering, search, sorting and pagination.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	params, err := parseListQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	page, err := h.service.ListTasks(r.Context(), auth.UserIDFromContext(r.Context()), params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, ListTasksResponse{
		Tasks:         MapTasksToDTO(page.Tasks, page.Now),
		TotalCount:    page.TotalCount,
		NextPageToken: generatePageToken(params.Offset+len(page.Tasks), page.HasMore),
	})
}

// GetTask implements GET /v1/tasks/{task_id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.GetTask(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "task_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, TaskResponse{Task: MapTaskToDTO(t, h.service.Now(nil))})
}

// UpdateTask implements PATCH /v1/tasks/{task_id} with a field mask.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	loc, err := domain.LoadLocation(r.URL.Query().Get("timezone"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.service.UpdateTask(r.Context(), auth.UserIDFromContext(r.Context()), domain.UpdateTaskParams{
		TaskID:      chi.URLParam(r, "task_id"),
		UpdateMask:  req.UpdateMask,
		Name:        req.Task.Name,
		Details:     req.Task.Details,
		DueDate:     req.Task.DueDate,
		IsCompleted: req.Task.IsCompleted,
		Location:    loc,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, TaskResponse{Task: MapTaskToDTO(updated, h.service.Now(loc))})
}

// ToggleTask implements POST /v1/tasks/{task_id}/toggle.
func (h *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	toggled, err := h.service.ToggleCompletion(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "task_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, TaskResponse{Task: MapTaskToDTO(toggled, h.service.Now(nil))})
}

// DeleteTask implements DELETE /v1/tasks/{task_id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTask(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "task_id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.NoContent(w)
}

// GetStats implements GET /v1/stats.
func (h *TaskHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, StatsResponse{Stats: MapStatsToDTO(stats)})
}

func (h *TaskHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fe *fieldError
	if errors.As(err, &fe) {
		response.ValidationError(w, fe.field, fe.issue)
		return
	}
	if !errors.Is(err, domain.ErrTaskNotFound) && !errors.Is(err, domain.ErrUnauthorized) {
		slog.DebugContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	response.FromDomainError(w, r, err)
}
