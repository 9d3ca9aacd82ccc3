package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/rezkam/taskly/internal/domain"
	"github.com/rezkam/taskly/internal/taskquery"
)

const instrumentationName = "github.com/rezkam/taskly/internal/application/task"

// Default configuration values.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Config holds configuration for the Service.
type Config struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// Location is the calendar used for date buckets and the "not before today"
	// rule when a request does not name one. Defaults to UTC.
	Location        *time.Location
	DefaultPageSize int
	MaxPageSize     int
}

// CreateTaskParams carries the caller-supplied fields of a new task.
type CreateTaskParams struct {
	Name     string
	Details  string
	DueDate  time.Time
	Location *time.Location // calendar for the "not before today" check; nil uses the default
}

// Service provides business logic for task management.
// Listing, search and statistics load the user's tasks from the repository and
// evaluate them in memory with taskquery.
type Service struct {
	repo   Repository
	config Config

	tracer     trace.Tracer
	operations metric.Int64Counter
}

// NewService creates a new task service.
// Applies application defaults for zero or invalid config values.
func NewService(repo Repository, config Config) *Service {
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = DefaultPageSize
	}
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = MaxPageSize
	}

	operations, err := otel.Meter(instrumentationName).Int64Counter(
		"taskly.task.operations",
		metric.WithDescription("Number of task service operations by name and outcome"),
	)
	if err != nil {
		slog.Warn("failed to create task operations counter", "error", err)
	}

	return &Service{
		repo:       repo,
		config:     config,
		tracer:     otel.Tracer(instrumentationName),
		operations: operations,
	}
}

// start opens a span for op and returns a finish func that records the outcome.
func (s *Service) start(ctx context.Context, op, userID string) (context.Context, func(*error)) {
	ctx, span := s.tracer.Start(ctx, "task."+op, trace.WithAttributes(
		attribute.String("taskly.user_id", userID),
	))
	return ctx, func(errp *error) {
		outcome := "ok"
		if errp != nil && *errp != nil {
			outcome = "error"
			span.RecordError(*errp)
			span.SetStatus(codes.Error, (*errp).Error())
		}
		if s.operations != nil {
			s.operations.Add(ctx, 1, metric.WithAttributes(
				attribute.String("operation", op),
				attribute.String("outcome", outcome),
			))
		}
		span.End()
	}
}

func (s *Service) now(loc *time.Location) time.Time {
	if loc == nil {
		loc = s.config.Location
	}
	return s.config.Now().In(loc)
}

// CreateTask validates and stores a new task owned by userID.
func (s *Service) CreateTask(ctx context.Context, userID string, params CreateTaskParams) (_ *domain.Task, err error) {
	ctx, finish := s.start(ctx, "create", userID)
	defer finish(&err)

	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	name, err := domain.NewTaskName(params.Name)
	if err != nil {
		return nil, err
	}
	details, err := domain.NewTaskDetails(params.Details)
	if err != nil {
		return nil, err
	}

	now := s.now(params.Location)
	if err := checkDueDate(params.DueDate, now); err != nil {
		return nil, err
	}

	idObj, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate id: %w", err)
	}

	created := now.UTC()
	task := &domain.Task{
		ID:        idObj.String(),
		UserID:    userID,
		Name:      name.String(),
		Details:   details,
		DueDate:   params.DueDate.UTC(),
		CreatedAt: created,
		UpdatedAt: created,
	}

	stored, err := s.repo.CreateTask(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	slog.InfoContext(ctx, "task created", "task_id", stored.ID, "user_id", userID)
	return stored, nil
}

// checkDueDate rejects missing due dates and due dates before the start of now's day.
func checkDueDate(due time.Time, now time.Time) error {
	if due.IsZero() {
		return domain.ErrDueDateRequired
	}
	if due.Before(taskquery.StartOfDay(now)) {
		return domain.ErrDueDateInPast
	}
	return nil
}

// GetTask retrieves one task of userID.
func (s *Service) GetTask(ctx context.Context, userID, taskID string) (_ *domain.Task, err error) {
	ctx, finish := s.start(ctx, "get", userID)
	defer finish(&err)

	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if taskID == "" {
		return nil, domain.ErrTaskNotFound
	}

	return s.repo.FindTaskByID(ctx, userID, taskID)
}

// ListTasks evaluates filters, optional search and pagination over the user's tasks.
// A blank query is a plain filtered listing.
func (s *Service) ListTasks(ctx context.Context, userID string, params domain.ListTasksParams) (_ *domain.TaskPage, err error) {
	ctx, finish := s.start(ctx, "list", userID)
	defer finish(&err)

	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	if params.Limit < 0 {
		return nil, domain.ErrInvalidPageSize
	}
	if params.Limit == 0 {
		params.Limit = s.config.DefaultPageSize
	}
	params.Limit = min(params.Limit, s.config.MaxPageSize)

	tasks, err := s.repo.FindTasksByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	now := s.now(params.Location)
	var matched []domain.Task
	if q := strings.TrimSpace(params.Query); q != "" {
		matched = taskquery.SearchWithFilters(tasks, q, params.Filters, now)
	} else {
		matched = taskquery.Query(tasks, params.Filters, now)
	}

	total := len(matched)
	start := min(params.Offset, total)
	end := min(start+params.Limit, total)

	return &domain.TaskPage{
		Tasks:      matched[start:end],
		TotalCount: total,
		HasMore:    end < total,
		Now:        now,
	}, nil
}

// UpdateTask applies a field-mask update to a task of userID.
func (s *Service) UpdateTask(ctx context.Context, userID string, params domain.UpdateTaskParams) (_ *domain.Task, err error) {
	ctx, finish := s.start(ctx, "update", userID)
	defer finish(&err)

	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	task, err := s.repo.FindTaskByID(ctx, userID, params.TaskID)
	if err != nil {
		return nil, err
	}

	now := s.now(params.Location)
	if params.Has(domain.FieldName) {
		name, err := domain.NewTaskName(*params.Name)
		if err != nil {
			return nil, err
		}
		task.Name = name.String()
	}
	if params.Has(domain.FieldDetails) {
		raw := ""
		if params.Details != nil {
			raw = *params.Details
		}
		details, err := domain.NewTaskDetails(raw)
		if err != nil {
			return nil, err
		}
		task.Details = details
	}
	if params.Has(domain.FieldDueDate) {
		if err := checkDueDate(*params.DueDate, now); err != nil {
			return nil, err
		}
		task.DueDate = params.DueDate.UTC()
	}
	if params.Has(domain.FieldIsCompleted) {
		task.SetCompleted(*params.IsCompleted, now)
	}
	task.UpdatedAt = now.UTC()

	updated, err := s.repo.UpdateTask(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return updated, nil
}

// ToggleCompletion flips the completion state of a task of userID.
func (s *Service) ToggleCompletion(ctx context.Context, userID, taskID string) (_ *domain.Task, err error) {
	ctx, finish := s.start(ctx, "toggle", userID)
	defer finish(&err)

	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	task, err := s.repo.FindTaskByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	now := s.now(nil)
	task.ToggleCompletion(now)
	task.UpdatedAt = now.UTC()

	updated, err := s.repo.UpdateTask(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle task: %w", err)
	}

	slog.InfoContext(ctx, "task completion toggled",
		"task_id", taskID,
		"user_id", userID,
		"is_completed", updated.IsCompleted)
	return updated, nil
}

// DeleteTask removes a task of userID.
func (s *Service) DeleteTask(ctx context.Context, userID, taskID string) (err error) {
	ctx, finish := s.start(ctx, "delete", userID)
	defer finish(&err)

	if userID == "" {
		return domain.ErrUnauthorized
	}
	if taskID == "" {
		return domain.ErrTaskNotFound
	}

	if err := s.repo.DeleteTask(ctx, userID, taskID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "task deleted", "task_id", taskID, "user_id", userID)
	return nil
}

// Stats summarizes the user's tasks at the current time.
func (s *Service) Stats(ctx context.Context, userID string) (_ domain.TaskStats, err error) {
	ctx, finish := s.start(ctx, "stats", userID)
	defer finish(&err)

	if userID == "" {
		return domain.TaskStats{}, domain.ErrUnauthorized
	}

	tasks, err := s.repo.FindTasksByUser(ctx, userID)
	if err != nil {
		return domain.TaskStats{}, fmt.Errorf("failed to load tasks: %w", err)
	}

	return taskquery.Stats(tasks, s.now(nil)), nil
}

// Now returns the service clock in loc, or in the default location when loc is nil.
func (s *Service) Now(loc *time.Location) time.Time {
	return s.now(loc)
}
