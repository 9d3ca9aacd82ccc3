// Package cache wraps a task repository with a Redis read-through cache of
// each user's task list. Listing is the only hot read path (every query,
// search and stats call loads the full list), so only FindTasksByUser is
// cached.
//
// Entries are keyed by a per-user generation counter that every write
// increments. A miss that loaded the list before a concurrent write stores it
// under the retired generation, where no reader looks, so stale lists are
// never served; they expire with the TTL.
//
// Redis failures never fail a request: reads fall through to the wrapped
// repository and are logged.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/rezkam/taskly/internal/application/task"
	"github.com/rezkam/taskly/internal/domain"
)

const instrumentationName = "github.com/rezkam/taskly/internal/infrastructure/persistence/cache"

// Defaults applied when Config leaves a field unset.
const (
	DefaultPrefix = "taskly:tasks:"
	DefaultTTL    = 5 * time.Minute
)

// Client is the subset of *redis.Client the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// Config holds cache configuration.
type Config struct {
	Prefix string
	TTL    time.Duration
	// Meter records cache outcomes. Defaults to the global meter provider.
	Meter metric.Meter
}

// Outcomes recorded on the taskly.cache.requests counter.
const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

// Repository is a caching task.Repository decorator.
type Repository struct {
	next   task.Repository
	client Client
	prefix string
	ttl    time.Duration

	requests metric.Int64Counter
}

var _ task.Repository = (*Repository)(nil)

// NewRepository wraps next with a cache stored in client.
func NewRepository(next task.Repository, client Client, cfg Config) *Repository {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Meter == nil {
		cfg.Meter = otel.Meter(instrumentationName)
	}

	requests, err := cfg.Meter.Int64Counter(
		"taskly.cache.requests",
		metric.WithDescription("Task list cache lookups and writes by result"),
	)
	if err != nil {
		slog.Warn("failed to create cache requests counter", "error", err)
	}

	return &Repository{next: next, client: client, prefix: cfg.Prefix, ttl: cfg.TTL, requests: requests}
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

func (r *Repository) record(ctx context.Context, result string) {
	if r.requests != nil {
		r.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}
}

func (r *Repository) generationKey(userID string) string {
	return r.prefix + userID + ":gen"
}

func (r *Repository) listKey(userID string, generation int64) string {
	return r.prefix + userID + ":" + strconv.FormatInt(generation, 10)
}

// generation returns the user's current generation; an absent counter is 0.
func (r *Repository) generation(ctx context.Context, userID string) (int64, error) {
	gen, err := r.client.Get(ctx, r.generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// cachedTask is the JSON shape of a cached task.
type cachedTask struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Name          string     `json:"name"`
	Details       string     `json:"details,omitempty"`
	DueDate       time.Time  `json:"due_date"`
	IsCompleted   bool       `json:"is_completed"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
	CreatedDate   time.Time  `json:"created_date"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func encode(tasks []domain.Task) ([]byte, error) {
	out := make([]cachedTask, len(tasks))
	for i, t := range tasks {
		out[i] = cachedTask{
			ID:            t.ID,
			UserID:        t.UserID,
			Name:          t.Name,
			Details:       t.Details,
			DueDate:       t.DueDate,
			IsCompleted:   t.IsCompleted,
			CompletedDate: t.CompletedAt,
			CreatedDate:   t.CreatedAt,
			UpdatedAt:     t.UpdatedAt,
		}
	}
	return json.Marshal(out)
}

func decode(data []byte) ([]domain.Task, error) {
	var in []cachedTask
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, len(in))
	for i, c := range in {
		tasks[i] = domain.Task{
			ID:          c.ID,
			UserID:      c.UserID,
			Name:        c.Name,
			Details:     c.Details,
			DueDate:     c.DueDate.UTC(),
			IsCompleted: c.IsCompleted,
			CompletedAt: c.CompletedDate,
			CreatedAt:   c.CreatedDate.UTC(),
			UpdatedAt:   c.UpdatedAt.UTC(),
		}
	}
	return tasks, nil
}

// FindTasksByUser serves the user's task list from Redis, loading and
// storing it on a miss.
func (r *Repository) FindTasksByUser(ctx context.Context, userID string) ([]domain.Task, error) {
	gen, err := r.generation(ctx, userID)
	if err != nil {
		r.record(ctx, resultError)
		slog.WarnContext(ctx, "cache generation read failed", "user_id", userID, "error", err)
		return r.next.FindTasksByUser(ctx, userID)
	}
	key := r.listKey(userID, gen)

	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		tasks, decErr := decode(data)
		if decErr == nil {
			r.record(ctx, resultHit)
			return tasks, nil
		}
		r.record(ctx, resultError)
		slog.WarnContext(ctx, "discarding undecodable cache entry", "key", key, "error", decErr)
	case errors.Is(err, redis.Nil):
		r.record(ctx, resultMiss)
	default:
		r.record(ctx, resultError)
		slog.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}

	tasks, err := r.next.FindTasksByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	payload, err := encode(tasks)
	if err != nil {
		r.record(ctx, resultError)
		slog.WarnContext(ctx, "failed to encode cache entry", "key", key, "error", err)
		return tasks, nil
	}
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		r.record(ctx, resultError)
		slog.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
	return tasks, nil
}

// invalidate retires the user's cached list by advancing the generation.
// A failed increment leaves the current entry readable until the TTL expires.
func (r *Repository) invalidate(ctx context.Context, userID string) {
	if err := r.client.Incr(ctx, r.generationKey(userID)).Err(); err != nil {
		r.record(ctx, resultError)
		slog.ErrorContext(ctx, "cache invalidation failed",
			"key", r.generationKey(userID),
			"ttl", r.ttl,
			"error", err)
	}
}

// FindTaskByID is not cached.
func (r *Repository) FindTaskByID(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	return r.next.FindTaskByID(ctx, userID, taskID)
}

// CreateTask writes through and evicts the user's list.
func (r *Repository) CreateTask(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	created, err := r.next.CreateTask(ctx, t)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, t.UserID)
	return created, nil
}

// UpdateTask writes through and evicts the user's list.
func (r *Repository) UpdateTask(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	updated, err := r.next.UpdateTask(ctx, t)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, t.UserID)
	return updated, nil
}

// DeleteTask writes through and evicts the user's list.
func (r *Repository) DeleteTask(ctx context.Context, userID, taskID string) error {
	if err := r.next.DeleteTask(ctx, userID, taskID); err != nil {
		return err
	}
	r.invalidate(ctx, userID)
	return nil
}
