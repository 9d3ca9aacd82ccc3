package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rezkam/taskly/internal/application/auth"
	"github.com/rezkam/taskly/internal/application/task"
	"github.com/rezkam/taskly/internal/domain"
)

// DefaultReadConcurrency bounds parallel document reads when loading a user's tasks.
const DefaultReadConcurrency = 20

// Compile-time verification that Store implements the repository interfaces.
var (
	_ task.Repository = (*Store)(nil)
	_ auth.Repository = (*Store)(nil)
)

// Store implements the task and auth repositories on top of a Bucket.
type Store struct {
	bucket          Bucket
	readConcurrency int

	// Serializes read-modify-write cycles within this process. Buckets shared
	// between processes get last-writer-wins semantics.
	mu sync.Mutex
}

// NewStore creates a document store over bucket.
func NewStore(bucket Bucket) *Store {
	return &Store{bucket: bucket, readConcurrency: DefaultReadConcurrency}
}

// Close closes the underlying bucket.
func (s *Store) Close() error {
	return s.bucket.Close()
}

func validateID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return domain.ErrInvalidID
	}
	return nil
}

// === Task Repository Implementation ===

// CreateTask stores a new task document.
func (s *Store) CreateTask(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	if err := validateID(t.UserID); err != nil {
		return nil, err
	}
	if err := validateID(t.ID); err != nil {
		return nil, err
	}

	data, err := json.Marshal(taskToDocument(t))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}

	if err := s.bucket.Write(ctx, TaskName(t.UserID, t.ID), data, true); err != nil {
		if errors.Is(err, ErrObjectExists) {
			return nil, fmt.Errorf("%w: task %s", domain.ErrAlreadyExists, t.ID)
		}
		return nil, fmt.Errorf("failed to write task: %w", err)
	}

	stored := taskToDocument(t).toDomain()
	return &stored, nil
}

// FindTaskByID reads one task document of a user.
func (s *Store) FindTaskByID(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	if validateID(userID) != nil || validateID(taskID) != nil {
		return nil, domain.ErrTaskNotFound
	}

	t, err := s.readTask(ctx, TaskName(userID, taskID))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) readTask(ctx context.Context, name string) (domain.Task, error) {
	data, err := s.bucket.Read(ctx, name)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return domain.Task{}, domain.ErrTaskNotFound
		}
		return domain.Task{}, fmt.Errorf("failed to read task: %w", err)
	}

	var doc taskDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Task{}, fmt.Errorf("failed to unmarshal task %s: %w", name, err)
	}
	return doc.toDomain(), nil
}

// FindTasksByUser lists the user's task documents and loads them in parallel.
// Documents removed between listing and reading are skipped.
func (s *Store) FindTasksByUser(ctx context.Context, userID string) ([]domain.Task, error) {
	if validateID(userID) != nil {
		return []domain.Task{}, nil
	}

	names, err := s.bucket.List(ctx, TaskPrefix(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]domain.Task, len(names))
	found := make([]bool, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.readConcurrency)
	for i, name := range names {
		if !strings.HasSuffix(name, docSuffix) {
			continue
		}
		g.Go(func() error {
			t, err := s.readTask(gctx, name)
			if errors.Is(err, domain.ErrTaskNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			tasks[i], found[i] = t, true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.Task, 0, len(tasks))
	for i, t := range tasks {
		if found[i] {
			out = append(out, t)
		}
	}
	return out, nil
}

// UpdateTask overwrites an existing task document.
func (s *Store) UpdateTask(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	if validateID(t.UserID) != nil || validateID(t.ID) != nil {
		return nil, domain.ErrTaskNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := TaskName(t.UserID, t.ID)
	if _, err := s.bucket.Read(ctx, name); err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to check task: %w", err)
	}

	data, err := json.Marshal(taskToDocument(t))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}
	if err := s.bucket.Write(ctx, name, data, false); err != nil {
		return nil, fmt.Errorf("failed to write task: %w", err)
	}

	stored := taskToDocument(t).toDomain()
	return &stored, nil
}

// DeleteTask removes a task document.
func (s *Store) DeleteTask(ctx context.Context, userID, taskID string) error {
	if validateID(userID) != nil || validateID(taskID) != nil {
		return domain.ErrTaskNotFound
	}

	if err := s.bucket.Delete(ctx, TaskName(userID, taskID)); err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return domain.ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// === Auth Repository Implementation ===

// FindByShortToken retrieves an API key by its short token.
func (s *Store) FindByShortToken(ctx context.Context, shortToken string) (*domain.APIKey, error) {
	if validateID(shortToken) != nil {
		return nil, fmt.Errorf("%w: API key", domain.ErrNotFound)
	}

	data, err := s.bucket.Read(ctx, apiKeyName(shortToken))
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: API key", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get API key: %w", err)
	}

	var doc apiKeyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal API key: %w", err)
	}
	return doc.toDomain(), nil
}

// UpdateLastUsed moves last_used_at forward; older timestamps are ignored.
func (s *Store) UpdateLastUsed(ctx context.Context, keyID string, timestamp time.Time) error {
	if err := validateID(keyID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.bucket.Read(ctx, apiKeyIDName(keyID))
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return fmt.Errorf("%w: API key", domain.ErrNotFound)
		}
		return fmt.Errorf("failed to resolve API key: %w", err)
	}
	var ref apiKeyIDDocument
	if err := json.Unmarshal(data, &ref); err != nil {
		return fmt.Errorf("failed to unmarshal API key reference: %w", err)
	}

	key, err := s.FindByShortToken(ctx, ref.ShortToken)
	if err != nil {
		return err
	}
	if key.LastUsedAt != nil && !timestamp.After(*key.LastUsedAt) {
		return nil
	}
	ts := timestamp.UTC()
	key.LastUsedAt = &ts

	data, err = json.Marshal(apiKeyToDocument(key))
	if err != nil {
		return fmt.Errorf("failed to marshal API key: %w", err)
	}
	if err := s.bucket.Write(ctx, apiKeyName(key.ShortToken), data, false); err != nil {
		return fmt.Errorf("failed to update last used: %w", err)
	}
	return nil
}

// Create stores a new API key and its ID reference.
func (s *Store) Create(ctx context.Context, key *domain.APIKey) error {
	if validateID(key.ID) != nil || validateID(key.ShortToken) != nil {
		return domain.ErrInvalidID
	}

	data, err := json.Marshal(apiKeyToDocument(key))
	if err != nil {
		return fmt.Errorf("failed to marshal API key: %w", err)
	}
	if err := s.bucket.Write(ctx, apiKeyName(key.ShortToken), data, true); err != nil {
		if errors.Is(err, ErrObjectExists) {
			return fmt.Errorf("%w: API key", domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create API key: %w", err)
	}

	ref, err := json.Marshal(apiKeyIDDocument{ShortToken: key.ShortToken})
	if err != nil {
		return fmt.Errorf("failed to marshal API key reference: %w", err)
	}
	if err := s.bucket.Write(ctx, apiKeyIDName(key.ID), ref, true); err != nil {
		if delErr := s.bucket.Delete(ctx, apiKeyName(key.ShortToken)); delErr != nil {
			slog.ErrorContext(ctx, "failed to roll back API key document",
				"key_id", key.ID,
				"error", delErr)
		}
		if errors.Is(err, ErrObjectExists) {
			return fmt.Errorf("%w: API key", domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create API key reference: %w", err)
	}
	return nil
}
