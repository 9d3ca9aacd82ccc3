// Package compliance holds a behavioral test suite every task and API key
// store must pass, whatever its backing technology.
package compliance

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/taskly/internal/application/auth"
	"github.com/rezkam/taskly/internal/application/task"
	"github.com/rezkam/taskly/internal/domain"
)

// Store is the combined repository surface of a storage backend.
type Store interface {
	task.Repository
	auth.Repository
}

// Run executes the suite. setup must return a store that is safe to use
// for the lifetime of t; it may be shared between subtests because every
// subtest works with freshly generated user IDs.
func Run(t *testing.T, setup func(t *testing.T) Store) {
	t.Run("CreateAndFindTask", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		in := newTask(t, newUserID(t), "Write report")
		in.Details = "quarterly numbers"

		created, err := store.CreateTask(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, in.ID, created.ID)

		got, err := store.FindTaskByID(ctx, in.UserID, in.ID)
		require.NoError(t, err)
		assert.Equal(t, in.Name, got.Name)
		assert.Equal(t, "quarterly numbers", got.Details)
		assert.True(t, in.DueDate.Equal(got.DueDate))
		assert.True(t, in.CreatedAt.Equal(got.CreatedAt))
		assert.False(t, got.IsCompleted)
		assert.Nil(t, got.CompletedAt)
	})

	t.Run("CreateDuplicateFails", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		in := newTask(t, newUserID(t), "Duplicate")
		_, err := store.CreateTask(ctx, in)
		require.NoError(t, err)

		_, err = store.CreateTask(ctx, in)
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	})

	t.Run("FindMissingTask", func(t *testing.T) {
		store := setup(t)

		_, err := store.FindTaskByID(context.Background(), newUserID(t), newID(t))
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("TasksAreScopedByUser", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		alice, bob := newUserID(t), newUserID(t)
		owned := newTask(t, alice, "Alice only")
		_, err := store.CreateTask(ctx, owned)
		require.NoError(t, err)

		_, err = store.FindTaskByID(ctx, bob, owned.ID)
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)

		err = store.DeleteTask(ctx, bob, owned.ID)
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)

		stolen := owned.Clone()
		stolen.UserID = bob
		_, err = store.UpdateTask(ctx, &stolen)
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)

		tasks, err := store.FindTasksByUser(ctx, bob)
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("FindTasksByUser", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		userID := newUserID(t)
		want := map[string]string{}
		for i := range 5 {
			in := newTask(t, userID, fmt.Sprintf("Task %d", i))
			_, err := store.CreateTask(ctx, in)
			require.NoError(t, err)
			want[in.ID] = in.Name
		}
		_, err := store.CreateTask(ctx, newTask(t, newUserID(t), "Someone else"))
		require.NoError(t, err)

		tasks, err := store.FindTasksByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, tasks, len(want))
		for _, got := range tasks {
			assert.Equal(t, want[got.ID], got.Name)
			assert.Equal(t, userID, got.UserID)
		}
	})

	t.Run("FindTasksByUserWithoutTasks", func(t *testing.T) {
		store := setup(t)

		tasks, err := store.FindTasksByUser(context.Background(), newUserID(t))
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("UpdateTask", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		in := newTask(t, newUserID(t), "Before")
		_, err := store.CreateTask(ctx, in)
		require.NoError(t, err)

		completedAt := time.Now().UTC().Truncate(time.Microsecond)
		in.Name = "After"
		in.Details = "changed"
		in.DueDate = in.DueDate.Add(48 * time.Hour)
		in.SetCompleted(true, completedAt)
		in.UpdatedAt = completedAt

		updated, err := store.UpdateTask(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "After", updated.Name)

		got, err := store.FindTaskByID(ctx, in.UserID, in.ID)
		require.NoError(t, err)
		assert.Equal(t, "After", got.Name)
		assert.Equal(t, "changed", got.Details)
		assert.True(t, in.DueDate.Equal(got.DueDate))
		assert.True(t, got.IsCompleted)
		require.NotNil(t, got.CompletedAt)
		assert.True(t, completedAt.Equal(*got.CompletedAt))

		got.SetCompleted(false, completedAt)
		_, err = store.UpdateTask(ctx, got)
		require.NoError(t, err)

		reopened, err := store.FindTaskByID(ctx, in.UserID, in.ID)
		require.NoError(t, err)
		assert.False(t, reopened.IsCompleted)
		assert.Nil(t, reopened.CompletedAt)
	})

	t.Run("UpdateMissingTask", func(t *testing.T) {
		store := setup(t)

		_, err := store.UpdateTask(context.Background(), newTask(t, newUserID(t), "Ghost"))
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("DeleteTask", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		in := newTask(t, newUserID(t), "Short lived")
		_, err := store.CreateTask(ctx, in)
		require.NoError(t, err)

		require.NoError(t, store.DeleteTask(ctx, in.UserID, in.ID))

		_, err = store.FindTaskByID(ctx, in.UserID, in.ID)
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)

		err = store.DeleteTask(ctx, in.UserID, in.ID)
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("ConcurrentCreates", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		userID := newUserID(t)
		const n = 20
		batch := make([]*domain.Task, n)
		for i := range batch {
			batch[i] = newTask(t, userID, fmt.Sprintf("Concurrent %d", i))
		}

		var wg sync.WaitGroup
		errs := make(chan error, n)
		for _, in := range batch {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.CreateTask(ctx, in)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		tasks, err := store.FindTasksByUser(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, tasks, n)
	})

	t.Run("APIKeyLifecycle", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		key := newAPIKey(t)
		require.NoError(t, store.Create(ctx, key))

		got, err := store.FindByShortToken(ctx, key.ShortToken)
		require.NoError(t, err)
		assert.Equal(t, key.ID, got.ID)
		assert.Equal(t, key.UserID, got.UserID)
		assert.Equal(t, key.LongSecretHash, got.LongSecretHash)
		assert.True(t, got.IsActive)
		assert.Nil(t, got.LastUsedAt)

		used := time.Now().UTC().Truncate(time.Microsecond)
		require.NoError(t, store.UpdateLastUsed(ctx, key.ID, used))

		// Older timestamps never move last_used_at backwards.
		require.NoError(t, store.UpdateLastUsed(ctx, key.ID, used.Add(-time.Hour)))

		got, err = store.FindByShortToken(ctx, key.ShortToken)
		require.NoError(t, err)
		require.NotNil(t, got.LastUsedAt)
		assert.True(t, used.Equal(*got.LastUsedAt))
	})

	t.Run("APIKeyNotFound", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		_, err := store.FindByShortToken(ctx, "000000000000")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		err = store.UpdateLastUsed(ctx, newID(t), time.Now())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("APIKeyDuplicateShortToken", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		key := newAPIKey(t)
		require.NoError(t, store.Create(ctx, key))

		dup := newAPIKey(t)
		dup.ShortToken = key.ShortToken
		assert.ErrorIs(t, store.Create(ctx, dup), domain.ErrAlreadyExists)
	})
}

func newID(t *testing.T) string {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return id.String()
}

func newUserID(t *testing.T) string {
	return "user-" + newID(t)
}

func newTask(t *testing.T, userID, name string) *domain.Task {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Task{
		ID:        newID(t),
		UserID:    userID,
		Name:      name,
		DueDate:   now.Add(24 * time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newAPIKey(t *testing.T) *domain.APIKey {
	id := newID(t)
	// Short tokens are 12 hex characters; derive one from the random part of the UUID.
	short := id[len(id)-12:]
	return &domain.APIKey{
		ID:             id,
		UserID:         newUserID(t),
		KeyType:        "sk",
		Service:        "taskly",
		Version:        "v1",
		ShortToken:     short,
		LongSecretHash: "hash-" + id,
		Name:           "compliance",
		IsActive:       true,
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
}
