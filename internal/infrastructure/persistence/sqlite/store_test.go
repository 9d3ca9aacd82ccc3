package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/taskly/internal/infrastructure/persistence/compliance"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(context.Background(), filepath.Join(t.TempDir(), "taskly.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Compliance(t *testing.T) {
	compliance.Run(t, func(t *testing.T) compliance.Store {
		return newTestStore(t)
	})
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "taskly.db")

	first, err := NewStore(ctx, path)
	require.NoError(t, err)
	_, err = first.db.ExecContext(ctx, `INSERT INTO tasks (id, user_id, name, due_date, created_date, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		"t1", "u1", "Persisted", formatTime(time.Now()), formatTime(time.Now()), formatTime(time.Now()))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	// Reopening re-runs migrations without touching existing rows.
	second, err := NewStore(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.FindTaskByID(ctx, "u1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "Persisted", got.Name)
}

func TestTimeFormat_SortsLexically(t *testing.T) {
	earlier := time.Date(2025, 1, 15, 9, 0, 0, 5, time.UTC)
	later := time.Date(2025, 1, 15, 9, 0, 0, 500_000_000, time.UTC)

	assert.Less(t, formatTime(earlier), formatTime(later))

	tokyo := time.FixedZone("JST", 9*60*60)
	parsed, err := parseTime(formatTime(later.In(tokyo)))
	require.NoError(t, err)
	assert.True(t, later.Equal(parsed))
	assert.Equal(t, time.UTC, parsed.Location())
}
