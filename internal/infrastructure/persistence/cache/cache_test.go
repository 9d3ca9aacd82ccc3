package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/rezkam/taskly/internal/application/auth"
	"github.com/rezkam/taskly/internal/domain"
	"github.com/rezkam/taskly/internal/infrastructure/persistence/compliance"
	"github.com/rezkam/taskly/internal/infrastructure/persistence/document/fs"
)

// fakeClient is an in-memory Client.
type fakeClient struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	failAll error
}

func newFakeClient() *fakeClient {
	return &fakeClient{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeClient) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return redis.NewStringResult("", f.failAll)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeClient) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return redis.NewStatusResult("", f.failAll)
	}
	f.data[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Incr(_ context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return redis.NewIntResult(0, f.failAll)
	}
	n, _ := strconv.ParseInt(f.data[key], 10, 64)
	n++
	f.data[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

// countingRepo counts list loads on top of an fs store. afterLoad, when set,
// runs once between loading a list and returning it.
type countingRepo struct {
	compliance.Store
	lists     int
	afterLoad func()
}

func (c *countingRepo) FindTasksByUser(ctx context.Context, userID string) ([]domain.Task, error) {
	c.lists++
	tasks, err := c.Store.FindTasksByUser(ctx, userID)
	if hook := c.afterLoad; hook != nil {
		c.afterLoad = nil
		hook()
	}
	return tasks, err
}

// meterReader returns a Config meter and a func summing taskly.cache.requests by result.
func meterReader(t *testing.T) (Config, func() map[string]int64) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	cfg := Config{Meter: provider.Meter("cache-test")}
	return cfg, func() map[string]int64 {
		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(context.Background(), &rm))
		out := map[string]int64{}
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				if m.Name != "taskly.cache.requests" {
					continue
				}
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok)
				for _, dp := range sum.DataPoints {
					result, _ := dp.Attributes.Value("result")
					out[result.AsString()] += dp.Value
				}
			}
		}
		return out
	}
}

func newBacking(t *testing.T) *countingRepo {
	t.Helper()
	store, err := fs.NewStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	return &countingRepo{Store: store}
}

func sampleTask(userID, id string) *domain.Task {
	now := time.Date(2025, 1, 15, 14, 0, 0, 0, time.UTC)
	return &domain.Task{ID: id, UserID: userID, Name: "Buy milk", DueDate: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now}
}

func TestRepository_ReadThrough(t *testing.T) {
	ctx := context.Background()
	backing := newBacking(t)
	client := newFakeClient()
	cfg, results := meterReader(t)
	cfg.TTL = time.Minute
	repo := NewRepository(backing, client, cfg)

	_, err := repo.CreateTask(ctx, sampleTask("u1", "t1"))
	require.NoError(t, err)

	first, err := repo.FindTasksByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, time.Minute, client.ttls["taskly:tasks:u1:1"])

	second, err := repo.FindTasksByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, 1, backing.lists, "second read must be served from cache")
	assert.Equal(t, map[string]int64{"hit": 1, "miss": 1}, results())
}

func TestRepository_WritesInvalidate(t *testing.T) {
	ctx := context.Background()
	backing := newBacking(t)
	client := newFakeClient()
	repo := NewRepository(backing, client, Config{})

	task := sampleTask("u1", "t1")
	_, err := repo.CreateTask(ctx, task)
	require.NoError(t, err)
	_, err = repo.FindTasksByUser(ctx, "u1")
	require.NoError(t, err)

	task.Name = "Buy oat milk"
	_, err = repo.UpdateTask(ctx, task)
	require.NoError(t, err)
	assert.Equal(t, "2", client.data["taskly:tasks:u1:gen"])

	got, err := repo.FindTasksByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Buy oat milk", got[0].Name)

	require.NoError(t, repo.DeleteTask(ctx, "u1", "t1"))
	got, err = repo.FindTasksByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 3, backing.lists)
}

func TestRepository_FailedWriteKeepsCache(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	repo := NewRepository(newBacking(t), client, Config{})

	_, err := repo.FindTasksByUser(ctx, "u1")
	require.NoError(t, err)
	require.Contains(t, client.data, "taskly:tasks:u1:0")

	err = repo.DeleteTask(ctx, "u1", "missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.NotContains(t, client.data, "taskly:tasks:u1:gen")
}

func TestRepository_RedisDownFallsThrough(t *testing.T) {
	ctx := context.Background()
	backing := newBacking(t)
	client := newFakeClient()
	cfg, results := meterReader(t)
	repo := NewRepository(backing, client, cfg)

	_, err := repo.CreateTask(ctx, sampleTask("u1", "t1"))
	require.NoError(t, err)

	client.failAll = errors.New("connection refused")

	got, err := repo.FindTasksByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = repo.CreateTask(ctx, sampleTask("u1", "t2"))
	require.NoError(t, err, "cache eviction failures do not fail writes")
	assert.Equal(t, int64(2), results()["error"], "generation read and invalidation")
}

func TestRepository_CorruptEntryIsReloaded(t *testing.T) {
	ctx := context.Background()
	backing := newBacking(t)
	client := newFakeClient()
	client.data["taskly:tasks:u1:0"] = "{not json"
	repo := NewRepository(backing, client, Config{})

	got, err := repo.FindTasksByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, backing.lists)
	assert.JSONEq(t, "[]", client.data["taskly:tasks:u1:0"])
}

func TestRepository_WriteDuringLoadIsNotCachedStale(t *testing.T) {
	ctx := context.Background()
	backing := newBacking(t)
	client := newFakeClient()
	repo := NewRepository(backing, client, Config{})

	task := sampleTask("u1", "t1")
	_, err := repo.CreateTask(ctx, task)
	require.NoError(t, err)

	// The update lands after the miss loaded the old list but before it is stored.
	backing.afterLoad = func() {
		renamed := task.Clone()
		renamed.Name = "Buy oat milk"
		_, err := repo.UpdateTask(ctx, &renamed)
		require.NoError(t, err)
	}

	stale, err := repo.FindTasksByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "Buy milk", stale[0].Name)

	got, err := repo.FindTasksByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Buy oat milk", got[0].Name)
	assert.Equal(t, 2, backing.lists)
}

// Runs against a real Redis, e.g. TASKLY_TEST_REDIS_ADDR=localhost:6379.
func TestCachedStore_Compliance(t *testing.T) {
	addr := os.Getenv("TASKLY_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TASKLY_TEST_REDIS_ADDR not set, skipping Redis tests")
	}

	client, err := NewClient(context.Background(), &redis.Options{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	compliance.Run(t, func(t *testing.T) compliance.Store {
		backing := newBacking(t)
		return struct {
			*Repository
			auth.Repository
		}{NewRepository(backing, client, Config{Prefix: "taskly:test:tasks:"}), backing.Store}
	})
}
