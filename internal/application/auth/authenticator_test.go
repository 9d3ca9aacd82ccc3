package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/taskly/internal/domain"
	"github.com/rezkam/taskly/internal/infrastructure/keygen"
)

const (
	realisticDBLatency        = 100 * time.Millisecond
	slowDBLatency             = 2 * time.Second
	realisticOperationTimeout = 500 * time.Millisecond
	normalShutdownTimeout     = 10 * time.Second
	shortShutdownTimeout      = 300 * time.Millisecond
)

// mockRepository is a configurable in-memory Repository.
type mockRepository struct {
	mu sync.Mutex

	keys                map[string]*domain.APIKey // by short token
	updateLastUsedCalls []updateLastUsedCall
	createCalls         []*domain.APIKey

	updateLastUsedDelay time.Duration
	createErr           error

	cancelledCount atomic.Int64
}

type updateLastUsedCall struct {
	KeyID     string
	Timestamp time.Time
}

func newMockRepository() *mockRepository {
	return &mockRepository{keys: make(map[string]*domain.APIKey)}
}

func (m *mockRepository) FindByShortToken(_ context.Context, shortToken string) (*domain.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, ok := m.keys[shortToken]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *key
	return &out, nil
}

func (m *mockRepository) UpdateLastUsed(ctx context.Context, keyID string, timestamp time.Time) error {
	if m.updateLastUsedDelay > 0 {
		select {
		case <-time.After(m.updateLastUsedDelay):
		case <-ctx.Done():
			m.cancelledCount.Add(1)
			return ctx.Err()
		}
	}

	m.mu.Lock()
	m.updateLastUsedCalls = append(m.updateLastUsedCalls, updateLastUsedCall{KeyID: keyID, Timestamp: timestamp})
	m.mu.Unlock()
	return nil
}

func (m *mockRepository) Create(_ context.Context, key *domain.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.createCalls = append(m.createCalls, key)
	m.keys[key.ShortToken] = key
	return nil
}

func (m *mockRepository) getUpdateLastUsedCalls() []updateLastUsedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]updateLastUsedCall, len(m.updateLastUsedCalls))
	copy(result, m.updateLastUsedCalls)
	return result
}

func shutdown(t *testing.T, a *Authenticator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), normalShutdownTimeout)
	defer cancel()
	require.NoError(t, a.Shutdown(ctx))
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestAuthenticator_CreateAndValidate(t *testing.T) {
	repo := newMockRepository()
	a := NewAuthenticator(repo, Config{OperationTimeout: realisticOperationTimeout})

	plain, err := CreateAPIKey(context.Background(), repo, CreateAPIKeyParams{
		UserID:  "user-1",
		KeyType: "sk",
		Service: "taskly",
		Version: "v1",
		Name:    "laptop",
	})
	require.NoError(t, err)
	require.Len(t, repo.createCalls, 1)
	assert.NotContains(t, repo.createCalls[0].LongSecretHash, plain, "plain secret must never be stored")

	key, err := a.ValidateAPIKey(context.Background(), plain)
	require.NoError(t, err)
	assert.Equal(t, "user-1", key.UserID)
	assert.Equal(t, "laptop", key.Name)

	principal, err := a.Identify(context.Background(), plain)
	require.NoError(t, err)
	assert.Equal(t, &domain.Principal{UserID: "user-1", Source: SourceAPIKey}, principal)

	shutdown(t, a)
	calls := repo.getUpdateLastUsedCalls()
	require.Len(t, calls, 2, "each successful validation queues a last_used_at update")
	assert.Equal(t, key.ID, calls[0].KeyID)
}

func TestAuthenticator_RejectsInvalidKeys(t *testing.T) {
	repo := newMockRepository()
	a := NewAuthenticator(repo, Config{OperationTimeout: realisticOperationTimeout})
	defer shutdown(t, a)

	ctx := context.Background()
	plain, err := CreateAPIKey(ctx, repo, CreateAPIKeyParams{UserID: "user-1", KeyType: "sk", Service: "taskly", Version: "v1"})
	require.NoError(t, err)
	parts, err := keygen.ParseAPIKey(plain)
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	expired, err := CreateAPIKey(ctx, repo, CreateAPIKeyParams{UserID: "user-1", KeyType: "sk", Service: "taskly", Version: "v1", ExpiresAt: &past})
	require.NoError(t, err)

	inactive, err := CreateAPIKey(ctx, repo, CreateAPIKeyParams{UserID: "user-1", KeyType: "sk", Service: "taskly", Version: "v1"})
	require.NoError(t, err)
	inactiveParts, err := keygen.ParseAPIKey(inactive)
	require.NoError(t, err)
	repo.keys[inactiveParts.ShortToken].IsActive = false

	tests := []struct {
		name   string
		apiKey string
	}{
		{"malformed", "not-a-key"},
		{"unknown short token", "sk-taskly-v1-000000000000-" + parts.LongSecret},
		{"wrong secret", "sk-taskly-v1-" + parts.ShortToken + "-wrongsecret"},
		{"expired", expired},
		{"inactive", inactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.ValidateAPIKey(ctx, tt.apiKey)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestAuthenticator_Identify_RequiresOwner(t *testing.T) {
	repo := newMockRepository()
	a := NewAuthenticator(repo, Config{})
	defer shutdown(t, a)

	parts, err := keygen.GenerateAPIKey("sk", "taskly", "v1")
	require.NoError(t, err)
	repo.keys[parts.ShortToken] = &domain.APIKey{
		ID:             "legacy",
		ShortToken:     parts.ShortToken,
		LongSecretHash: keygen.HashSecret(parts.LongSecret),
		IsActive:       true,
	}

	_, err = a.Identify(context.Background(), parts.FullKey)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCreateAPIKey_Errors(t *testing.T) {
	repo := newMockRepository()

	_, err := CreateAPIKey(context.Background(), repo, CreateAPIKeyParams{KeyType: "sk", Service: "taskly", Version: "v1"})
	assert.Error(t, err)

	repo.createErr = errors.New("disk full")
	_, err = CreateAPIKey(context.Background(), repo, CreateAPIKeyParams{UserID: "u", KeyType: "sk", Service: "taskly", Version: "v1"})
	assert.ErrorIs(t, err, repo.createErr)
}

// =============================================================================
// SHUTDOWN
// =============================================================================

func TestAuthenticator_Shutdown_EmptyQueue(t *testing.T) {
	t.Parallel()

	repo := newMockRepository()
	a := NewAuthenticator(repo, Config{UpdateQueueSize: 10, OperationTimeout: realisticOperationTimeout})

	shutdown(t, a)
	assert.Empty(t, repo.getUpdateLastUsedCalls())
}

func TestAuthenticator_Shutdown_DrainsQueueBeforeReturning(t *testing.T) {
	t.Parallel()

	repo := newMockRepository()
	repo.updateLastUsedDelay = 20 * time.Millisecond
	a := NewAuthenticator(repo, Config{UpdateQueueSize: 100, OperationTimeout: realisticOperationTimeout})

	const numUpdates = 10
	for i := 0; i < numUpdates; i++ {
		a.lastUsedUpdates <- lastUsedUpdate{keyID: fmt.Sprintf("key-%d", i), timestamp: time.Now().UTC()}
	}

	shutdown(t, a)
	assert.Len(t, repo.getUpdateLastUsedCalls(), numUpdates)
}

func TestAuthenticator_Shutdown_Timeout_CancelsOperations(t *testing.T) {
	t.Parallel()

	repo := newMockRepository()
	repo.updateLastUsedDelay = slowDBLatency
	a := NewAuthenticator(repo, Config{UpdateQueueSize: 100, OperationTimeout: 0})

	for i := 0; i < 3; i++ {
		a.lastUsedUpdates <- lastUsedUpdate{keyID: "slow", timestamp: time.Now().UTC()}
	}
	time.Sleep(realisticDBLatency)

	ctx, cancel := context.WithTimeout(context.Background(), shortShutdownTimeout)
	defer cancel()

	err := a.Shutdown(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Eventually(t, func() bool { return repo.cancelledCount.Load() > 0 },
		normalShutdownTimeout, 10*time.Millisecond, "in-flight update should observe cancellation")
}

func TestAuthenticator_Shutdown_Idempotent(t *testing.T) {
	t.Parallel()

	a := NewAuthenticator(newMockRepository(), Config{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = a.Shutdown(context.Background())
		}()
	}
	wg.Wait()

	assert.NoError(t, a.Shutdown(context.Background()))
}

func TestAuthenticator_QueueFull_DropsUpdate(t *testing.T) {
	t.Parallel()

	repo := newMockRepository()
	repo.updateLastUsedDelay = slowDBLatency
	a := NewAuthenticator(repo, Config{UpdateQueueSize: 1, OperationTimeout: realisticOperationTimeout})

	plain, err := CreateAPIKey(context.Background(), repo, CreateAPIKeyParams{UserID: "u", KeyType: "sk", Service: "taskly", Version: "v1"})
	require.NoError(t, err)

	// Validation never blocks even when the worker is stuck and the queue is full.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			_, _ = a.ValidateAPIKey(context.Background(), plain)
		}
	}()

	select {
	case <-done:
	case <-time.After(slowDBLatency):
		t.Fatal("ValidateAPIKey blocked on a full update queue")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shortShutdownTimeout)
	defer cancel()
	_ = a.Shutdown(ctx)
}

func TestAuthenticator_Defaults(t *testing.T) {
	t.Parallel()

	a := NewAuthenticator(newMockRepository(), Config{OperationTimeout: -time.Second})
	defer shutdown(t, a)

	assert.Equal(t, DefaultOperationTimeout, a.operationTimeout)
	assert.Equal(t, DefaultUpdateQueueSize, cap(a.lastUsedUpdates))

	b := NewAuthenticator(newMockRepository(), Config{OperationTimeout: 0})
	defer shutdown(t, b)
	assert.Zero(t, b.operationTimeout)
}
