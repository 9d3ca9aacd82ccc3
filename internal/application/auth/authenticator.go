package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rezkam/taskly/internal/domain"
	"github.com/rezkam/taskly/internal/infrastructure/keygen"
)

// Default configuration values.
const (
	DefaultOperationTimeout = 5 * time.Second
	DefaultUpdateQueueSize  = 1000
)

// SourceAPIKey marks principals authenticated with an API key.
const SourceAPIKey = "api_key"

// Config holds configuration for the Authenticator.
type Config struct {
	OperationTimeout time.Duration // Timeout for storage operations
	UpdateQueueSize  int           // Buffer size for last_used_at updates
}

// lastUsedUpdate holds information for updating an API key's last_used_at timestamp.
type lastUsedUpdate struct {
	keyID     string
	timestamp time.Time
}

// Authenticator handles API key authentication.
type Authenticator struct {
	repo             Repository
	appCtx           context.Context // cancelled when shutdown times out
	appCancel        context.CancelFunc
	lastUsedUpdates  chan lastUsedUpdate
	shutdownChan     chan struct{}
	shutdownOnce     sync.Once
	wg               sync.WaitGroup
	operationTimeout time.Duration
}

// NewAuthenticator creates a new authenticator and starts the background worker
// for processing last_used_at updates.
// Negative OperationTimeout gets the default; zero means no timeout.
// Zero UpdateQueueSize gets the default (must be > 0 to avoid blocking).
func NewAuthenticator(repo Repository, config Config) *Authenticator {
	if config.OperationTimeout < 0 {
		config.OperationTimeout = DefaultOperationTimeout
	}
	if config.UpdateQueueSize <= 0 {
		config.UpdateQueueSize = DefaultUpdateQueueSize
	}

	appCtx, appCancel := context.WithCancel(context.Background())
	a := &Authenticator{
		repo:             repo,
		appCtx:           appCtx,
		appCancel:        appCancel,
		lastUsedUpdates:  make(chan lastUsedUpdate, config.UpdateQueueSize),
		shutdownChan:     make(chan struct{}),
		operationTimeout: config.OperationTimeout,
	}

	a.wg.Add(1)
	go a.processLastUsedUpdates()

	return a
}

// withTimeout derives an operation context, honoring a zero timeout as "none".
func (a *Authenticator) withTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if a.operationTimeout == 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, a.operationTimeout)
}

// processLastUsedUpdates drains the bounded update queue so that request
// handling never spawns a goroutine per authenticated call.
func (a *Authenticator) processLastUsedUpdates() {
	defer a.wg.Done()

	for {
		select {
		case update := <-a.lastUsedUpdates:
			ctx, cancel := a.withTimeout(a.appCtx)
			if err := a.repo.UpdateLastUsed(ctx, update.keyID, update.timestamp); err != nil {
				slog.WarnContext(ctx, "Failed to update API key last_used_at",
					slog.String("key_id", update.keyID),
					slog.String("error", err.Error()))
			}
			cancel()

		case <-a.shutdownChan:
			// Drain remaining updates before exiting. appCtx is cancelled only
			// if Shutdown gives up waiting, which aborts these as well.
			for {
				select {
				case update := <-a.lastUsedUpdates:
					ctx, cancel := a.withTimeout(a.appCtx)
					_ = a.repo.UpdateLastUsed(ctx, update.keyID, update.timestamp)
					cancel()
				default:
					return
				}
			}
		}
	}
}

// Shutdown signals the worker to stop and waits for it to drain the queue.
// If ctx expires first, in-flight storage calls are cancelled and the error
// wraps ctx.Err(). Safe to call multiple times.
func (a *Authenticator) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.shutdownOnce.Do(func() {
		close(a.shutdownChan)

		done := make(chan struct{})
		go func() {
			a.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			a.appCancel()
			shutdownErr = fmt.Errorf("shutdown timeout: %w", ctx.Err())
		}
		a.appCancel()
	})
	return shutdownErr
}

// ValidateAPIKey validates an API key and returns the key information if valid.
// Returns domain.ErrUnauthorized if the key is malformed, unknown, inactive or expired.
func (a *Authenticator) ValidateAPIKey(ctx context.Context, apiKey string) (*domain.APIKey, error) {
	keyParts, err := keygen.ParseAPIKey(apiKey)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	opCtx, cancel := a.withTimeout(ctx)
	defer cancel()

	key, err := a.repo.FindByShortToken(opCtx, keyParts.ShortToken)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	// Verify the long secret using BLAKE2b-256 with constant-time comparison
	providedHash := keygen.HashSecret(keyParts.LongSecret)
	if subtle.ConstantTimeCompare([]byte(key.LongSecretHash), []byte(providedHash)) != 1 {
		return nil, domain.ErrUnauthorized
	}

	now := time.Now().UTC()
	if !key.IsActive || (key.ExpiresAt != nil && key.ExpiresAt.Before(now)) {
		return nil, domain.ErrUnauthorized
	}

	// Non-blocking: a full queue drops the update, last_used_at is best effort.
	select {
	case a.lastUsedUpdates <- lastUsedUpdate{keyID: key.ID, timestamp: now}:
	default:
		slog.WarnContext(ctx, "Dropped last_used_at update due to full queue",
			slog.String("key_id", key.ID))
	}

	return key, nil
}

// Identify implements IdentityProvider for API keys.
func (a *Authenticator) Identify(ctx context.Context, credential string) (*domain.Principal, error) {
	key, err := a.ValidateAPIKey(ctx, credential)
	if err != nil {
		return nil, err
	}
	if key.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	return &domain.Principal{UserID: key.UserID, Source: SourceAPIKey}, nil
}

// CreateAPIKeyParams describes a new API key.
type CreateAPIKeyParams struct {
	UserID    string
	KeyType   string
	Service   string
	Version   string
	Name      string
	ExpiresAt *time.Time
}

// CreateAPIKey creates a new API key for a user and returns the plain key (only shown once).
func CreateAPIKey(ctx context.Context, repo Repository, params CreateAPIKeyParams) (string, error) {
	if params.UserID == "" {
		return "", fmt.Errorf("user id is required")
	}

	keyParts, err := keygen.GenerateAPIKey(params.KeyType, params.Service, params.Version)
	if err != nil {
		return "", fmt.Errorf("failed to generate API key: %w", err)
	}

	keyID, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate key ID: %w", err)
	}

	err = repo.Create(ctx, &domain.APIKey{
		ID:             keyID.String(),
		UserID:         params.UserID,
		KeyType:        keyParts.KeyType,
		Service:        keyParts.Service,
		Version:        keyParts.Version,
		ShortToken:     keyParts.ShortToken,
		LongSecretHash: keygen.HashSecret(keyParts.LongSecret),
		Name:           params.Name,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
		ExpiresAt:      params.ExpiresAt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create API key: %w", err)
	}

	// The full plain key is never stored; this is the only time it is visible.
	return keyParts.FullKey, nil
}
