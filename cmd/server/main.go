package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/rezkam/taskly/internal/application/auth"
	"github.com/rezkam/taskly/internal/application/task"
	"github.com/rezkam/taskly/internal/config"
	httpserver "github.com/rezkam/taskly/internal/infrastructure/http"
	"github.com/rezkam/taskly/internal/infrastructure/http/handler"
	"github.com/rezkam/taskly/internal/infrastructure/observability"
	"github.com/rezkam/taskly/internal/infrastructure/persistence"
	"github.com/rezkam/taskly/internal/infrastructure/persistence/cache"
)

// DefaultShutdownTimeout bounds graceful shutdown when TASKLY_SHUTDOWN_TIMEOUT is unset.
const DefaultShutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		// slog may not be initialized if config fails
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env file is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read .env: %w", err)
	}

	cfg, err := config.LoadServerConfig()
	if err != nil {
		return err
	}

	// Root context for all normal operations; cancelled on SIGTERM/SIGINT.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	level, err := cfg.Observability.Level()
	if err != nil {
		return err
	}
	providers, err := observability.Init(ctx, observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: cfg.Observability.ServiceName,
		LogLevel:    level,
	})
	if err != nil {
		return fmt.Errorf("failed to init observability: %w", err)
	}
	defer func() {
		// Use a timeout to prevent hanging if collector is unreachable
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to shutdown observability: %v\n", err)
		}
	}()
	slog.SetDefault(providers.Logger)

	slog.InfoContext(ctx, "starting taskly", "storage_backend", cfg.Storage.Backend)

	repo, err := persistence.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	var (
		tasks       task.Repository = repo
		cacheClient *redis.Client
	)
	if cfg.Cache.Enabled() {
		cacheClient, err = cache.NewClient(ctx, &redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			_ = repo.Close()
			return err
		}
		tasks = cache.NewRepository(repo, cacheClient, cache.Config{TTL: cfg.Cache.TTL})
		slog.InfoContext(ctx, "task cache enabled", "addr", cfg.Cache.RedisAddr)
	}

	service := task.NewService(tasks, task.Config{
		Location:        cfg.Tasks.Timezone,
		DefaultPageSize: cfg.Tasks.DefaultPageSize,
		MaxPageSize:     cfg.Tasks.MaxPageSize,
	})

	authenticator := auth.NewAuthenticator(repo, auth.Config{
		OperationTimeout: cfg.Auth.OperationTimeout,
		UpdateQueueSize:  cfg.Auth.UpdateQueueSize,
	})

	closers := []namedCloser{{"store", repo}}
	if cacheClient != nil {
		// The cache client closes before the store.
		closers = append([]namedCloser{{"cache", cacheClient}}, closers...)
	}

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}

	identity, err := newIdentity(authenticator, cfg.Auth)
	if err != nil {
		runCleanup(shutdownTimeout, authenticator, closers)
		return err
	}

	api, err := handler.NewOpenAPIRouter(service)
	if err != nil {
		runCleanup(shutdownTimeout, authenticator, closers)
		return err
	}

	server := httpserver.NewAPIServer(api, identity, httpserver.ServerConfig{
		Host:              cfg.HTTP.Host,
		Port:              cfg.HTTP.Port,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MaxBodyBytes:      cfg.HTTP.MaxBodyBytes,
	})

	errResult := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errResult <- fmt.Errorf("failed to serve HTTP: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		slog.InfoContext(ctx, "shutting down")
	case runErr = <-errResult:
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "HTTP server shutdown failed", "error", err)
	}

	// Drain last_used_at updates before the store goes away.
	newCleanup(shutdownCtx, authenticator, closers...)()
	return runErr
}

// newIdentity chains API keys with signed tokens when a JWT secret is configured.
func newIdentity(authenticator *auth.Authenticator, cfg config.AuthConfig) (auth.IdentityProvider, error) {
	chain := auth.Chain{authenticator}
	if cfg.JWTSecret == "" {
		return chain, nil
	}

	verifier, err := auth.NewJWTVerifier(auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT verifier: %w", err)
	}
	slog.Info("JWT authentication enabled", "issuer", cfg.JWTIssuer)
	return append(chain, verifier), nil
}

func runCleanup(timeout time.Duration, authenticator shutdowner, closers []namedCloser) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	newCleanup(ctx, authenticator, closers...)()
}
