// Package persistence opens the storage backend named by configuration.
package persistence

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/rezkam/taskly/internal/application/auth"
	"github.com/rezkam/taskly/internal/application/task"
	"github.com/rezkam/taskly/internal/config"
	"github.com/rezkam/taskly/internal/infrastructure/persistence/document/fs"
	"github.com/rezkam/taskly/internal/infrastructure/persistence/document/gcs"
	"github.com/rezkam/taskly/internal/infrastructure/persistence/postgres"
	"github.com/rezkam/taskly/internal/infrastructure/persistence/sqlite"
)

// Store is what every storage backend provides.
type Store interface {
	task.Repository
	auth.Repository
	io.Closer
}

// Open builds the backend selected by cfg.Backend. Relational backends
// apply pending migrations while opening.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		s, err := postgres.NewStoreWithConfig(ctx, postgres.DBConfig{
			DSN:             cfg.DSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres store: %w", err)
		}
		slog.InfoContext(ctx, "storage initialized", "backend", cfg.Backend, "dsn", maskPassword(cfg.DSN))
		return s, nil

	case config.BackendSQLite:
		s, err := sqlite.NewStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite store: %w", err)
		}
		slog.InfoContext(ctx, "storage initialized", "backend", cfg.Backend, "path", cfg.SQLitePath)
		return s, nil

	case config.BackendFS:
		s, err := fs.NewStore(cfg.FSDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create fs store: %w", err)
		}
		slog.InfoContext(ctx, "storage initialized", "backend", cfg.Backend, "dir", cfg.FSDir)
		return s, nil

	case config.BackendGCS:
		s, err := gcs.NewStore(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, fmt.Errorf("failed to create gcs store: %w", err)
		}
		slog.InfoContext(ctx, "storage initialized", "backend", cfg.Backend, "bucket", cfg.GCSBucket)
		return s, nil

	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
	}
}

// maskPassword masks the password in a connection string for logging.
func maskPassword(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil {
		// If parsing fails, fall back to full redaction to be safe
		return "[REDACTED]"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "xxxxxx")
		}
	}
	return u.String()
}
