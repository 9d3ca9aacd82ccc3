package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerConfig_Defaults(t *testing.T) {
	cfg, err := LoadServerConfig()
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, DefaultSQLitePath, cfg.Storage.SQLitePath)
	assert.False(t, cfg.Cache.Enabled())
	assert.Nil(t, cfg.Tasks.Timezone)
	assert.Zero(t, cfg.ShutdownTimeout)

	level, err := cfg.Observability.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadServerConfig_FromEnv(t *testing.T) {
	t.Setenv("TASKLY_STORAGE_BACKEND", "postgres")
	t.Setenv("TASKLY_DB_DSN", "postgres://taskly:secret@db:5432/taskly")
	t.Setenv("TASKLY_DB_CONN_MAX_LIFETIME", "10m")
	t.Setenv("TASKLY_HTTP_PORT", "9000")
	t.Setenv("TASKLY_JWT_SECRET", "s3cret")
	t.Setenv("TASKLY_REDIS_ADDR", "localhost:6379")
	t.Setenv("TASKLY_CACHE_TTL", "30s")
	t.Setenv("TASKLY_TIMEZONE", "America/New_York")
	t.Setenv("TASKLY_LOG_LEVEL", "debug")
	t.Setenv("TASKLY_SHUTDOWN_TIMEOUT", "20s")

	cfg, err := LoadServerConfig()
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
	assert.Equal(t, "postgres://taskly:secret@db:5432/taskly", cfg.Storage.DSN)
	assert.Equal(t, 10*time.Minute, cfg.Storage.ConnMaxLifetime)
	assert.Equal(t, "9000", cfg.HTTP.Port)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.True(t, cfg.Cache.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	require.NotNil(t, cfg.Tasks.Timezone)
	assert.Equal(t, "America/New_York", cfg.Tasks.Timezone.String())
	assert.Equal(t, 20*time.Second, cfg.ShutdownTimeout)

	level, err := cfg.Observability.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestStorageConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     StorageConfig
		wantErr error
	}{
		{"postgres without dsn", StorageConfig{Backend: BackendPostgres}, ErrDSNRequired},
		{"postgres with dsn", StorageConfig{Backend: BackendPostgres, DSN: "postgres://x"}, nil},
		{"sqlite defaults", StorageConfig{Backend: BackendSQLite}, nil},
		{"fs without dir", StorageConfig{Backend: BackendFS}, ErrFSDirRequired},
		{"fs with dir", StorageConfig{Backend: BackendFS, FSDir: "/tmp/taskly"}, nil},
		{"gcs without bucket", StorageConfig{Backend: BackendGCS}, ErrGCSBucketRequired},
		{"gcs with bucket", StorageConfig{Backend: BackendGCS, GCSBucket: "tasks"}, nil},
		{"unknown", StorageConfig{Backend: "mysql"}, ErrUnknownBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadServerConfig_Rejects(t *testing.T) {
	t.Run("page sizes", func(t *testing.T) {
		t.Setenv("TASKLY_DEFAULT_PAGE_SIZE", "100")
		t.Setenv("TASKLY_MAX_PAGE_SIZE", "10")
		_, err := LoadServerConfig()
		assert.Error(t, err)
	})

	t.Run("log level", func(t *testing.T) {
		t.Setenv("TASKLY_LOG_LEVEL", "loud")
		_, err := LoadServerConfig()
		assert.ErrorIs(t, err, ErrInvalidLogLevel)
	})

	t.Run("timezone", func(t *testing.T) {
		t.Setenv("TASKLY_TIMEZONE", "Nowhere/Land")
		_, err := LoadServerConfig()
		assert.Error(t, err)
	})
}
