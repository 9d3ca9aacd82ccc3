package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rezkam/taskly/internal/domain"
)

const (
	insertAPIKeyQuery = `
		INSERT INTO api_keys (id, user_id, key_type, service, version, short_token, long_secret_hash, name, is_active, created_at, last_used_at, expires_at)
		VALUES (:id, :user_id, :key_type, :service, :version, :short_token, :long_secret_hash, :name, :is_active, :created_at, :last_used_at, :expires_at)`

	selectAPIKeyByShortTokenQuery = `SELECT * FROM api_keys WHERE short_token = ?`

	updateLastUsedQuery = `
		UPDATE api_keys
		SET last_used_at = ?
		WHERE id = ? AND (last_used_at IS NULL OR last_used_at < ?)`

	apiKeyExistsQuery = `SELECT EXISTS (SELECT 1 FROM api_keys WHERE id = ?)`
)

// FindByShortToken retrieves an API key by its short token.
func (s *Store) FindByShortToken(ctx context.Context, shortToken string) (*domain.APIKey, error) {
	var row apiKeyRow
	if err := s.db.GetContext(ctx, &row, selectAPIKeyByShortTokenQuery, shortToken); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: API key", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get API key: %w", err)
	}
	return row.toDomain()
}

// UpdateLastUsed moves last_used_at forward; older timestamps are ignored.
func (s *Store) UpdateLastUsed(ctx context.Context, keyID string, timestamp time.Time) error {
	ts := formatTime(timestamp)
	res, err := s.db.ExecContext(ctx, updateLastUsedQuery, ts, keyID, ts)
	if err != nil {
		return fmt.Errorf("failed to update last used: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := s.db.GetContext(ctx, &exists, apiKeyExistsQuery, keyID); err != nil {
		return fmt.Errorf("failed to check key existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: API key", domain.ErrNotFound)
	}
	return nil
}

// Create stores a new API key.
func (s *Store) Create(ctx context.Context, key *domain.APIKey) error {
	if _, err := s.db.NamedExecContext(ctx, insertAPIKeyQuery, apiKeyToRow(key)); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: API key", domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create API key: %w", err)
	}
	return nil
}
