package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rezkam/taskly/internal/domain"
)

// timeLayout is fixed-width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type taskRow struct {
	ID            string         `db:"id"`
	UserID        string         `db:"user_id"`
	Name          string         `db:"name"`
	Details       string         `db:"details"`
	DueDate       string         `db:"due_date"`
	IsCompleted   bool           `db:"is_completed"`
	CompletedDate sql.NullString `db:"completed_date"`
	CreatedDate   string         `db:"created_date"`
	UpdatedAt     string         `db:"updated_at"`
}

func taskToRow(t *domain.Task) taskRow {
	return taskRow{
		ID:            t.ID,
		UserID:        t.UserID,
		Name:          t.Name,
		Details:       t.Details,
		DueDate:       formatTime(t.DueDate),
		IsCompleted:   t.IsCompleted,
		CompletedDate: formatTimePtr(t.CompletedAt),
		CreatedDate:   formatTime(t.CreatedAt),
		UpdatedAt:     formatTime(t.UpdatedAt),
	}
}

func (r taskRow) toDomain() (domain.Task, error) {
	t := domain.Task{
		ID:          r.ID,
		UserID:      r.UserID,
		Name:        r.Name,
		Details:     r.Details,
		IsCompleted: r.IsCompleted,
	}
	var err error
	if t.DueDate, err = parseTime(r.DueDate); err != nil {
		return domain.Task{}, err
	}
	if t.CompletedAt, err = parseTimePtr(r.CompletedDate); err != nil {
		return domain.Task{}, err
	}
	if t.CreatedAt, err = parseTime(r.CreatedDate); err != nil {
		return domain.Task{}, err
	}
	if t.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

type apiKeyRow struct {
	ID             string         `db:"id"`
	UserID         string         `db:"user_id"`
	KeyType        string         `db:"key_type"`
	Service        string         `db:"service"`
	Version        string         `db:"version"`
	ShortToken     string         `db:"short_token"`
	LongSecretHash string         `db:"long_secret_hash"`
	Name           string         `db:"name"`
	IsActive       bool           `db:"is_active"`
	CreatedAt      string         `db:"created_at"`
	LastUsedAt     sql.NullString `db:"last_used_at"`
	ExpiresAt      sql.NullString `db:"expires_at"`
}

func apiKeyToRow(k *domain.APIKey) apiKeyRow {
	return apiKeyRow{
		ID:             k.ID,
		UserID:         k.UserID,
		KeyType:        k.KeyType,
		Service:        k.Service,
		Version:        k.Version,
		ShortToken:     k.ShortToken,
		LongSecretHash: k.LongSecretHash,
		Name:           k.Name,
		IsActive:       k.IsActive,
		CreatedAt:      formatTime(k.CreatedAt),
		LastUsedAt:     formatTimePtr(k.LastUsedAt),
		ExpiresAt:      formatTimePtr(k.ExpiresAt),
	}
}

func (r apiKeyRow) toDomain() (*domain.APIKey, error) {
	k := &domain.APIKey{
		ID:             r.ID,
		UserID:         r.UserID,
		KeyType:        r.KeyType,
		Service:        r.Service,
		Version:        r.Version,
		ShortToken:     r.ShortToken,
		LongSecretHash: r.LongSecretHash,
		Name:           r.Name,
		IsActive:       r.IsActive,
	}
	var err error
	if k.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, err
	}
	if k.LastUsedAt, err = parseTimePtr(r.LastUsedAt); err != nil {
		return nil, err
	}
	if k.ExpiresAt, err = parseTimePtr(r.ExpiresAt); err != nil {
		return nil, err
	}
	return k, nil
}
