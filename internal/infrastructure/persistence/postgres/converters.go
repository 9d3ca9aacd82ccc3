package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rezkam/taskly/internal/domain"
)

// uniqueViolation is the SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

// === pgtype Conversion Helpers ===

// uuidToPgtype converts google/uuid.UUID to pgtype.UUID.
func uuidToPgtype(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// pgtypeToUUIDString converts pgtype.UUID to string (empty if invalid).
func pgtypeToUUIDString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

// timeToPgtype converts time.Time to pgtype.Timestamptz.
func timeToPgtype(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}

// pgtypeToTime converts pgtype.Timestamptz to time.Time in UTC (zero if NULL).
func pgtypeToTime(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}

// pgtypeToTimePtr converts pgtype.Timestamptz to *time.Time in UTC (nil if NULL).
func pgtypeToTimePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	utcTime := t.Time.UTC()
	return &utcTime
}

// timePtrToPgtype converts *time.Time to pgtype.Timestamptz; nil stores NULL.
func timePtrToPgtype(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return timeToPgtype(*t)
}

// parseTaskID parses a task ID. Malformed IDs can never match a row, so they
// are reported as a missing task.
func parseTaskID(id string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("%w: %w", domain.ErrTaskNotFound, err)
	}
	return uuidToPgtype(parsed), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// === Row Scanning ===

const taskColumns = `id, user_id, name, details, due_date, is_completed, completed_date, created_date, updated_at`

func scanTask(row pgx.Row) (domain.Task, error) {
	var (
		id          pgtype.UUID
		t           domain.Task
		dueDate     pgtype.Timestamptz
		completedAt pgtype.Timestamptz
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
	)
	if err := row.Scan(&id, &t.UserID, &t.Name, &t.Details, &dueDate, &t.IsCompleted, &completedAt, &createdAt, &updatedAt); err != nil {
		return domain.Task{}, err
	}
	t.ID = pgtypeToUUIDString(id)
	t.DueDate = pgtypeToTime(dueDate)
	t.CompletedAt = pgtypeToTimePtr(completedAt)
	t.CreatedAt = pgtypeToTime(createdAt)
	t.UpdatedAt = pgtypeToTime(updatedAt)
	return t, nil
}

const apiKeyColumns = `id, user_id, key_type, service, version, short_token, long_secret_hash, name, is_active, created_at, last_used_at, expires_at`

func scanAPIKey(row pgx.Row) (*domain.APIKey, error) {
	var (
		id         pgtype.UUID
		k          domain.APIKey
		createdAt  pgtype.Timestamptz
		lastUsedAt pgtype.Timestamptz
		expiresAt  pgtype.Timestamptz
	)
	if err := row.Scan(&id, &k.UserID, &k.KeyType, &k.Service, &k.Version, &k.ShortToken,
		&k.LongSecretHash, &k.Name, &k.IsActive, &createdAt, &lastUsedAt, &expiresAt); err != nil {
		return nil, err
	}
	k.ID = pgtypeToUUIDString(id)
	k.CreatedAt = pgtypeToTime(createdAt)
	k.LastUsedAt = pgtypeToTimePtr(lastUsedAt)
	k.ExpiresAt = pgtypeToTimePtr(expiresAt)
	return &k, nil
}
