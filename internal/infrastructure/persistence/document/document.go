// Package document stores tasks and API keys as JSON documents in a
// key/value bucket. The bucket can be a local directory (fs) or a cloud
// object store (gcs); both share the layout and encoding defined here:
//
//	users/{user_id}/tasks/{task_id}.json
//	api_keys/{short_token}.json
//	api_key_ids/{key_id}.json   (points at the short token)
package document

import (
	"context"
	"errors"
	"time"

	"github.com/rezkam/taskly/internal/domain"
)

// Bucket errors returned by Bucket implementations.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrObjectExists   = errors.New("object already exists")
)

// Bucket is a flat namespace of named blobs. Names use '/' as separator.
type Bucket interface {
	// Read returns the object's bytes or ErrObjectNotFound.
	Read(ctx context.Context, name string) ([]byte, error)
	// Write stores data under name. With createOnly set it fails with
	// ErrObjectExists instead of overwriting.
	Write(ctx context.Context, name string, data []byte, createOnly bool) error
	// Delete removes the object or returns ErrObjectNotFound.
	Delete(ctx context.Context, name string) error
	// List returns the names of all objects that start with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	// Close releases the bucket's resources.
	Close() error
}

const (
	usersPrefix    = "users/"
	apiKeysPrefix  = "api_keys/"
	apiKeyIDPrefix = "api_key_ids/"
	docSuffix      = ".json"
)

// TaskPrefix is the prefix under which all of a user's task documents live.
func TaskPrefix(userID string) string {
	return usersPrefix + userID + "/tasks/"
}

// TaskName is the object name of one task document.
func TaskName(userID, taskID string) string {
	return TaskPrefix(userID) + taskID + docSuffix
}

func apiKeyName(shortToken string) string {
	return apiKeysPrefix + shortToken + docSuffix
}

func apiKeyIDName(keyID string) string {
	return apiKeyIDPrefix + keyID + docSuffix
}

// taskDocument is the stored JSON shape of a task.
type taskDocument struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Name          string     `json:"name"`
	Details       string     `json:"details,omitempty"`
	DueDate       time.Time  `json:"due_date"`
	IsCompleted   bool       `json:"is_completed"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
	CreatedDate   time.Time  `json:"created_date"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func taskToDocument(t *domain.Task) taskDocument {
	return taskDocument{
		ID:            t.ID,
		UserID:        t.UserID,
		Name:          t.Name,
		Details:       t.Details,
		DueDate:       t.DueDate.UTC(),
		IsCompleted:   t.IsCompleted,
		CompletedDate: utcPtr(t.CompletedAt),
		CreatedDate:   t.CreatedAt.UTC(),
		UpdatedAt:     t.UpdatedAt.UTC(),
	}
}

func (d taskDocument) toDomain() domain.Task {
	t := domain.Task{
		ID:          d.ID,
		UserID:      d.UserID,
		Name:        d.Name,
		Details:     d.Details,
		DueDate:     d.DueDate.UTC(),
		IsCompleted: d.IsCompleted,
		CompletedAt: utcPtr(d.CompletedDate),
		CreatedAt:   d.CreatedDate.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	// Repair documents written by other tools that broke the completion pairing.
	if t.IsCompleted && t.CompletedAt == nil {
		t.CompletedAt = &t.UpdatedAt
	}
	if !t.IsCompleted {
		t.CompletedAt = nil
	}
	return t
}

// apiKeyDocument is the stored JSON shape of an API key.
type apiKeyDocument struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	KeyType        string     `json:"key_type"`
	Service        string     `json:"service"`
	Version        string     `json:"version"`
	ShortToken     string     `json:"short_token"`
	LongSecretHash string     `json:"long_secret_hash"`
	Name           string     `json:"name"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	LastUsedAt     *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

func apiKeyToDocument(k *domain.APIKey) apiKeyDocument {
	return apiKeyDocument{
		ID:             k.ID,
		UserID:         k.UserID,
		KeyType:        k.KeyType,
		Service:        k.Service,
		Version:        k.Version,
		ShortToken:     k.ShortToken,
		LongSecretHash: k.LongSecretHash,
		Name:           k.Name,
		IsActive:       k.IsActive,
		CreatedAt:      k.CreatedAt.UTC(),
		LastUsedAt:     utcPtr(k.LastUsedAt),
		ExpiresAt:      utcPtr(k.ExpiresAt),
	}
}

func (d apiKeyDocument) toDomain() *domain.APIKey {
	return &domain.APIKey{
		ID:             d.ID,
		UserID:         d.UserID,
		KeyType:        d.KeyType,
		Service:        d.Service,
		Version:        d.Version,
		ShortToken:     d.ShortToken,
		LongSecretHash: d.LongSecretHash,
		Name:           d.Name,
		IsActive:       d.IsActive,
		CreatedAt:      d.CreatedAt.UTC(),
		LastUsedAt:     utcPtr(d.LastUsedAt),
		ExpiresAt:      utcPtr(d.ExpiresAt),
	}
}

// apiKeyIDDocument maps a key ID to the short token its document is stored under.
type apiKeyIDDocument struct {
	ShortToken string `json:"short_token"`
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
