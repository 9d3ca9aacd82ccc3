package domain

import "time"

// Task is a single user-owned to-do entry.
//
// CompletedAt is non-nil exactly when IsCompleted is true. Code that flips
// completion must go through SetCompleted or ToggleCompletion so the two
// fields never drift apart.
type Task struct {
	ID          string
	UserID      string
	Name        string
	Details     string
	DueDate     time.Time
	IsCompleted bool
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SetCompleted marks the task completed at now, or clears completion.
// Completing an already completed task keeps the original completion time.
func (t *Task) SetCompleted(completed bool, now time.Time) {
	if !completed {
		t.IsCompleted = false
		t.CompletedAt = nil
		return
	}
	if t.IsCompleted && t.CompletedAt != nil {
		return
	}
	at := now.UTC()
	t.IsCompleted = true
	t.CompletedAt = &at
}

// ToggleCompletion flips the completion flag.
func (t *Task) ToggleCompletion(now time.Time) {
	t.SetCompleted(!t.IsCompleted, now)
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return t
}

// TaskStats summarizes a user's tasks at a point in time.
type TaskStats struct {
	TotalTasks           int
	CompletedTasks       int
	PendingTasks         int
	OverdueTasks         int
	CompletionPercentage float64
}

// TaskPage is one page of a filtered, sorted task listing.
type TaskPage struct {
	Tasks      []Task
	TotalCount int  // matches before pagination
	HasMore    bool // more results exist past this page
	Now        time.Time
}

// Principal is an authenticated caller.
type Principal struct {
	UserID string
	Source string // "api_key" or "jwt"
}

// APIKey represents an API key for authentication.
// Format: {type}-{service}-{version}-{short}-{long}
// Example: sk-taskly-v1-a7f3d8e2b4c1-8h3k2j5m9n4p7q1r6s8t3v5w2x9y4z1a
type APIKey struct {
	ID             string
	UserID         string // Owner of every task reached through this key
	KeyType        string // "sk" = secret key, "pk" = public key
	Service        string // Service name (e.g., "taskly")
	Version        string // API version (e.g., "v1")
	ShortToken     string // Indexed portion for fast lookup
	LongSecretHash string // BLAKE2b-256 hash of long secret
	Name           string // Human-readable name/description
	IsActive       bool
	CreatedAt      time.Time
	LastUsedAt     *time.Time
	ExpiresAt      *time.Time
}
