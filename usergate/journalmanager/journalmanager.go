package journalmanager

import (
	"context"
	"time"
)

type Status string

const (
	StatusPlanned   Status = "planned"
	StatusUnchanged Status = "unchanged"
	StatusApplied   Status = "applied"
	StatusFailed    Status = "failed"
	StatusConflict  Status = "conflict"
)

// Entry records one usergate run against one host.
type Entry struct {
	ID        string    `json:"id"`
	Host      string    `json:"host"`
	Timestamp time.Time `json:"timestamp"`
	Mode      string    `json:"mode"`     // plan, dry-run or apply
	Commands  []string  `json:"commands"` // rendered command lines, in order
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// JournalManager stores the history of runs.
type JournalManager interface {
	// Save stores the entry and returns its ID, assigning one if needed.
	Save(ctx context.Context, entry Entry) (string, error)

	// Get retrieves the entry with the given ID.
	Get(ctx context.Context, id string) (Entry, error)

	// List returns all entries, oldest first.
	List(ctx context.Context) ([]Entry, error)

	Delete(ctx context.Context, id string) error

	Exists(ctx context.Context, id string) (bool, error)
}
