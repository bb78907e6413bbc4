package wordclock

import (
	"context"
	"time"
)

// Sources for state history entries.
const (
	// HistorySourceStream marks changes observed on the device's event
	// stream (including the seed snapshot).
	HistorySourceStream = "stream"

	// HistorySourceCommand marks optimistic changes from locally issued
	// mutations.
	HistorySourceCommand = "command"
)

// HistoryEntry is one recorded state change.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	ClockID   string    `json:"clock_id"`
	State     Snapshot  `json:"state"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryRepository persists state changes for audit and the history API.
type HistoryRepository interface {
	// RecordChange appends a state history entry.
	RecordChange(ctx context.Context, clockID string, state Snapshot, source string) error

	// GetHistory returns recent entries for a clock, newest first.
	GetHistory(ctx context.Context, clockID string, limit int) ([]HistoryEntry, error)

	// PruneHistory deletes entries older than the given duration and
	// returns the number removed.
	PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error)
}
