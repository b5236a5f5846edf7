package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const lastSyncKey = "last_sync"

// CheckpointStore persists the lastSync timestamp in the sync_state table.
type CheckpointStore struct{ s *Store }

// NewCheckpointStore constructs a checkpoint store.
func NewCheckpointStore(s *Store) *CheckpointStore { return &CheckpointStore{s: s} }

// LastSync returns the most recent successful sync time, or the Unix epoch
// if no sync has completed yet.
func (c *CheckpointStore) LastSync(ctx context.Context) (time.Time, error) {
	var raw string
	err := c.s.db.QueryRowContext(ctx,
		`SELECT value FROM sync_state WHERE key = ?`, lastSyncKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Unix(0, 0).UTC(), nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read checkpoint: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse checkpoint %q: %w", raw, err)
	}
	return t, nil
}

// SetLastSync records a successful sync time.
func (c *CheckpointStore) SetLastSync(ctx context.Context, t time.Time) error {
	_, err := c.s.db.ExecContext(ctx, `
		INSERT INTO sync_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		lastSyncKey, t.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}
