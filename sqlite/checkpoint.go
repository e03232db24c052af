package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/fwojciec/docscrape"
)

var _ docscrape.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore keeps one JSON snapshot per run in the checkpoints
// table. A save replaces the previous row in a single statement.
type CheckpointStore struct {
	db *DB
}

// NewCheckpointStore creates a new CheckpointStore.
func NewCheckpointStore(db *DB) *CheckpointStore {
	return &CheckpointStore{db: db}
}

func (s *CheckpointStore) Save(ctx context.Context, snap *docscrape.CheckpointSnapshot) error {
	if snap.RunID == "" {
		return docscrape.Errorf(docscrape.EINVALID, "checkpoint run id required")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return docscrape.Wrap(docscrape.ECHECKPOINT, err, "encoding checkpoint")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (run_id, snapshot, created_at) VALUES (?, ?, ?)
		ON CONFLICT (run_id) DO UPDATE SET snapshot = excluded.snapshot, created_at = excluded.created_at
	`, string(snap.RunID), string(data), snap.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

func (s *CheckpointStore) Load(ctx context.Context, runID docscrape.RunID) (*docscrape.CheckpointSnapshot, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT snapshot FROM checkpoints WHERE run_id = ?", string(runID)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, docscrape.Errorf(docscrape.ENOTFOUND, "no checkpoint for run %s", runID)
	}
	if err != nil {
		return nil, err
	}

	var snap docscrape.CheckpointSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, docscrape.Wrap(docscrape.ECHECKPOINT, err, "decoding checkpoint for run %s", runID)
	}
	return &snap, nil
}

func (s *CheckpointStore) Delete(ctx context.Context, runID docscrape.RunID) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM checkpoints WHERE run_id = ?", string(runID))
	return err
}
