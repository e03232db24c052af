package fs

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/docscrape"
)

var _ docscrape.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore keeps one JSON file per run in a directory.
// Saves are atomic: a crash leaves the previous checkpoint intact.
type CheckpointStore struct {
	dir string
}

// NewCheckpointStore creates a CheckpointStore writing to dir.
func NewCheckpointStore(dir string) *CheckpointStore {
	return &CheckpointStore{dir: dir}
}

// Path returns the checkpoint file of a run.
func (s *CheckpointStore) Path(runID docscrape.RunID) string {
	return filepath.Join(s.dir, string(runID)+".json")
}

func (s *CheckpointStore) Save(ctx context.Context, snap *docscrape.CheckpointSnapshot) error {
	if err := validRunID(snap.RunID); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return docscrape.Wrap(docscrape.ECHECKPOINT, err, "encoding checkpoint")
	}
	return writeFile(s.Path(snap.RunID), data, 0644)
}

func (s *CheckpointStore) Load(ctx context.Context, runID docscrape.RunID) (*docscrape.CheckpointSnapshot, error) {
	if err := validRunID(runID); err != nil {
		return nil, err
	}
	return ReadCheckpointFile(s.Path(runID))
}

func (s *CheckpointStore) Delete(ctx context.Context, runID docscrape.RunID) error {
	if err := validRunID(runID); err != nil {
		return err
	}
	err := os.Remove(s.Path(runID))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ReadCheckpointFile decodes a checkpoint file.
// Returns ENOTFOUND if the file does not exist.
func ReadCheckpointFile(path string) (*docscrape.CheckpointSnapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, docscrape.Errorf(docscrape.ENOTFOUND, "no checkpoint at %s", path)
	}
	if err != nil {
		return nil, err
	}

	var snap docscrape.CheckpointSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, docscrape.Wrap(docscrape.ECHECKPOINT, err, "decoding checkpoint %s", path)
	}
	return &snap, nil
}

func validRunID(id docscrape.RunID) error {
	s := string(id)
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
		return docscrape.Errorf(docscrape.EINVALID, "invalid run id %q", s)
	}
	return nil
}
