package mock

import (
	"context"

	"github.com/fwojciec/docscrape"
)

var _ docscrape.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore is a mock implementation of docscrape.CheckpointStore.
type CheckpointStore struct {
	SaveFn   func(ctx context.Context, snap *docscrape.CheckpointSnapshot) error
	LoadFn   func(ctx context.Context, runID docscrape.RunID) (*docscrape.CheckpointSnapshot, error)
	DeleteFn func(ctx context.Context, runID docscrape.RunID) error
}

func (s *CheckpointStore) Save(ctx context.Context, snap *docscrape.CheckpointSnapshot) error {
	return s.SaveFn(ctx, snap)
}

func (s *CheckpointStore) Load(ctx context.Context, runID docscrape.RunID) (*docscrape.CheckpointSnapshot, error) {
	return s.LoadFn(ctx, runID)
}

func (s *CheckpointStore) Delete(ctx context.Context, runID docscrape.RunID) error {
	return s.DeleteFn(ctx, runID)
}

var _ docscrape.ProgressObserver = (*ProgressObserver)(nil)

// ProgressObserver is a mock implementation of docscrape.ProgressObserver.
type ProgressObserver struct {
	OnProgressFn func(snap docscrape.ProgressSnapshot)
}

func (o *ProgressObserver) OnProgress(snap docscrape.ProgressSnapshot) {
	o.OnProgressFn(snap)
}
