package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docscrape"
)

var _ docscrape.CheckpointStore = (*LoggingCheckpointStore)(nil)

// LoggingCheckpointStore wraps a CheckpointStore with logging.
type LoggingCheckpointStore struct {
	next   docscrape.CheckpointStore
	logger *slog.Logger
}

// NewLoggingCheckpointStore creates a new LoggingCheckpointStore.
func NewLoggingCheckpointStore(next docscrape.CheckpointStore, logger *slog.Logger) *LoggingCheckpointStore {
	return &LoggingCheckpointStore{next: next, logger: logger}
}

func (s *LoggingCheckpointStore) Save(ctx context.Context, snap *docscrape.CheckpointSnapshot) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("checkpoint save",
			"run", snap.RunID,
			"pending", len(snap.Pending)+len(snap.InFlight),
			"processed", len(snap.Processed),
			"failed", len(snap.Failed),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Save(ctx, snap)
}

func (s *LoggingCheckpointStore) Load(ctx context.Context, runID docscrape.RunID) (snap *docscrape.CheckpointSnapshot, err error) {
	defer func(begin time.Time) {
		attrs := []any{"run", runID, "duration", time.Since(begin)}
		switch {
		case err == nil:
			attrs = append(attrs, "pending", len(snap.Pending)+len(snap.InFlight), "processed", len(snap.Processed))
		case docscrape.ErrorCode(err) == docscrape.ENOTFOUND:
			attrs = append(attrs, "found", false)
		default:
			attrs = append(attrs, "err", err)
		}
		s.logger.Info("checkpoint load", attrs...)
	}(time.Now())
	return s.next.Load(ctx, runID)
}

func (s *LoggingCheckpointStore) Delete(ctx context.Context, runID docscrape.RunID) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("checkpoint delete",
			"run", runID,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Delete(ctx, runID)
}
