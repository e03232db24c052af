// Package redis stores run checkpoints in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fwojciec/docscrape"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix is prepended to run ids to form checkpoint keys.
const DefaultPrefix = "docscrape:checkpoint:"

// Client is the subset of go-redis commands the store uses.
// *redis.Client and *redis.ClusterClient satisfy it.
type Client interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Dial connects to the Redis server at addr and verifies the connection.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, docscrape.Wrap(docscrape.ECHECKPOINT, err, "connecting to redis at %s", addr)
	}
	return rdb, nil
}

var _ docscrape.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore keeps each run's checkpoint as one JSON string value.
// SET replaces the value atomically.
type CheckpointStore struct {
	client Client
	prefix string
	ttl    time.Duration
}

// Option configures a CheckpointStore.
type Option func(*CheckpointStore)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *CheckpointStore) { s.prefix = prefix }
}

// WithTTL expires checkpoints that are not refreshed within ttl.
// Zero keeps them until deleted.
func WithTTL(ttl time.Duration) Option {
	return func(s *CheckpointStore) { s.ttl = ttl }
}

// NewCheckpointStore creates a CheckpointStore using client.
func NewCheckpointStore(client Client, opts ...Option) *CheckpointStore {
	s := &CheckpointStore{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the Redis key of a run's checkpoint.
func (s *CheckpointStore) Key(runID docscrape.RunID) string {
	return s.prefix + string(runID)
}

func (s *CheckpointStore) Save(ctx context.Context, snap *docscrape.CheckpointSnapshot) error {
	if snap.RunID == "" {
		return docscrape.Errorf(docscrape.EINVALID, "checkpoint run id required")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return docscrape.Wrap(docscrape.ECHECKPOINT, err, "encoding checkpoint")
	}
	if err := s.client.Set(ctx, s.Key(snap.RunID), data, s.ttl).Err(); err != nil {
		return docscrape.Wrap(docscrape.ECHECKPOINT, err, "saving checkpoint for run %s", snap.RunID)
	}
	return nil
}

func (s *CheckpointStore) Load(ctx context.Context, runID docscrape.RunID) (*docscrape.CheckpointSnapshot, error) {
	data, err := s.client.Get(ctx, s.Key(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, docscrape.Errorf(docscrape.ENOTFOUND, "no checkpoint for run %s", runID)
	}
	if err != nil {
		return nil, docscrape.Wrap(docscrape.ECHECKPOINT, err, "loading checkpoint for run %s", runID)
	}

	var snap docscrape.CheckpointSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, docscrape.Wrap(docscrape.ECHECKPOINT, err, "decoding checkpoint for run %s", runID)
	}
	return &snap, nil
}

func (s *CheckpointStore) Delete(ctx context.Context, runID docscrape.RunID) error {
	if err := s.client.Del(ctx, s.Key(runID)).Err(); err != nil {
		return docscrape.Wrap(docscrape.ECHECKPOINT, err, "deleting checkpoint for run %s", runID)
	}
	return nil
}
