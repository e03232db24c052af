//go:build integration

package redis_test

import (
	"context"
	"os"
	"testing"

	"github.com/fwojciec/docscrape"
	dsredis "github.com/fwojciec/docscrape/redis"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a Redis server at $REDIS_ADDR (default localhost:6379).
func TestCheckpointStore_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	ctx := context.Background()
	rdb, err := dsredis.Dial(ctx, addr)
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	defer rdb.Close()

	store := dsredis.NewCheckpointStore(rdb, dsredis.WithPrefix("docscrape-test:"+uuid.NewString()+":"))
	snap := testSnapshot()

	require.NoError(t, store.Save(ctx, snap))
	got, err := store.Load(ctx, snap.RunID)
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	require.NoError(t, store.Delete(ctx, snap.RunID))
	_, err = store.Load(ctx, snap.RunID)
	assert.Equal(t, docscrape.ENOTFOUND, docscrape.ErrorCode(err))
}
