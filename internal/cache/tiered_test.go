package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTieredCache_RemoteFirst(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	remote := NewRedisStore(client)
	local := NewFileStore(t.TempDir())
	tiered := NewTieredCache(remote, local)
	ctx := context.Background()

	// Different values per tier to observe which one answers
	remote.Set(ctx, "key", testEntry("remote", time.Hour), time.Hour)
	local.Set(ctx, "key", testEntry("local", time.Hour), time.Hour)

	entry, found := tiered.Get(ctx, "key")
	require.True(t, found)
	assert.Equal(t, "remote", entry.Data)
}

func TestTieredCache_FallsBackToLocal(t *testing.T) {
	s, client, cleanup := setupTestRedis(t)
	defer cleanup()

	remote := NewRedisStore(client)
	local := NewFileStore(t.TempDir())
	tiered := NewTieredCache(remote, local)
	ctx := context.Background()

	local.Set(ctx, "key", testEntry("local", time.Hour), time.Hour)
	s.Close()

	entry, found := tiered.Get(ctx, "key")
	require.True(t, found)
	assert.Equal(t, "local", entry.Data)
}

func TestTieredCache_LocalHitDoesNotBackfillRemote(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	remote := NewRedisStore(client)
	local := NewFileStore(t.TempDir())
	tiered := NewTieredCache(remote, local)
	ctx := context.Background()

	local.Set(ctx, "key", testEntry("local", time.Hour), time.Hour)

	_, found := tiered.Get(ctx, "key")
	require.True(t, found)

	// The next writer repopulates remote, not the reader
	assert.False(t, remote.Exists(ctx, "key"))
}

func TestTieredCache_WritesBothTiers(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	remote := NewRedisStore(client)
	local := NewFileStore(t.TempDir())
	tiered := NewTieredCache(remote, local)
	ctx := context.Background()

	tiered.Set(ctx, "key", testEntry("v", time.Hour), time.Hour)

	assert.True(t, remote.Exists(ctx, "key"))
	assert.True(t, local.Exists(ctx, "key"))
}

func TestTieredCache_RemoteWriteFailureDoesNotFailCaller(t *testing.T) {
	s, client, cleanup := setupTestRedis(t)
	defer cleanup()

	remote := NewRedisStore(client)
	local := NewFileStore(t.TempDir())
	tiered := NewTieredCache(remote, local)
	ctx := context.Background()

	s.Close()
	tiered.Set(ctx, "key", testEntry("v", time.Hour), time.Hour)

	// Local tier still holds the value
	entry, found := tiered.Get(ctx, "key")
	require.True(t, found)
	assert.Equal(t, "v", entry.Data)
}

func TestTieredCache_NoRemoteConfigured(t *testing.T) {
	tiered := NewTieredCache(nil, NewFileStore(t.TempDir()))
	ctx := context.Background()

	assert.False(t, tiered.RemoteAvailable())

	tiered.Set(ctx, "key", testEntry("v", time.Hour), time.Hour)
	entry, found := tiered.Get(ctx, "key")
	require.True(t, found)
	assert.Equal(t, "v", entry.Data)
}

func TestTieredCache_SetLocalSkipsRemote(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	remote := NewRedisStore(client)
	tiered := NewTieredCache(remote, NewFileStore(t.TempDir()))
	ctx := context.Background()

	tiered.SetLocal(ctx, "master:domestic", testEntry("v", time.Hour), time.Hour)

	assert.False(t, remote.Exists(ctx, "master:domestic"))
	_, found := tiered.GetLocal(ctx, "master:domestic")
	assert.True(t, found)
}

func TestTieredCache_DeleteBothTiers(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	remote := NewRedisStore(client)
	local := NewFileStore(t.TempDir())
	tiered := NewTieredCache(remote, local)
	ctx := context.Background()

	tiered.Set(ctx, "key", testEntry("v", time.Hour), time.Hour)
	require.NoError(t, tiered.Delete(ctx, "key"))

	assert.False(t, remote.Exists(ctx, "key"))
	assert.False(t, local.Exists(ctx, "key"))
}

func TestTieredCache_Stats(t *testing.T) {
	tiered := NewTieredCache(nil, NewFileStore(t.TempDir()))
	ctx := context.Background()

	tiered.Set(ctx, "key", testEntry("v", time.Hour), time.Hour)
	tiered.Get(ctx, "key")
	tiered.Get(ctx, "missing")

	stats := tiered.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
}
