package lease

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestLease_SingleHolder(t *testing.T) {
	_, client := setupRedis(t)
	ctx := context.Background()

	a := New(client, "modex:test:leader", time.Minute)
	b := New(client, "modex:test:leader", time.Minute)
	require.NotEqual(t, a.Owner(), b.Owner())

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second owner must not take a held lease")

	// Renewal by the holder succeeds
	ok, err = a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLease_ExpiresWithoutRenewal(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()

	a := New(client, "modex:test:leader", 10*time.Second)
	b := New(client, "modex:test:leader", 10*time.Second)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(11 * time.Second)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLease_ReleaseOnlyByOwner(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()

	a := New(client, "modex:test:leader", time.Minute)
	b := New(client, "modex:test:leader", time.Minute)
	require.NoError(t, a.PreloadScripts(ctx))

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	assert.ErrorIs(t, b.Release(ctx), ErrNotHeld)
	assert.True(t, mr.Exists("modex:test:leader"))

	require.NoError(t, a.Release(ctx))
	assert.False(t, mr.Exists("modex:test:leader"))
}
