package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*RevocationStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewRevocationStore(client), mr
}

func TestRevocationStore_RevokeAndCheck(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Minute))

	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRevocationStore_ExpiresWithToken(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "jti-2", time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("revoked:jti-2"))

	mr.FastForward(2 * time.Minute)

	revoked, err := store.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocationStore_ServerDown(t *testing.T) {
	store, mr := setupStore(t)
	mr.Close()

	_, err := store.IsRevoked(context.Background(), "jti-3")
	assert.Error(t, err)
}

func TestConnect_InvalidAddr(t *testing.T) {
	client, err := Connect(context.Background(), Config{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	assert.Nil(t, client)
	assert.Error(t, err)
}
