package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipanjanswapna/ongonbd/internal/domain/token"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestTokenStore_RoundTrip(t *testing.T) {
	c, mr := newTestClient(t)
	s := NewTokenStore(c, "portal")
	ctx := context.Background()

	pair, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, token.Pair{}, pair)

	require.NoError(t, s.SaveAccess(ctx, "a-1"))
	require.NoError(t, s.SaveRefresh(ctx, "r-1"))

	got, err := mr.Get("portal:authToken")
	require.NoError(t, err)
	assert.Equal(t, "a-1", got)

	pair, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, token.Pair{AccessToken: "a-1", RefreshToken: "r-1"}, pair)

	require.NoError(t, s.SaveAccess(ctx, ""))
	assert.False(t, mr.Exists("portal:authToken"))

	require.NoError(t, s.Clear(ctx))
	pair, err = s.Load(ctx)
	require.NoError(t, err)
	assert.False(t, pair.HasAccess())
	assert.False(t, pair.HasRefresh())
}

func TestRevocationList_Expires(t *testing.T) {
	c, mr := newTestClient(t)
	rl := NewRevocationList(c)
	ctx := context.Background()

	require.NoError(t, rl.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)))
	revoked, err := rl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = rl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, rl.Revoke(ctx, "jti-2", time.Now().Add(-time.Second)))
	revoked, err = rl.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}
