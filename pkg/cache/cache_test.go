package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ranking struct {
	IDs []string `json:"ids"`
}

func TestMemoryCache_RoundTripAndExpiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	var got ranking
	hit, err := c.Get(ctx, "trending", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "trending", ranking{IDs: []string{"a", "b"}}, time.Minute))
	hit, err = c.Get(ctx, "trending", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, got.IDs)

	now = now.Add(time.Minute)
	hit, err = c.Get(ctx, "trending", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCache_RoundTripAndExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewRedisCacheFromURL("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	ctx := context.Background()

	var got ranking
	hit, err := c.Get(ctx, "trending", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "trending", ranking{IDs: []string{"x"}}, 10*time.Minute))
	hit, err = c.Get(ctx, "trending", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"x"}, got.IDs)

	mr.FastForward(10 * time.Minute)
	hit, err = c.Get(ctx, "trending", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCache_UnreachableServer(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewRedisCacheFromURL("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var got ranking
	_, err = c.Get(ctx, "trending", &got)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	c, err := New(Options{Kind: "none"})
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), "k", 1, time.Minute))
	var v int
	hit, err := c.Get(context.Background(), "k", &v)
	require.NoError(t, err)
	assert.False(t, hit)

	c, err = New(Options{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	_, err = New(Options{Kind: "memcached"})
	assert.Error(t, err)
}
