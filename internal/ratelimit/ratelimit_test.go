package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketRefills(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 11, 15, 9, 0, 0, 0, time.UTC)
	l := NewTokenBucket(2, 2)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "s1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "s1")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "s2")
	assert.True(t, ok, "keys are independent")

	now = now.Add(30 * time.Second)
	ok, _ = l.Allow(ctx, "s1")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "s1")
	assert.False(t, ok)
}

func TestRedisWindow(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2024, 11, 15, 9, 0, 10, 0, time.UTC)
	l := NewRedisWindow(client, "scan", 3, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "s1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	key := "scan:s1:202411150900"
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	now = now.Add(time.Minute)
	ok, err = l.Allow(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok, "a new window starts a new count")
}

type failing struct{}

func (failing) Allow(context.Context, string) (bool, error) {
	return false, errors.New("down")
}

func TestFallbackUsesSecondaryOnError(t *testing.T) {
	f := Fallback{Primary: failing{}, Secondary: NewTokenBucket(1, 1)}
	ok, err := f.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
