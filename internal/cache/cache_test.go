package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name string `json:"name"`
}

func newHelper(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheHelper(client, "test:"), mr
}

func TestCacheOrExecute_FetchesOnce(t *testing.T) {
	helper, mr := newHelper(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return entry{Name: "school"}, nil
	}

	var first, second entry
	require.NoError(t, helper.CacheOrExecute(ctx, "k", &first, time.Minute, fetch))
	require.NoError(t, helper.CacheOrExecute(ctx, "k", &second, time.Minute, fetch))

	assert.Equal(t, 1, calls)
	assert.Equal(t, "school", second.Name)
	assert.True(t, mr.Exists("test:k"))

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("test:k"))
}

func TestCacheHelper_Delete(t *testing.T) {
	helper, mr := newHelper(t)
	ctx := context.Background()

	require.NoError(t, helper.Set(ctx, "a", entry{Name: "a"}, time.Minute))
	require.NoError(t, helper.Set(ctx, "b", entry{Name: "b"}, time.Minute))
	require.NoError(t, helper.Delete(ctx, "a", "b"))

	assert.False(t, mr.Exists("test:a"))
	assert.False(t, mr.Exists("test:b"))

	var e entry
	assert.ErrorIs(t, helper.Get(ctx, "a", &e), ErrCacheNotFound)
}

func TestCacheHelper_NilClientFallsThrough(t *testing.T) {
	helper := NewCacheHelper(nil, "test:")
	ctx := context.Background()

	var e entry
	assert.ErrorIs(t, helper.Get(ctx, "k", &e), ErrCacheNotAvailable)
	assert.NoError(t, helper.Set(ctx, "k", entry{}, time.Minute))

	require.NoError(t, helper.CacheOrExecute(ctx, "k", &e, time.Minute, func() (interface{}, error) {
		return entry{Name: "db"}, nil
	}))
	assert.Equal(t, "db", e.Name)

	assert.ErrorIs(t, NewCacheManager(nil).HealthCheck(ctx), ErrCacheNotAvailable)
}
