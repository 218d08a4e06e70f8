package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClient_GetSetDelete(t *testing.T) {
	c := NewMemoryClient()
	ctx := context.Background()

	_, err := c.Get(ctx, "k")
	assert.Equal(t, ErrCacheMiss, err)

	require.NoError(t, c.Set(ctx, "k", []byte(`{"a":1}`), 0))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, v)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.Equal(t, ErrCacheMiss, err)
}

func TestMemoryClient_Expiration(t *testing.T) {
	c := NewMemoryClient()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	now = now.Add(59 * time.Second)
	_, err := c.Get(ctx, "k")
	assert.NoError(t, err)

	now = now.Add(time.Second)
	_, err = c.Get(ctx, "k")
	assert.Equal(t, ErrCacheMiss, err)
}

func TestMemoryClient_SetNX(t *testing.T) {
	c := NewMemoryClient()
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "k", "1", 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "k", "2", 0)
	require.NoError(t, err)
	assert.False(t, ok)

	v, _ := c.Get(ctx, "k")
	assert.Equal(t, "1", v)
}

func TestMemoryClient_IncrKeepsTTL(t *testing.T) {
	c := NewMemoryClient()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	n, err := c.Incr(ctx, "hits")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, c.Expire(ctx, "hits", time.Minute))

	n, err = c.Incr(ctx, "hits")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	now = now.Add(time.Minute)
	n, err = c.Incr(ctx, "hits")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryClient_UpdateIsAtomic(t *testing.T) {
	c := NewMemoryClient()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Update(ctx, "counter", 0, func(current string, found bool) (string, error) {
				return current + "x", nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	v, err := c.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Len(t, v, 50)
}

func TestMemoryClient_UpdateErrorLeavesValue(t *testing.T) {
	c := NewMemoryClient()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "original", 0))

	boom := errors.New("boom")
	_, err := c.Update(ctx, "k", 0, func(string, bool) (string, error) { return "", boom })

	assert.ErrorIs(t, err, boom)
	v, _ := c.Get(ctx, "k")
	assert.Equal(t, "original", v)
}
