package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetPut(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "k", []byte("v1")))
	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v1"), v)

	// Overwrite.
	require.NoError(t, c.Put(ctx, "k", []byte("v2")))
	v, _, _ = c.Get(ctx, "k")
	assert.Equal(t, []byte("v2"), v)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryNilValueIsAHit(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k", nil))
	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "nil is a valid cached value")
	assert.Nil(t, v)
}

func TestMemoryMaxAge(t *testing.T) {
	c := NewMemory()
	c.MaxAge = time.Minute
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k", []byte("v")))

	now = now.Add(59 * time.Second)
	_, ok, _ := c.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok, "stale entries read as misses")
}

func TestMemoryConcurrent(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Put(ctx, "shared", []byte("v"))
			_, _, _ = c.Get(ctx, "shared")
		}()
	}
	wg.Wait()

	v, ok, err := c.Get(ctx, "shared")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}
