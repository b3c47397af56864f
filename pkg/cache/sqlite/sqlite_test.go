package sqlite

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	tmp, err := os.CreateTemp("", "apimanager-cache-*.db")
	require.NoError(t, err)
	tmp.Close()
	t.Cleanup(func() { os.Remove(tmp.Name()) })

	c, err := New(tmp.Name())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGetPutRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "k", []byte(`{"id":1}`)))
	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"id":1}`), v)
}

func TestPutOverwrites(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k", []byte("old")))
	require.NoError(t, c.Put(ctx, "k", []byte("new")))

	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("new"), v)
}

func TestMaxAgeExpiry(t *testing.T) {
	c := newTestCache(t)
	c.MaxAge = time.Hour
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k", []byte("v")))

	now = now.Add(30 * time.Minute)
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(31 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "stale rows read as misses")
}

func TestPrune(t *testing.T) {
	c := newTestCache(t)
	c.MaxAge = time.Hour
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "old", []byte("v")))
	now = now.Add(2 * time.Hour)
	require.NoError(t, c.Put(ctx, "fresh", []byte("v")))

	pruned, err := c.Prune(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pruned)

	_, ok, _ := c.Get(ctx, "fresh")
	assert.True(t, ok)
}

func TestSurvivesReopen(t *testing.T) {
	tmp, err := os.CreateTemp("", "apimanager-cache-*.db")
	require.NoError(t, err)
	tmp.Close()
	defer os.Remove(tmp.Name())
	ctx := context.Background()

	c1, err := New(tmp.Name())
	require.NoError(t, err)
	require.NoError(t, c1.Put(ctx, "k", []byte("persisted")))
	require.NoError(t, c1.Close())

	c2, err := New(tmp.Name())
	require.NoError(t, err)
	defer c2.Close()

	v, ok, err := c2.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("persisted"), v)
}
