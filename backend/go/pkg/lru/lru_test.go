package lru

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := New[string, int](2)
	require.NoError(t, err)

	c.Put("a", 1, 0)
	c.Put("b", 2, 0)
	_, _ = c.Get("a")
	c.Put("c", 3, 0)

	_, ok := c.Get("b")
	assert.False(t, ok)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Len())
}

func TestExpiredEntriesAreDropped(t *testing.T) {
	now := time.Now()
	c, err := New[string, int](4)
	require.NoError(t, err)
	c.now = func() time.Time { return now }

	c.Put("a", 1, time.Minute)
	c.Put("b", 2, 0)
	now = now.Add(2 * time.Minute)

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestOverwriteKeepsSingleEntry(t *testing.T) {
	c, err := New[string, int](2)
	require.NoError(t, err)
	c.Put("a", 1, 0)
	c.Put("a", 5, 0)
	v, _ := c.Get("a")
	assert.Equal(t, 5, v)
	assert.Equal(t, 1, c.Len())
}

func TestInvalidCapacity(t *testing.T) {
	_, err := New[string, int](0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}
