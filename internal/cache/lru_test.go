package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[int], *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCacheExpiry(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("alice", 1)

	v, ok := c.Get("alice")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	clock.t = clock.t.Add(2 * time.Minute)
	_, ok = c.Get("alice")
	assert.False(t, ok)
	assert.Zero(t, c.Size())
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b was least recently used")
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
}

func TestLRUCacheCleanExpired(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("old", 1)
	clock.t = clock.t.Add(30 * time.Second)
	c.Set("new", 2)
	clock.t = clock.t.Add(45 * time.Second)

	m := NewManager(nil)
	m.Register(c)
	assert.Equal(t, 1, m.CleanNow())
	assert.Equal(t, 1, c.Size())
}

func TestLRUCacheGetOrLoad(t *testing.T) {
	c, _ := newTestCache(10, time.Hour)
	calls := 0
	load := func() (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrLoad("k", load)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	_, err := c.GetOrLoad("missing", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	_, ok := c.Get("missing")
	assert.False(t, ok, "errors are not cached")
}

func TestManagerStartStop(t *testing.T) {
	m := NewManager(nil)
	m.Register(NewLRUCache[string](1, time.Millisecond))
	m.StartCleanup(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	m.Stop()
}
