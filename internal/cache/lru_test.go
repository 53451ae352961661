package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestLRUExpiresAndEvicts(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](2, time.Minute).WithClock(clk.now)

	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a") // a is now most recent
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "least recently used entry is evicted")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	clk.advance(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok, "entry expired")
}

func TestLRUInvalidateAndPurge(t *testing.T) {
	c := NewLRUCache[string](10, time.Hour)
	c.Set("x", "1")
	c.Set("y", "2")

	c.Invalidate("x")
	c.Invalidate("missing")
	_, ok := c.Get("x")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Size())

	c.Purge()
	assert.Zero(t, c.Size())
}

func TestCleanExpiredAndManager(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](10, time.Minute).WithClock(clk.now)
	c.Set("short", 1)
	c.SetWithTTL("long", 2, time.Hour)

	clk.advance(5 * time.Minute)
	m := NewManager(nil)
	m.Register(c)
	assert.Equal(t, 1, m.CleanOnce())
	assert.Equal(t, 1, c.Size())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, m.Run(ctx, time.Millisecond))
	assert.NoError(t, m.Run(ctx, 0))
}
