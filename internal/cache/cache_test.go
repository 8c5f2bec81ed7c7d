package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_PutGet(t *testing.T) {
	c := New(10, time.Minute)
	c.Put("g/03-1032", "2324 REHBERG LN BILLINGS, MT 59102")

	v, ok := c.Get("g/03-1032")
	require.True(t, ok)
	assert.Equal(t, "2324 REHBERG LN BILLINGS, MT 59102", v)
}

func TestCache_Miss(t *testing.T) {
	c := New(10, time.Minute)
	_, ok := c.Get("g/unknown")
	assert.False(t, ok)
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(10, 10*time.Millisecond)
	c.Put("g/expiring", "value")

	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("g/expiring")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, 0, stats.Entries)
}

func TestCache_EvictsOldestAtCapacity(t *testing.T) {
	c := New(2, time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry should have been evicted")

	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestCache_Delete(t *testing.T) {
	c := New(10, time.Minute)
	c.Put("a", 1)
	c.Delete("a")

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCache_Stats(t *testing.T) {
	c := New(10, time.Minute)
	c.Put("a", 1)

	c.Get("a")
	c.Get("a")
	c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
}

func TestBatchKey_CanonicalForm(t *testing.T) {
	a := BatchKey([]string{"b", "a", "a", "c"})
	b := BatchKey([]string{"c", "b", "a"})
	assert.Equal(t, a, b)
	assert.Equal(t, "b/a,b,c", a)
}

func TestSingleKey(t *testing.T) {
	assert.Equal(t, "g/03-1032", SingleKey("03-1032"))
}
