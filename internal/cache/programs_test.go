package cache_test

import (
	"testing"

	"leafls/internal/analysis"
	"leafls/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	c := cache.NewPrograms(0)
	assert.False(t, c.Enabled())

	key := cache.KeyOf("file:///a.leaf", 1, "x")
	c.Put(key, &analysis.Program{})
	_, ok := c.Get(key)
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestPutReplacesOlderRevisions(t *testing.T) {
	c := cache.NewPrograms(8)
	require.True(t, c.Enabled())

	first := cache.KeyOf("file:///a.leaf", 1, "one")
	second := cache.KeyOf("file:///a.leaf", 2, "two")
	other := cache.KeyOf("file:///b.leaf", 1, "one")

	p1, p2, p3 := &analysis.Program{}, &analysis.Program{}, &analysis.Program{}
	c.Put(first, p1)
	c.Put(other, p3)
	c.Put(second, p2)

	_, ok := c.Get(first)
	assert.False(t, ok)
	got, ok := c.Get(second)
	require.True(t, ok)
	assert.Same(t, p2, got)
	assert.Equal(t, 2, c.Len())

	c.Forget("file:///b.leaf")
	_, ok = c.Get(other)
	assert.False(t, ok)
}

func TestDigestSeparatesSameVersion(t *testing.T) {
	a := cache.KeyOf("file:///a.leaf", 3, "func a() {}")
	b := cache.KeyOf("file:///a.leaf", 3, "func b() {}")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, cache.KeyOf("file:///a.leaf", 3, "func a() {}"))
}
