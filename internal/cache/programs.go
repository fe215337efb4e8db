// Package cache memoizes resolved programs per document version.
package cache

import (
	"sync"

	"leafls/internal/analysis"

	"github.com/bluele/gcache"
	"github.com/cespare/xxhash/v2"
)

// Key identifies one resolved revision of a document. Digest guards against
// clients that reuse version numbers for different text.
type Key struct {
	URI     string
	Version int32
	Digest  uint64
}

func KeyOf(uri string, version int32, text string) Key {
	return Key{URI: uri, Version: version, Digest: xxhash.Sum64String(text)}
}

// Programs is an LRU of resolved programs. A zero size disables it; every
// method is then a no-op and Get always misses.
type Programs struct {
	mu  sync.Mutex
	lru gcache.Cache
}

func NewPrograms(size int) *Programs {
	c := &Programs{}
	if size > 0 {
		c.lru = gcache.New(size).LRU().Build()
	}
	return c
}

func (c *Programs) Enabled() bool { return c != nil && c.lru != nil }

func (c *Programs) Get(key Key) (*analysis.Program, bool) {
	if !c.Enabled() {
		return nil, false
	}
	v, err := c.lru.Get(key)
	if err != nil {
		return nil, false
	}
	prog, ok := v.(*analysis.Program)
	return prog, ok
}

func (c *Programs) Put(key Key, prog *analysis.Program) {
	if !c.Enabled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// Older revisions of the same document are never asked for again.
	c.forget(key.URI)
	_ = c.lru.Set(key, prog)
}

// Forget drops every cached revision of uri.
func (c *Programs) Forget(uri string) {
	if !c.Enabled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forget(uri)
}

func (c *Programs) forget(uri string) {
	for _, k := range c.lru.Keys(false) {
		if key, ok := k.(Key); ok && key.URI == uri {
			c.lru.Remove(k)
		}
	}
}

func (c *Programs) Len() int {
	if !c.Enabled() {
		return 0
	}
	return c.lru.Len(false)
}
