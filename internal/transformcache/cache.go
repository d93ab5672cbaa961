// Package transformcache decorates a transform.Transformer with an LRU cache
// keyed by absolute path. Watch mode invalidates changed paths so only the
// modules that actually changed are re-transformed on a rebuild.
package transformcache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/specialistvlad/bundlego/internal/ctxlog"
	"github.com/specialistvlad/bundlego/internal/transform"
)

// Cache is a caching Transformer. It is safe only under the build model of
// this tool: builds are sequential, so no locking beyond the LRU's own is
// needed.
type Cache struct {
	inner   transform.Transformer
	entries *lru.Cache[string, *transform.Result]
}

// New wraps inner with an LRU of the given size.
func New(inner transform.Transformer, size int) (*Cache, error) {
	entries, err := lru.New[string, *transform.Result](size)
	if err != nil {
		return nil, err
	}
	return &Cache{inner: inner, entries: entries}, nil
}

// Transform returns the cached result for absPath, falling through to the
// wrapped transformer on a miss. Failed transforms are never cached.
func (c *Cache) Transform(ctx context.Context, absPath string) (*transform.Result, error) {
	if result, ok := c.entries.Get(absPath); ok {
		ctxlog.FromContext(ctx).Debug("Transform cache hit.", "path", absPath)
		return result, nil
	}
	result, err := c.inner.Transform(ctx, absPath)
	if err != nil {
		return nil, err
	}
	c.entries.Add(absPath, result)
	return result, nil
}

// Invalidate drops the cached entry for absPath, if any.
func (c *Cache) Invalidate(absPath string) {
	c.entries.Remove(absPath)
}

// Len reports the number of cached entries. Exposed for tests.
func (c *Cache) Len() int {
	return c.entries.Len()
}
