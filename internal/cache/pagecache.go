package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scribe-social/scribe/pkg/logging"
)

// PageCache holds short-lived rendered pages, keyed on route plus query
// string. Invalidation is explicit: every post write bumps a generation
// counter, which orphans all previously stored pages at once. Orphaned
// entries simply age out on their TTL.
type PageCache struct {
	cache  *Cache
	ttl    time.Duration
	logger *zap.Logger
}

const pageGenKey = "page:gen"

// NewPageCache creates a page cache on top of the Redis client. A nil Cache
// yields a disabled PageCache whose lookups always miss.
func NewPageCache(c *Cache, ttl time.Duration) *PageCache {
	return &PageCache{
		cache:  c,
		ttl:    ttl,
		logger: logging.WithComponent("page-cache"),
	}
}

// Enabled reports whether the page cache is backed by a live Redis client
func (p *PageCache) Enabled() bool {
	return p != nil && p.cache != nil && p.ttl > 0
}

func (p *PageCache) key(ctx context.Context, path, rawQuery string) (string, error) {
	gen, err := p.cache.Get(ctx, pageGenKey)
	if err != nil {
		gen = "0"
	}
	return fmt.Sprintf("page:%s:%s", gen, HashKey(path, rawQuery)), nil
}

// Get returns the cached rendering of a page, if present
func (p *PageCache) Get(ctx context.Context, path, rawQuery string) (string, bool) {
	if !p.Enabled() {
		return "", false
	}
	key, err := p.key(ctx, path, rawQuery)
	if err != nil {
		return "", false
	}
	body, err := p.cache.Get(ctx, key)
	if err != nil {
		return "", false
	}
	return body, true
}

// Set stores a rendered page under the current generation
func (p *PageCache) Set(ctx context.Context, path, rawQuery, body string) {
	if !p.Enabled() {
		return
	}
	key, err := p.key(ctx, path, rawQuery)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, key, body, p.ttl); err != nil {
		p.logger.Warn("Failed to store page", zap.Error(err))
	}
}

// Invalidate drops every cached page by advancing the generation counter
func (p *PageCache) Invalidate(ctx context.Context) {
	if !p.Enabled() {
		return
	}
	if _, err := p.cache.Incr(ctx, pageGenKey); err != nil {
		p.logger.Warn("Failed to advance page generation", zap.Error(err))
	}
}
