package data

import (
	"context"
	"encoding/json"
	"time"

	"link-shortener/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

const linkCachePrefix = "link:"

// Compile-time interface check
var _ domain.LinkCache = (*linkCache)(nil)

// linkCache implements domain.LinkCache on the shared substrate.
type linkCache struct {
	sub Substrate
	log *log.Helper
}

// NewLinkCache creates a new link cache.
func NewLinkCache(sub Substrate, logger log.Logger) domain.LinkCache {
	return &linkCache{
		sub: sub,
		log: log.NewHelper(logger),
	}
}

func (c *linkCache) cacheKey(code domain.ShortCode) string {
	return linkCachePrefix + code.String()
}

// Get retrieves a link from cache. Errors are treated as a miss.
func (c *linkCache) Get(ctx context.Context, code domain.ShortCode) *domain.CachedLink {
	data, ok, err := c.sub.Get(ctx, c.cacheKey(code))
	if err != nil {
		c.log.WithContext(ctx).Warnf("Failed to get link from cache: %v", err)
		return nil
	}
	if !ok {
		return nil
	}

	var cached domain.CachedLink
	if err := json.Unmarshal(data, &cached); err != nil {
		c.log.WithContext(ctx).Warnf("Failed to unmarshal cached link: %v", err)
		return nil
	}
	if cached.Destination == "" || cached.TenantID == "" {
		return nil
	}
	return &cached
}

// Set stores a link in the cache.
func (c *linkCache) Set(ctx context.Context, code domain.ShortCode, entry *domain.CachedLink, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		c.log.WithContext(ctx).Warnf("Failed to marshal link for cache: %v", err)
		return
	}

	if err := c.sub.Set(ctx, c.cacheKey(code), data, ttl); err != nil {
		c.log.WithContext(ctx).Warnf("Failed to cache link: %v", err)
	}
}

// Delete removes a link from the cache.
func (c *linkCache) Delete(ctx context.Context, code domain.ShortCode) {
	if err := c.sub.Del(ctx, c.cacheKey(code)); err != nil {
		c.log.WithContext(ctx).Warnf("Failed to invalidate link cache: %v", err)
	}
}
