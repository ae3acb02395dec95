package domain

import (
	"context"
	"time"
)

// CachedLink is the part of a link needed to answer a redirect without the store.
type CachedLink struct {
	Destination string     `json:"destination"`
	TenantID    string     `json:"tenant_id"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// IsExpiredAt reports whether the recorded expiry has passed at now.
func (c *CachedLink) IsExpiredAt(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// LinkCache is a best-effort read-through cache in front of the LinkRepository.
// Implementations never return errors; backend failures degrade to a miss or a no-op.
type LinkCache interface {
	// Get returns the cached entry, or nil on a miss.
	Get(ctx context.Context, code ShortCode) *CachedLink
	// Set stores the entry for ttl. Non-positive ttls are ignored.
	Set(ctx context.Context, code ShortCode, entry *CachedLink, ttl time.Duration)
	// Delete removes the entry.
	Delete(ctx context.Context, code ShortCode)
}

// WindowCounter counts hits per fixed window key.
type WindowCounter interface {
	// Incr increments key and returns the new count. The key expires after
	// ttl, set atomically with the first increment.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
