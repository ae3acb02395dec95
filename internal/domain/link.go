package domain

import (
	"time"

	"github.com/google/uuid"
)

// LinkStatus is the lifecycle state of a Link.
type LinkStatus string

const (
	LinkStatusActive   LinkStatus = "active"
	LinkStatusDisabled LinkStatus = "disabled"
	LinkStatusExpired  LinkStatus = "expired"
)

// Link maps a tenant-owned short code to a destination URL.
// Links are never removed; disable and expire are soft states.
type Link struct {
	id          string
	tenantID    string
	shortCode   ShortCode
	destination Destination
	status      LinkStatus
	clickCount  int64
	expiresAt   *time.Time
	createdAt   time.Time
	updatedAt   time.Time
}

// NewLink creates an active link with a fresh identity.
func NewLink(tenantID string, shortCode ShortCode, destination Destination, expiresAt *time.Time, now time.Time) *Link {
	now = now.UTC()
	if expiresAt != nil {
		t := expiresAt.UTC()
		expiresAt = &t
	}
	return &Link{
		id:          uuid.NewString(),
		tenantID:    tenantID,
		shortCode:   shortCode,
		destination: destination,
		status:      LinkStatusActive,
		expiresAt:   expiresAt,
		createdAt:   now,
		updatedAt:   now,
	}
}

// ReconstructLink reconstructs a Link from persistence.
func ReconstructLink(
	id string,
	tenantID string,
	shortCode ShortCode,
	destination Destination,
	status LinkStatus,
	clickCount int64,
	expiresAt *time.Time,
	createdAt time.Time,
	updatedAt time.Time,
) *Link {
	return &Link{
		id:          id,
		tenantID:    tenantID,
		shortCode:   shortCode,
		destination: destination,
		status:      status,
		clickCount:  clickCount,
		expiresAt:   expiresAt,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// ID returns the link's opaque identifier.
func (l *Link) ID() string {
	return l.id
}

// TenantID returns the owning tenant.
func (l *Link) TenantID() string {
	return l.tenantID
}

// ShortCode returns the link's short code.
func (l *Link) ShortCode() ShortCode {
	return l.shortCode
}

// Destination returns the redirect target.
func (l *Link) Destination() Destination {
	return l.destination
}

// Status returns the stored lifecycle status.
func (l *Link) Status() LinkStatus {
	return l.status
}

// ClickCount returns the number of recorded redirects.
func (l *Link) ClickCount() int64 {
	return l.clickCount
}

// ExpiresAt returns the expiration time, or nil if the link never expires.
func (l *Link) ExpiresAt() *time.Time {
	return l.expiresAt
}

// CreatedAt returns when the link was created.
func (l *Link) CreatedAt() time.Time {
	return l.createdAt
}

// UpdatedAt returns when the link was last updated.
func (l *Link) UpdatedAt() time.Time {
	return l.updatedAt
}

// IsExpiredAt reports whether the expiry has passed at now, regardless of
// whether the sweeper has transitioned the stored status yet.
func (l *Link) IsExpiredAt(now time.Time) bool {
	if l.expiresAt == nil {
		return false
	}
	return !now.Before(*l.expiresAt)
}

// CanResolve returns ErrLinkNotFound unless the link is active and unexpired.
// Disabled and expired links are deliberately indistinguishable from missing ones.
func (l *Link) CanResolve(now time.Time) error {
	if l.status != LinkStatusActive || l.IsExpiredAt(now) {
		return ErrLinkNotFound
	}
	return nil
}

// CacheTTL returns how long a resolution may be cached: the default TTL
// capped by the time left until expiry. A non-positive result means do not cache.
func (l *Link) CacheTTL(now time.Time, def time.Duration) time.Duration {
	if l.expiresAt == nil {
		return def
	}
	remaining := l.expiresAt.Sub(now)
	if remaining < def {
		return remaining
	}
	return def
}

// StatusAt returns the status as observed at now: an active link whose
// expiry has passed reads as expired before the sweeper records it.
func (l *Link) StatusAt(now time.Time) LinkStatus {
	if l.status == LinkStatusActive && l.IsExpiredAt(now) {
		return LinkStatusExpired
	}
	return l.status
}
