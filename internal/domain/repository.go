package domain

import (
	"context"
	"time"
)

// LinkRepository is the authoritative store for links.
// Invariants are enforced with conditional statements, not application locks.
type LinkRepository interface {
	// Insert creates the link. It returns ErrAliasInUse when the short code
	// already exists, whatever the status of the existing link.
	Insert(ctx context.Context, link *Link) error

	// FindByCode retrieves a link by its short code.
	// Returns nil if not found.
	FindByCode(ctx context.Context, code ShortCode) (*Link, error)

	// SoftDisable disables an active link owned by tenantID. It reports false
	// when the link is missing, owned by another tenant, or no longer active.
	SoftDisable(ctx context.Context, code ShortCode, tenantID string) (bool, error)

	// IncrementClicks atomically adds one to the click counter.
	IncrementClicks(ctx context.Context, code ShortCode) error

	// SweepExpired transitions every active link whose expiry is before now to
	// expired in one conditional bulk update and returns the affected count.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)

	// ListByTenant returns a page of a tenant's links, newest first, and the total.
	ListByTenant(ctx context.Context, tenantID string, page, pageSize int) ([]*Link, int, error)
}

// IdempotencyRepository is the ledger of memorized mutation outcomes.
type IdempotencyRepository interface {
	// Find returns the record for (tenantID, token), or nil if none exists.
	Find(ctx context.Context, tenantID, token string) (*IdempotencyRecord, error)

	// CreateIfAbsent inserts the record unless one already exists for the same
	// (tenant, token), in which case it returns ErrIdempotencyRecordExists and
	// leaves the existing record untouched.
	CreateIfAbsent(ctx context.Context, record *IdempotencyRecord) error
}
