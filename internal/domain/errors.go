package domain

import (
	"errors"

	"link-shortener/internal/domain/valueobject"
)

var (
	// ErrLinkNotFound covers absent, disabled and expired links alike.
	ErrLinkNotFound       = errors.New("link not found")
	ErrAliasInUse         = errors.New("alias already in use")
	ErrCodeSpaceExhausted = errors.New("could not generate a unique short code")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrInvalidTTL         = errors.New("ttl must be a positive number of seconds")
	ErrTenantRequired     = errors.New("tenant id is required")

	// ErrIdempotencyRecordExists is returned by the ledger when another writer
	// already recorded an outcome for the same (tenant, token).
	ErrIdempotencyRecordExists = errors.New("idempotency record already exists")

	// Re-export value object errors for convenience.
	ErrInvalidURL  = valueobject.ErrInvalidURL
	ErrInvalidCode = valueobject.ErrInvalidCode
)
