package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Stored identifier limits.
const (
	MaxTenantIDLength         = 128
	MaxIdempotencyTokenLength = 255
)

// IdempotencyRecord is the memorized outcome of a tenant-scoped mutation.
// Records are immutable once written.
type IdempotencyRecord struct {
	ID             string
	TenantID       string
	Token          string
	ResponseStatus int
	ResponseBody   json.RawMessage
	CreatedAt      time.Time
}

// NewIdempotencyRecord creates a record for the given outcome.
func NewIdempotencyRecord(tenantID, token string, status int, body json.RawMessage, now time.Time) *IdempotencyRecord {
	return &IdempotencyRecord{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		Token:          token,
		ResponseStatus: status,
		ResponseBody:   body,
		CreatedAt:      now.UTC(),
	}
}
