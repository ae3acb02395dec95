package event

import "time"

// LinkCreated is raised after a link has been committed.
type LinkCreated struct {
	Base
	ShortCode   string     `json:"short_code"`
	TenantID    string     `json:"tenant_id"`
	Destination string     `json:"destination"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// NewLinkCreated creates a new LinkCreated event.
func NewLinkCreated(shortCode, tenantID, destination string, expiresAt *time.Time) LinkCreated {
	return LinkCreated{
		Base:        NewBase(shortCode),
		ShortCode:   shortCode,
		TenantID:    tenantID,
		Destination: destination,
		ExpiresAt:   expiresAt,
	}
}

// EventName returns the event name.
func (e LinkCreated) EventName() string {
	return NameLinkCreated
}
