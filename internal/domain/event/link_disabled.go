package event

// LinkDisabled is raised after a tenant disabled one of its links.
type LinkDisabled struct {
	Base
	ShortCode string `json:"short_code"`
	TenantID  string `json:"tenant_id"`
}

// NewLinkDisabled creates a new LinkDisabled event.
func NewLinkDisabled(shortCode, tenantID string) LinkDisabled {
	return LinkDisabled{
		Base:      NewBase(shortCode),
		ShortCode: shortCode,
		TenantID:  tenantID,
	}
}

// EventName returns the event name.
func (e LinkDisabled) EventName() string {
	return NameLinkDisabled
}
