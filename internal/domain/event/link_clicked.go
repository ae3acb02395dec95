package event

// LinkClicked is raised when a short code is resolved for a redirect.
type LinkClicked struct {
	Base
	ShortCode string `json:"short_code"`
	TenantID  string `json:"tenant_id"`
}

// NewLinkClicked creates a new LinkClicked event.
func NewLinkClicked(shortCode, tenantID string) LinkClicked {
	return LinkClicked{
		Base:      NewBase(shortCode),
		ShortCode: shortCode,
		TenantID:  tenantID,
	}
}

// EventName returns the event name.
func (e LinkClicked) EventName() string {
	return NameLinkClicked
}
