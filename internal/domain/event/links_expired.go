package event

import "time"

// LinksExpired is raised by a sweep cycle that transitioned at least one link.
type LinksExpired struct {
	Base
	Count   int64     `json:"count"`
	SweptAt time.Time `json:"swept_at"`
}

// NewLinksExpired creates a new LinksExpired event.
func NewLinksExpired(count int64, sweptAt time.Time) LinksExpired {
	return LinksExpired{
		Base:    NewBase("sweeper"),
		Count:   count,
		SweptAt: sweptAt,
	}
}

// EventName returns the event name.
func (e LinksExpired) EventName() string {
	return NameLinksExpired
}
