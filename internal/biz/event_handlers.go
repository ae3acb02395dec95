package biz

import (
	"context"
	"encoding/json"

	"link-shortener/internal/domain"
	"link-shortener/internal/domain/event"
	"link-shortener/internal/infra/eventbus"

	"github.com/go-kratos/kratos/v2/log"
)

// Compile-time interface checks
var (
	_ eventbus.EventHandler = (*LoggingEventHandler)(nil)
	_ eventbus.EventHandler = (*ClickEventHandler)(nil)
)

// LoggingEventHandler logs link lifecycle events.
type LoggingEventHandler struct {
	log       *log.Helper
	eventName string
}

// NewLoggingEventHandler creates a new logging event handler.
func NewLoggingEventHandler(logger log.Logger, eventName string) *LoggingEventHandler {
	return &LoggingEventHandler{
		log:       log.NewHelper(logger),
		eventName: eventName,
	}
}

func (h *LoggingEventHandler) HandlerName() string {
	return "logging_handler_" + h.eventName
}

func (h *LoggingEventHandler) EventName() string {
	return h.eventName
}

// Handle logs the event details.
func (h *LoggingEventHandler) Handle(ctx context.Context, envelope *eventbus.EventEnvelope) error {
	switch envelope.EventName {
	case event.NameLinkCreated:
		var evt event.LinkCreated
		if err := json.Unmarshal(envelope.Payload, &evt); err != nil {
			return nil
		}
		h.log.WithContext(ctx).Infof("[Event] link created: %s -> %s (tenant %s)", evt.ShortCode, evt.Destination, evt.TenantID)
	case event.NameLinkDisabled:
		var evt event.LinkDisabled
		if err := json.Unmarshal(envelope.Payload, &evt); err != nil {
			return nil
		}
		h.log.WithContext(ctx).Infof("[Event] link disabled: %s (tenant %s)", evt.ShortCode, evt.TenantID)
	case event.NameLinksExpired:
		var evt event.LinksExpired
		if err := json.Unmarshal(envelope.Payload, &evt); err != nil {
			return nil
		}
		h.log.WithContext(ctx).Infof("[Event] %d links expired at %s", evt.Count, evt.SweptAt)
	default:
		h.log.WithContext(ctx).Infof("[Event] %s: %s", envelope.EventName, envelope.AggregateID)
	}
	return nil
}

// ClickEventHandler counts LinkClicked events.
type ClickEventHandler struct {
	links domain.LinkRepository
	log   *log.Helper
}

// NewClickEventHandler creates a new click event handler.
func NewClickEventHandler(links domain.LinkRepository, logger log.Logger) *ClickEventHandler {
	return &ClickEventHandler{
		links: links,
		log:   log.NewHelper(logger),
	}
}

func (h *ClickEventHandler) HandlerName() string {
	return "click_handler"
}

func (h *ClickEventHandler) EventName() string {
	return event.NameLinkClicked
}

// Handle increments the click count. Failed increments are dropped rather
// than redelivered.
func (h *ClickEventHandler) Handle(ctx context.Context, envelope *eventbus.EventEnvelope) error {
	var evt event.LinkClicked
	if err := json.Unmarshal(envelope.Payload, &evt); err != nil {
		h.log.Warnf("failed to unmarshal LinkClicked event: %v", err)
		return nil
	}

	code, err := domain.NewShortCode(evt.ShortCode)
	if err != nil {
		h.log.Warnf("invalid short code in LinkClicked event: %s", evt.ShortCode)
		return nil
	}

	if err := h.links.IncrementClicks(ctx, code); err != nil {
		h.log.Warnf("dropping click for %s: %v", evt.ShortCode, err)
	}
	return nil
}

// RegisterEventHandlers registers all event handlers with the router.
func RegisterEventHandlers(router *eventbus.Router, clicks *ClickEventHandler, logger log.Logger) {
	for _, name := range []string{event.NameLinkCreated, event.NameLinkDisabled, event.NameLinksExpired} {
		router.AddHandler(NewLoggingEventHandler(logger, name))
	}
	router.AddHandler(clicks)
}
