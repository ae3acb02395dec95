package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"link-shortener/internal/domain/event"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	// LinkEventsTopic carries link lifecycle events.
	LinkEventsTopic = "link.events"
	// LinkClicksTopic carries click events.
	LinkClicksTopic = "link.clicks"

	defaultOutputBuffer = 1024
	defaultClickQueue   = 4096
)

// ErrBusClosed is returned when publishing to a closed bus.
var ErrBusClosed = errors.New("event bus closed")

// TopicFor returns the topic an event is published on.
func TopicFor(eventName string) string {
	if eventName == event.NameLinkClicked {
		return LinkClicksTopic
	}
	return LinkEventsTopic
}

// EventBus is an in-process Watermill pub/sub for domain events. Delivery is
// best-effort: messages are lost when the process stops.
//
// Click events go through a bounded queue and are dropped when it is full, so
// a redirect burst never piles up delivery goroutines. Lifecycle events are
// published directly.
type EventBus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter

	mu      sync.RWMutex
	closed  bool
	clicks  chan *message.Message
	done    chan struct{}
	dropped atomic.Int64
}

// NewEventBus creates a new event bus using Go channels.
func NewEventBus(logger watermill.LoggerAdapter) *EventBus {
	b := newEventBus(logger, defaultClickQueue)
	b.start()
	return b
}

func newEventBus(logger watermill.LoggerAdapter, clickQueue int) *EventBus {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: defaultOutputBuffer,
			Persistent:          false,
		},
		logger,
	)

	return &EventBus{
		pubsub: pubsub,
		logger: logger,
		clicks: make(chan *message.Message, clickQueue),
	}
}

func (b *EventBus) start() {
	b.done = make(chan struct{})
	go func() {
		defer close(b.done)
		for msg := range b.clicks {
			if err := b.pubsub.Publish(LinkClicksTopic, msg); err != nil {
				b.logger.Error("failed to forward click event", err, watermill.LogFields{"event_id": msg.UUID})
			}
		}
	}()
}

// Publisher returns the Watermill publisher.
func (b *EventBus) Publisher() message.Publisher {
	return b.pubsub
}

// Subscriber returns the Watermill subscriber.
func (b *EventBus) Subscriber() message.Subscriber {
	return b.pubsub
}

// Publish publishes a domain event without waiting for subscribers.
func (b *EventBus) Publish(_ context.Context, e event.Event) error {
	msg, err := EventToMessage(e)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	if e.EventName() != event.NameLinkClicked {
		return b.pubsub.Publish(LinkEventsTopic, msg)
	}

	select {
	case b.clicks <- msg:
	default:
		n := b.dropped.Add(1)
		b.logger.Debug("click queue full, dropping event", watermill.LogFields{
			"short_code":    e.AggregateID(),
			"dropped_total": n,
		})
	}
	return nil
}

// Dropped returns the number of click events dropped on a full queue.
func (b *EventBus) Dropped() int64 {
	return b.dropped.Load()
}

// Close drains queued clicks and closes the event bus.
func (b *EventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.clicks)
	b.mu.Unlock()

	if b.done != nil {
		<-b.done
	}
	return b.pubsub.Close()
}

// EventEnvelope wraps a domain event for serialization.
type EventEnvelope struct {
	EventID     string          `json:"event_id"`
	EventName   string          `json:"event_name"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// EventToMessage converts a domain event to a Watermill message.
func EventToMessage(e event.Event) (*message.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}

	envelope := EventEnvelope{
		EventID:     e.EventID(),
		EventName:   e.EventName(),
		AggregateID: e.AggregateID(),
		OccurredAt:  e.OccurredAt(),
		Payload:     payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(e.EventID(), data)
	msg.Metadata.Set("event_name", e.EventName())
	msg.Metadata.Set("aggregate_id", e.AggregateID())

	return msg, nil
}

// MessageToEnvelope extracts the event envelope from a Watermill message.
func MessageToEnvelope(msg *message.Message) (*EventEnvelope, error) {
	var envelope EventEnvelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}
