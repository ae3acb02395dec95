package eventbus

import (
	"context"
	"testing"
	"time"

	"link-shortener/internal/domain/event"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/suite"
)

type EventBusTestSuite struct {
	suite.Suite
	sut    *EventBus
	logger watermill.LoggerAdapter
}

func TestEventBusTestSuite(t *testing.T) {
	suite.Run(t, new(EventBusTestSuite))
}

func (s *EventBusTestSuite) SetupTest() {
	s.logger = watermill.NopLogger{}
	s.sut = NewEventBus(s.logger)
}

func (s *EventBusTestSuite) TearDownTest() {
	if s.sut != nil {
		s.sut.Close()
	}
}

func (s *EventBusTestSuite) TestPublishWithoutSubscribers() {
	// Arrange
	ctx := context.Background()
	evt := event.NewLinkCreated("abc1234", "t1", "https://example.com", nil)

	// Act
	err := s.sut.Publish(ctx, evt)

	// Assert
	s.NoError(err)
}

func (s *EventBusTestSuite) TestEventToMessage() {
	// Arrange
	evt := event.NewLinkClicked("abc1234", "t1")

	// Act
	msg, err := EventToMessage(evt)

	// Assert
	s.NoError(err)
	s.NotNil(msg)
	s.Equal(evt.EventID(), msg.UUID)
	s.Equal(event.NameLinkClicked, msg.Metadata.Get("event_name"))
	s.Equal("abc1234", msg.Metadata.Get("aggregate_id"))
}

func (s *EventBusTestSuite) TestMessageToEnvelope() {
	// Arrange
	evt := event.NewLinkDisabled("abc1234", "t1")
	msg, err := EventToMessage(evt)
	s.Require().NoError(err)

	// Act
	envelope, err := MessageToEnvelope(msg)

	// Assert
	s.NoError(err)
	s.NotNil(envelope)
	s.Equal(evt.EventID(), envelope.EventID)
	s.Equal(event.NameLinkDisabled, envelope.EventName)
	s.Equal("abc1234", envelope.AggregateID)
	s.JSONEq(`"t1"`, string(mustField(s, envelope.Payload, "tenant_id")))
}

func (s *EventBusTestSuite) TestPublishAndSubscribe() {
	// Arrange
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	messages, err := s.sut.Subscriber().Subscribe(ctx, LinkClicksTopic)
	s.Require().NoError(err)
	evt := event.NewLinkClicked("test123", "t1")

	// Act
	err = s.sut.Publish(ctx, evt)
	s.Require().NoError(err)

	// Assert
	select {
	case msg := <-messages:
		envelope, err := MessageToEnvelope(msg)
		s.NoError(err)
		s.Equal(event.NameLinkClicked, envelope.EventName)
		s.Equal("test123", envelope.AggregateID)
		msg.Ack()
	case <-ctx.Done():
		s.Fail("timeout waiting for message")
	}
}

func (s *EventBusTestSuite) TestTopicFor() {
	s.Equal(LinkClicksTopic, TopicFor(event.NameLinkClicked))
	s.Equal(LinkEventsTopic, TopicFor(event.NameLinkCreated))
	s.Equal(LinkEventsTopic, TopicFor(event.NameLinkDisabled))
	s.Equal(LinkEventsTopic, TopicFor(event.NameLinksExpired))
}

func (s *EventBusTestSuite) TestClicksDroppedWhenQueueFull() {
	// Arrange
	bus := newEventBus(s.logger, 2)
	defer bus.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	messages, err := bus.Subscriber().Subscribe(ctx, LinkClicksTopic)
	s.Require().NoError(err)

	// Act
	for i := 0; i < 3; i++ {
		s.Require().NoError(bus.Publish(ctx, event.NewLinkClicked("abc1234", "t1")))
	}
	bus.start()

	// Assert
	s.Equal(int64(1), bus.Dropped())
	for i := 0; i < 2; i++ {
		select {
		case msg := <-messages:
			msg.Ack()
		case <-ctx.Done():
			s.FailNow("timeout waiting for queued click")
		}
	}
}

func (s *EventBusTestSuite) TestLifecycleEventsBypassClickQueue() {
	// Arrange
	bus := newEventBus(s.logger, 0)
	defer bus.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	messages, err := bus.Subscriber().Subscribe(ctx, LinkEventsTopic)
	s.Require().NoError(err)

	// Act
	err = bus.Publish(ctx, event.NewLinkDisabled("abc1234", "t1"))

	// Assert
	s.Require().NoError(err)
	s.Zero(bus.Dropped())
	select {
	case msg := <-messages:
		s.Equal(event.NameLinkDisabled, msg.Metadata.Get("event_name"))
		msg.Ack()
	case <-ctx.Done():
		s.Fail("timeout waiting for lifecycle event")
	}
}

func (s *EventBusTestSuite) TestPublishAfterClose() {
	// Arrange
	bus := NewEventBus(s.logger)
	s.Require().NoError(bus.Close())

	// Act
	err := bus.Publish(context.Background(), event.NewLinkClicked("abc1234", "t1"))

	// Assert
	s.ErrorIs(err, ErrBusClosed)
	s.NoError(bus.Close())
}
