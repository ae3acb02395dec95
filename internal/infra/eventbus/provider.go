package eventbus

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/wire"
)

// ProviderSet is eventbus providers.
var ProviderSet = wire.NewSet(
	NewKratosLoggerAdapter,
	ProvideEventBus,
	NewRouter,
)

// ProvideEventBus creates the EventBus and its cleanup.
func ProvideEventBus(logger watermill.LoggerAdapter) (*EventBus, func()) {
	bus := NewEventBus(logger)
	return bus, func() { _ = bus.Close() }
}
