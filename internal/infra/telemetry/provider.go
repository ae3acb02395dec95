package telemetry

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// ProviderSet is telemetry providers.
var ProviderSet = wire.NewSet(NewMeterProvider, ProvideMetrics)

const shutdownTimeout = 5 * time.Second

// NewMeterProvider creates the process meter provider and installs it as the
// global one. Readers and exporters attach here.
func NewMeterProvider(logger log.Logger) (*sdkmetric.MeterProvider, func()) {
	mp := sdkmetric.NewMeterProvider()
	otel.SetMeterProvider(mp)

	helper := log.NewHelper(log.With(logger, "component", "telemetry"))
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mp.Shutdown(ctx); err != nil {
			helper.Errorf("failed to shut down meter provider: %v", err)
		}
	}
	return mp, cleanup
}
