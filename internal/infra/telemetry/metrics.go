package telemetry

import (
	"context"
	"time"

	"link-shortener/internal/biz"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const instrumentationName = "link-shortener/internal/biz"

// Compile-time interface check
var _ biz.Metrics = (*Metrics)(nil)

// Metrics records redirect path counters with OpenTelemetry.
type Metrics struct {
	cacheLookups metric.Int64Counter
	redirects    metric.Int64Counter
	rateLimited  metric.Int64Counter
	latency      metric.Float64Histogram
}

// NewMetrics creates the counters on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	cacheLookups, err := meter.Int64Counter(
		"link_cache_lookups_total",
		metric.WithDescription("Link cache lookups by result."),
	)
	if err != nil {
		return nil, err
	}

	redirects, err := meter.Int64Counter(
		"link_redirects_total",
		metric.WithDescription("Redirect requests by result."),
	)
	if err != nil {
		return nil, err
	}

	rateLimited, err := meter.Int64Counter(
		"rate_limit_rejections_total",
		metric.WithDescription("Requests rejected by admission control, by route class."),
	)
	if err != nil {
		return nil, err
	}

	latency, err := meter.Float64Histogram(
		"link_redirect_duration_seconds",
		metric.WithDescription("Time to resolve a redirect."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		cacheLookups: cacheLookups,
		redirects:    redirects,
		rateLimited:  rateLimited,
		latency:      latency,
	}, nil
}

// ProvideMetrics creates Metrics on the process meter provider.
func ProvideMetrics(mp *sdkmetric.MeterProvider) (biz.Metrics, error) {
	return NewMetrics(mp.Meter(instrumentationName))
}

var (
	resultHit    = metric.WithAttributes(attribute.String("result", "hit"))
	resultMiss   = metric.WithAttributes(attribute.String("result", "miss"))
	resultIssued = metric.WithAttributes(attribute.String("result", "issued"))
	resultFailed = metric.WithAttributes(attribute.String("result", "failed"))
)

func (m *Metrics) CacheHit(ctx context.Context) {
	m.cacheLookups.Add(ctx, 1, resultHit)
}

func (m *Metrics) CacheMiss(ctx context.Context) {
	m.cacheLookups.Add(ctx, 1, resultMiss)
}

func (m *Metrics) RedirectIssued(ctx context.Context) {
	m.redirects.Add(ctx, 1, resultIssued)
}

func (m *Metrics) RedirectFailed(ctx context.Context) {
	m.redirects.Add(ctx, 1, resultFailed)
}

func (m *Metrics) RateLimited(ctx context.Context, class string) {
	m.rateLimited.Add(ctx, 1, metric.WithAttributes(attribute.String("route_class", class)))
}

func (m *Metrics) RedirectLatency(ctx context.Context, d time.Duration) {
	m.latency.Record(ctx, d.Seconds())
}
