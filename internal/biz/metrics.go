package biz

import (
	"context"
	"time"
)

// Metrics receives the counters of the redirect and admission paths.
// Export is owned by the implementation.
type Metrics interface {
	CacheHit(ctx context.Context)
	CacheMiss(ctx context.Context)
	RedirectIssued(ctx context.Context)
	RedirectFailed(ctx context.Context)
	RateLimited(ctx context.Context, class string)
	RedirectLatency(ctx context.Context, d time.Duration)
}

type nopMetrics struct{}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }

func (nopMetrics) CacheHit(context.Context)                       {}
func (nopMetrics) CacheMiss(context.Context)                      {}
func (nopMetrics) RedirectIssued(context.Context)                 {}
func (nopMetrics) RedirectFailed(context.Context)                 {}
func (nopMetrics) RateLimited(context.Context, string)            {}
func (nopMetrics) RedirectLatency(context.Context, time.Duration) {}
