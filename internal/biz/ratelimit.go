package biz

import (
	"context"
	"fmt"
	"time"

	"link-shortener/internal/conf"
	"link-shortener/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

// RouteClass partitions admission control so one kind of traffic cannot
// starve another.
type RouteClass string

const (
	RouteCreate   RouteClass = "create"
	RouteDelete   RouteClass = "delete"
	RouteRedirect RouteClass = "redirect"
)

// Limit is the number of requests admitted per fixed window.
type Limit struct {
	Requests int64
	Window   time.Duration
}

// DefaultLimits returns the built-in budget for each route class.
func DefaultLimits() map[RouteClass]Limit {
	return map[RouteClass]Limit{
		RouteCreate:   {Requests: 5, Window: time.Minute},
		RouteDelete:   {Requests: 30, Window: time.Minute},
		RouteRedirect: {Requests: 100, Window: time.Minute},
	}
}

// RateLimiter is a fixed window limiter over a shared counter. Windows are
// aligned to the wall clock.
type RateLimiter struct {
	counter domain.WindowCounter
	limits  map[RouteClass]Limit
	metrics Metrics
	log     *log.Helper
	now     func() time.Time
}

// NewRateLimiter creates a RateLimiter, overriding the defaults with any
// configured limits.
func NewRateLimiter(counter domain.WindowCounter, c *conf.Shortener, metrics Metrics, logger log.Logger) *RateLimiter {
	limits := DefaultLimits()
	if c != nil && c.Limits != nil {
		override(limits, RouteCreate, c.Limits.Create)
		override(limits, RouteDelete, c.Limits.Delete)
		override(limits, RouteRedirect, c.Limits.Redirect)
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &RateLimiter{
		counter: counter,
		limits:  limits,
		metrics: metrics,
		log:     log.NewHelper(logger),
		now:     time.Now,
	}
}

func override(limits map[RouteClass]Limit, class RouteClass, l *conf.Limit) {
	if l == nil || l.Requests <= 0 || l.Window.AsDuration() <= 0 {
		return
	}
	limits[class] = Limit{Requests: l.Requests, Window: l.Window.AsDuration()}
}

// Limit returns the budget for class.
func (l *RateLimiter) Limit(class RouteClass) (Limit, bool) {
	limit, ok := l.limits[class]
	return limit, ok
}

// WindowKey returns the counter key for tenantID and class at now.
func WindowKey(tenantID string, class RouteClass, now time.Time, window time.Duration) string {
	return fmt.Sprintf("rate:%s:%s:%d", tenantID, class, now.UnixNano()/int64(window))
}

// Allow records one hit for (tenantID, class) and returns domain.ErrRateLimited
// once the window's budget is spent. Counter failures admit the request.
func (l *RateLimiter) Allow(ctx context.Context, tenantID string, class RouteClass) error {
	limit, ok := l.limits[class]
	if !ok {
		return nil
	}

	key := WindowKey(tenantID, class, l.now(), limit.Window)
	count, err := l.counter.Incr(ctx, key, limit.Window)
	if err != nil {
		l.log.WithContext(ctx).Warnf("rate limit counter unavailable, admitting %s: %v", key, err)
		return nil
	}

	if count > limit.Requests {
		l.metrics.RateLimited(ctx, string(class))
		return domain.ErrRateLimited
	}
	return nil
}
