package biz

import (
	"context"
	"time"

	"link-shortener/internal/conf"
	"link-shortener/internal/domain"
	"link-shortener/internal/domain/event"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/sync/singleflight"
)

// ResolutionUsecase serves the redirect path: cache, then store, then
// admission, then an asynchronous click.
type ResolutionUsecase struct {
	links   domain.LinkRepository
	cache   domain.LinkCache
	limiter *RateLimiter
	events  EventPublisher
	metrics Metrics
	ttl     time.Duration
	group   singleflight.Group
	log     *log.Helper
	now     func() time.Time
}

// NewResolutionUsecase creates a new ResolutionUsecase.
func NewResolutionUsecase(
	links domain.LinkRepository,
	cache domain.LinkCache,
	limiter *RateLimiter,
	events EventPublisher,
	metrics Metrics,
	c *conf.Shortener,
	logger log.Logger,
) *ResolutionUsecase {
	ttl := DefaultCacheTTL
	if c != nil && c.CacheTTL.AsDuration() > 0 {
		ttl = c.CacheTTL.AsDuration()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &ResolutionUsecase{
		links:   links,
		cache:   cache,
		limiter: limiter,
		events:  events,
		metrics: metrics,
		ttl:     ttl,
		log:     log.NewHelper(logger),
		now:     time.Now,
	}
}

// Resolve returns the destination for rawCode. Absent, disabled and expired
// links fail alike with domain.ErrLinkNotFound.
func (uc *ResolutionUsecase) Resolve(ctx context.Context, rawCode string) (string, error) {
	defer func(start time.Time) {
		uc.metrics.RedirectLatency(ctx, time.Since(start))
	}(time.Now())

	code, err := domain.NewShortCode(rawCode)
	if err != nil {
		uc.metrics.RedirectFailed(ctx)
		return "", domain.ErrLinkNotFound
	}

	now := uc.now()

	entry := uc.cache.Get(ctx, code)
	if entry != nil {
		uc.metrics.CacheHit(ctx)
		if entry.IsExpiredAt(now) {
			uc.metrics.RedirectFailed(ctx)
			return "", domain.ErrLinkNotFound
		}
	} else {
		uc.metrics.CacheMiss(ctx)
		entry, err = uc.load(ctx, code, now)
		if err != nil {
			uc.metrics.RedirectFailed(ctx)
			return "", err
		}
	}

	if err := uc.limiter.Allow(ctx, entry.TenantID, RouteRedirect); err != nil {
		uc.metrics.RedirectFailed(ctx)
		return "", err
	}

	uc.recordClick(ctx, code, entry.TenantID)
	uc.metrics.RedirectIssued(ctx)

	return entry.Destination, nil
}

// load reads the link from the store and repopulates the cache. Concurrent
// misses for the same code share one store read.
func (uc *ResolutionUsecase) load(ctx context.Context, code domain.ShortCode, now time.Time) (*domain.CachedLink, error) {
	v, err, _ := uc.group.Do(code.String(), func() (any, error) {
		ctx := context.WithoutCancel(ctx)

		link, err := uc.links.FindByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if link == nil {
			return nil, domain.ErrLinkNotFound
		}
		if err := link.CanResolve(now); err != nil {
			return nil, err
		}

		entry := &domain.CachedLink{
			Destination: link.Destination().String(),
			TenantID:    link.TenantID(),
			ExpiresAt:   link.ExpiresAt(),
		}
		uc.cache.Set(ctx, code, entry, link.CacheTTL(now, uc.ttl))
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.CachedLink), nil
}

// recordClick publishes the click for asynchronous counting. Lost clicks are
// acceptable.
func (uc *ResolutionUsecase) recordClick(ctx context.Context, code domain.ShortCode, tenantID string) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Publish(ctx, event.NewLinkClicked(code.String(), tenantID)); err != nil {
		uc.log.WithContext(ctx).Warnf("failed to publish click for %s: %v", code, err)
	}
}
