package biz

import (
	"context"
	"errors"
	"testing"
	"time"

	"link-shortener/internal/conf"
	"link-shortener/internal/domain"
	"link-shortener/internal/domain/event"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolutionFixture struct {
	uc        *ResolutionUsecase
	mutations *MutationUsecase
	links     *mockLinkRepo
	cache     *memoryLinkCache
	publisher *recordingPublisher
	metrics   *recordingMetrics
	clock     *fakeClock
}

func newResolutionFixture(c *conf.Shortener) *resolutionFixture {
	f := &resolutionFixture{
		links:     newMockLinkRepo(),
		cache:     newMemoryLinkCache(),
		publisher: &recordingPublisher{},
		metrics:   newRecordingMetrics(),
		clock:     newFakeClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)),
	}
	f.cache.now = f.clock.Now
	limiter := newTestLimiter(newFakeCounter(), c, f.metrics, f.clock)
	f.uc = NewResolutionUsecase(f.links, f.cache, limiter, f.publisher, f.metrics, c, log.DefaultLogger)
	f.uc.now = f.clock.Now
	f.mutations = NewMutationUsecase(f.links, f.cache, &fakeUnitOfWork{}, NewCodeGenerator(nil), f.publisher, log.DefaultLogger)
	f.mutations.now = f.clock.Now
	return f
}

func (f *resolutionFixture) create(t *testing.T, tenantID, alias string, ttl *time.Duration) {
	t.Helper()
	_, err := f.mutations.Create(context.Background(), CreateLinkInput{
		TenantID:    tenantID,
		Destination: "https://example.com/" + alias,
		Alias:       alias,
		TTL:         ttl,
	})
	require.NoError(t, err)
}

func (f *resolutionFixture) clicks() int {
	n := 0
	for _, name := range f.publisher.names() {
		if name == event.NameLinkClicked {
			n++
		}
	}
	return n
}

func TestResolutionUsecase_MissThenHit(t *testing.T) {
	ctx := context.Background()
	f := newResolutionFixture(nil)
	f.create(t, "tenant-a", "docs", nil)

	dest, err := f.uc.Resolve(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/docs", dest)
	assert.True(t, f.cache.has("docs"))
	assert.Equal(t, DefaultCacheTTL, f.cache.ttls["docs"])

	dest, err = f.uc.Resolve(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/docs", dest)

	assert.Equal(t, 1, f.links.findCalls)
	assert.Equal(t, 1, f.metrics.misses)
	assert.Equal(t, 1, f.metrics.hits)
	assert.Equal(t, 2, f.metrics.issued)
	assert.Equal(t, 2, f.clicks())
	assert.Equal(t, 2, f.metrics.latencies)
}

func TestResolutionUsecase_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newResolutionFixture(nil)

	_, err := f.uc.Resolve(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)

	_, err = f.uc.Resolve(ctx, "not/valid")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)

	assert.Equal(t, 1, f.links.findCalls, "invalid codes never reach the store")
	assert.Equal(t, 2, f.metrics.failed)
	assert.Zero(t, f.clicks())
	assert.False(t, f.cache.has("missing"))
}

func TestResolutionUsecase_DisabledIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newResolutionFixture(nil)
	f.create(t, "tenant-a", "gone", nil)

	_, err := f.uc.Resolve(ctx, "gone")
	require.NoError(t, err)

	require.NoError(t, f.mutations.Disable(ctx, "tenant-a", "gone"))

	_, err = f.uc.Resolve(ctx, "gone")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
	assert.False(t, f.cache.has("gone"), "disabled links are never cached")
}

func TestResolutionUsecase_ExpiredBeforeSweep(t *testing.T) {
	ctx := context.Background()
	f := newResolutionFixture(nil)
	f.create(t, "tenant-a", "flash", durationPtr(10*time.Minute))

	_, err := f.uc.Resolve(ctx, "flash")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, f.cache.ttls["flash"], "cache ttl is capped by the remaining lifetime")

	f.clock.Advance(10 * time.Minute)

	// the cache entry lapses with the link; the store copy is still active
	// but past expiry
	assert.False(t, f.cache.has("flash"))
	assert.Equal(t, domain.LinkStatusActive, f.links.get("flash").Status())

	_, err = f.uc.Resolve(ctx, "flash")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)

	// a cached entry that outlives its link's expiry is still refused
	code, _ := domain.NewShortCode("flash")
	expired := f.clock.Now().Add(-time.Second)
	f.cache.Set(ctx, code, &domain.CachedLink{
		Destination: "https://example.com/flash",
		TenantID:    "tenant-a",
		ExpiresAt:   &expired,
	}, time.Hour)

	_, err = f.uc.Resolve(ctx, "flash")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
}

func TestResolutionUsecase_StaleWithoutInvalidation(t *testing.T) {
	ctx := context.Background()
	f := newResolutionFixture(&conf.Shortener{CacheTTL: conf.Duration{Duration: time.Minute}})
	f.create(t, "tenant-a", "stale", nil)

	_, err := f.uc.Resolve(ctx, "stale")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, f.cache.ttls["stale"])

	// a store change that bypasses invalidation is served from cache
	// until the entry's ttl lapses
	code, _ := domain.NewShortCode("stale")
	ok, err := f.links.SoftDisable(ctx, code, "tenant-a")
	require.NoError(t, err)
	require.True(t, ok)

	f.clock.Advance(time.Minute - time.Second)
	dest, err := f.uc.Resolve(ctx, "stale")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/stale", dest)

	// once the ttl elapses the store's disabled state is observed
	f.clock.Advance(time.Second)
	_, err = f.uc.Resolve(ctx, "stale")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
	assert.False(t, f.cache.has("stale"))
}

func TestResolutionUsecase_RateLimitedByOwner(t *testing.T) {
	ctx := context.Background()
	c := &conf.Shortener{Limits: &conf.Limits{
		Redirect: &conf.Limit{Requests: 2, Window: conf.Duration{Duration: time.Minute}},
	}}
	f := newResolutionFixture(c)
	f.create(t, "tenant-a", "hot", nil)
	f.create(t, "tenant-b", "cold", nil)

	for i := 0; i < 2; i++ {
		_, err := f.uc.Resolve(ctx, "hot")
		require.NoError(t, err)
	}

	_, err := f.uc.Resolve(ctx, "hot")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 1, f.metrics.rateLimited["redirect"])
	assert.Equal(t, 2, f.clicks(), "rejected redirects are not counted")

	_, err = f.uc.Resolve(ctx, "cold")
	assert.NoError(t, err, "another tenant's budget is unaffected")
}

func TestResolutionUsecase_StoreFailure(t *testing.T) {
	ctx := context.Background()
	f := newResolutionFixture(nil)
	f.create(t, "tenant-a", "flaky", nil)
	f.links.findErr = errors.New("db down")

	_, err := f.uc.Resolve(ctx, "flaky")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrLinkNotFound)
	assert.False(t, f.cache.has("flaky"))
}

func TestResolutionUsecase_ClickPublishFailureStillRedirects(t *testing.T) {
	ctx := context.Background()
	f := newResolutionFixture(nil)
	f.create(t, "tenant-a", "ok", nil)
	f.publisher.err = errors.New("bus closed")

	dest, err := f.uc.Resolve(ctx, "ok")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/ok", dest)
}
