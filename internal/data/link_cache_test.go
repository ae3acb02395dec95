package data

import (
	"context"
	"errors"
	"testing"
	"time"

	"link-shortener/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenSubstrate fails every call.
type brokenSubstrate struct{}

var errBackendDown = errors.New("backend down")

func (brokenSubstrate) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errBackendDown
}

func (brokenSubstrate) Set(context.Context, string, []byte, time.Duration) error {
	return errBackendDown
}

func (brokenSubstrate) Del(context.Context, string) error {
	return errBackendDown
}

func (brokenSubstrate) IncrWithExpire(context.Context, string, time.Duration) (int64, error) {
	return 0, errBackendDown
}

func TestLinkCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	sub := NewMemorySubstrate(nil)
	cache := NewLinkCache(sub, log.DefaultLogger)
	code := mustCode(t, "abc1234")
	exp := time.Now().UTC().Add(time.Hour).Truncate(time.Second)

	assert.Nil(t, cache.Get(ctx, code))

	cache.Set(ctx, code, &domain.CachedLink{Destination: "https://example.com", TenantID: "t1", ExpiresAt: &exp}, time.Minute)

	got := cache.Get(ctx, code)
	require.NotNil(t, got)
	assert.Equal(t, "https://example.com", got.Destination)
	assert.Equal(t, "t1", got.TenantID)
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, exp.Equal(*got.ExpiresAt))

	raw, ok, err := sub.Get(ctx, "link:abc1234")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"destination":"https://example.com","tenant_id":"t1","expires_at":"`+exp.Format(time.RFC3339)+`"}`, string(raw))

	cache.Delete(ctx, code)
	assert.Nil(t, cache.Get(ctx, code))
}

func TestLinkCache_NonPositiveTTLSkipped(t *testing.T) {
	ctx := context.Background()
	cache := NewLinkCache(NewMemorySubstrate(nil), log.DefaultLogger)
	code := mustCode(t, "abc1234")

	cache.Set(ctx, code, &domain.CachedLink{Destination: "https://example.com", TenantID: "t1"}, 0)
	assert.Nil(t, cache.Get(ctx, code))
}

func TestLinkCache_Expires(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	cache := NewLinkCache(NewMemorySubstrate(clock.Now), log.DefaultLogger)
	code := mustCode(t, "abc1234")

	cache.Set(ctx, code, &domain.CachedLink{Destination: "https://example.com", TenantID: "t1"}, time.Minute)
	clock.Advance(time.Minute)
	assert.Nil(t, cache.Get(ctx, code))
}

func TestLinkCache_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	sub := NewMemorySubstrate(nil)
	cache := NewLinkCache(sub, log.DefaultLogger)

	require.NoError(t, sub.Set(ctx, "link:abc1234", []byte("not-json"), time.Minute))
	assert.Nil(t, cache.Get(ctx, mustCode(t, "abc1234")))
}

func TestLinkCache_BackendFailureDegrades(t *testing.T) {
	ctx := context.Background()
	cache := NewLinkCache(brokenSubstrate{}, log.DefaultLogger)
	code := mustCode(t, "abc1234")

	assert.NotPanics(t, func() {
		cache.Set(ctx, code, &domain.CachedLink{Destination: "https://example.com", TenantID: "t1"}, time.Minute)
		cache.Delete(ctx, code)
	})
	assert.Nil(t, cache.Get(ctx, code))
}
