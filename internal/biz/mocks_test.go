package biz

import (
	"context"
	"sort"
	"sync"
	"time"

	"link-shortener/internal/domain"
	"link-shortener/internal/domain/event"
)

type mockLinkRepo struct {
	mu    sync.Mutex
	links map[string]*domain.Link

	insertErr error
	findErr   error
	sweepErr  error
	incrErr   error

	findCalls int
	clicks    map[string]int64
}

func newMockLinkRepo() *mockLinkRepo {
	return &mockLinkRepo{
		links:  make(map[string]*domain.Link),
		clicks: make(map[string]int64),
	}
}

func (m *mockLinkRepo) Insert(_ context.Context, link *domain.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, ok := m.links[link.ShortCode().String()]; ok {
		return domain.ErrAliasInUse
	}
	m.links[link.ShortCode().String()] = link
	return nil
}

func (m *mockLinkRepo) FindByCode(_ context.Context, code domain.ShortCode) (*domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.links[code.String()], nil
}

func (m *mockLinkRepo) SoftDisable(_ context.Context, code domain.ShortCode, tenantID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[code.String()]
	if !ok || l.TenantID() != tenantID || l.Status() != domain.LinkStatusActive {
		return false, nil
	}
	m.links[code.String()] = m.withStatus(l, domain.LinkStatusDisabled)
	return true, nil
}

func (m *mockLinkRepo) IncrementClicks(_ context.Context, code domain.ShortCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incrErr != nil {
		return m.incrErr
	}
	m.clicks[code.String()]++
	return nil
}

func (m *mockLinkRepo) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sweepErr != nil {
		return 0, m.sweepErr
	}
	var n int64
	for code, l := range m.links {
		if l.Status() == domain.LinkStatusActive && l.ExpiresAt() != nil && l.ExpiresAt().Before(now) {
			m.links[code] = m.withStatus(l, domain.LinkStatusExpired)
			n++
		}
	}
	return n, nil
}

func (m *mockLinkRepo) ListByTenant(_ context.Context, tenantID string, page, pageSize int) ([]*domain.Link, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*domain.Link
	for _, l := range m.links {
		if l.TenantID() == tenantID {
			all = append(all, l)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ShortCode().String() < all[j].ShortCode().String() })

	start := (page - 1) * pageSize
	if start >= len(all) {
		return []*domain.Link{}, len(all), nil
	}
	end := min(start+pageSize, len(all))
	return all[start:end], len(all), nil
}

func (m *mockLinkRepo) withStatus(l *domain.Link, status domain.LinkStatus) *domain.Link {
	return domain.ReconstructLink(l.ID(), l.TenantID(), l.ShortCode(), l.Destination(), status,
		l.ClickCount(), l.ExpiresAt(), l.CreatedAt(), l.UpdatedAt())
}

func (m *mockLinkRepo) get(code string) *domain.Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.links[code]
}

func (m *mockLinkRepo) clicksFor(code string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clicks[code]
}

type mockIdempotencyRepo struct {
	mu      sync.Mutex
	records map[string]*domain.IdempotencyRecord

	findErr   error
	createErr error
	// hidden makes Find miss until the first CreateIfAbsent, simulating a
	// concurrent writer that recorded its outcome after our lookup.
	hidden bool
}

func newMockIdempotencyRepo() *mockIdempotencyRepo {
	return &mockIdempotencyRepo{records: make(map[string]*domain.IdempotencyRecord)}
}

func (m *mockIdempotencyRepo) Find(_ context.Context, tenantID, token string) (*domain.IdempotencyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.hidden {
		return nil, nil
	}
	return m.records[tenantID+"/"+token], nil
}

func (m *mockIdempotencyRepo) CreateIfAbsent(_ context.Context, rec *domain.IdempotencyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hidden = false
	if m.createErr != nil {
		return m.createErr
	}
	key := rec.TenantID + "/" + rec.Token
	if _, ok := m.records[key]; ok {
		return domain.ErrIdempotencyRecordExists
	}
	m.records[key] = rec
	return nil
}

func (m *mockIdempotencyRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type fakeTxKey struct{}

type fakeTx struct {
	hooks []func(ctx context.Context)
}

// fakeUnitOfWork runs functions directly and fires after-commit hooks only
// when the outermost function succeeds.
type fakeUnitOfWork struct {
	mu        sync.Mutex
	commits   int
	rollbacks int
}

func (u *fakeUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(fakeTxKey{}).(*fakeTx); ok {
		return fn(ctx)
	}

	tx := &fakeTx{}
	if err := fn(context.WithValue(ctx, fakeTxKey{}, tx)); err != nil {
		u.mu.Lock()
		u.rollbacks++
		u.mu.Unlock()
		return err
	}

	u.mu.Lock()
	u.commits++
	u.mu.Unlock()
	for _, hook := range tx.hooks {
		hook(ctx)
	}
	return nil
}

func (u *fakeUnitOfWork) AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if tx, ok := ctx.Value(fakeTxKey{}).(*fakeTx); ok {
		tx.hooks = append(tx.hooks, fn)
		return
	}
	fn(ctx)
}

// memoryLinkCache expires entries against its clock, like the real substrate.
type memoryLinkCache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]*domain.CachedLink
	expires map[string]time.Time
	ttls    map[string]time.Duration
	deletes []string
}

func newMemoryLinkCache() *memoryLinkCache {
	return &memoryLinkCache{
		now:     time.Now,
		entries: make(map[string]*domain.CachedLink),
		expires: make(map[string]time.Time),
		ttls:    make(map[string]time.Duration),
	}
}

func (c *memoryLinkCache) Get(_ context.Context, code domain.ShortCode) *domain.CachedLink {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.liveLocked(code.String()) {
		return nil
	}
	return c.entries[code.String()]
}

func (c *memoryLinkCache) Set(_ context.Context, code domain.ShortCode, entry *domain.CachedLink, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ttl <= 0 {
		return
	}
	c.entries[code.String()] = entry
	c.expires[code.String()] = c.now().Add(ttl)
	c.ttls[code.String()] = ttl
}

func (c *memoryLinkCache) Delete(_ context.Context, code domain.ShortCode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, code.String())
	delete(c.expires, code.String())
	c.deletes = append(c.deletes, code.String())
}

func (c *memoryLinkCache) has(code string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.liveLocked(code)
}

func (c *memoryLinkCache) liveLocked(code string) bool {
	if _, ok := c.entries[code]; !ok {
		return false
	}
	if c.now().Before(c.expires[code]) {
		return true
	}
	delete(c.entries, code)
	delete(c.expires, code)
	return false
}

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: make(map[string]int64)}
}

func (c *fakeCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	c.counts[key]++
	return c.counts[key], nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, e := range p.events {
		names = append(names, e.EventName())
	}
	return names
}

type recordingMetrics struct {
	mu          sync.Mutex
	hits        int
	misses      int
	issued      int
	failed      int
	rateLimited map[string]int
	latencies   int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{rateLimited: make(map[string]int)}
}

func (m *recordingMetrics) CacheHit(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits++
}

func (m *recordingMetrics) CacheMiss(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.misses++
}

func (m *recordingMetrics) RedirectIssued(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issued++
}

func (m *recordingMetrics) RedirectFailed(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed++
}

func (m *recordingMetrics) RedirectLatency(context.Context, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies++
}

func (m *recordingMetrics) RateLimited(_ context.Context, class string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimited[class]++
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// gatedIdempotencyRepo holds the first n lookups until all n have arrived, so
// that every caller misses the ledger before any of them records an outcome.
type gatedIdempotencyRepo struct {
	domain.IdempotencyRepository

	mu      sync.Mutex
	pending int
	arrived sync.WaitGroup
}

func newGatedIdempotencyRepo(inner domain.IdempotencyRepository, n int) *gatedIdempotencyRepo {
	g := &gatedIdempotencyRepo{IdempotencyRepository: inner, pending: n}
	g.arrived.Add(n)
	return g
}

func (g *gatedIdempotencyRepo) Find(ctx context.Context, tenantID, token string) (*domain.IdempotencyRecord, error) {
	rec, err := g.IdempotencyRepository.Find(ctx, tenantID, token)

	g.mu.Lock()
	gate := g.pending > 0
	if gate {
		g.pending--
	}
	g.mu.Unlock()

	if gate {
		g.arrived.Done()
		g.arrived.Wait()
	}
	return rec, err
}
