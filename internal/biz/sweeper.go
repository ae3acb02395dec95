package biz

import (
	"context"
	"sync"
	"time"

	"link-shortener/internal/conf"
	"link-shortener/internal/domain"
	"link-shortener/internal/domain/event"

	"github.com/go-kratos/kratos/v2/log"
)

// sweepTimeout bounds a single sweep cycle.
const sweepTimeout = time.Minute

// Sweeper periodically transitions active links past their expiry to expired.
// It never touches the cache; cached entries carry their own expiry.
type Sweeper struct {
	links    domain.LinkRepository
	events   EventPublisher
	interval time.Duration
	log      *log.Helper
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweeper creates a new Sweeper.
func NewSweeper(links domain.LinkRepository, events EventPublisher, c *conf.Shortener, logger log.Logger) *Sweeper {
	interval := DefaultSweepInterval
	if c != nil && c.SweepInterval.AsDuration() > 0 {
		interval = c.SweepInterval.AsDuration()
	}
	return &Sweeper{
		links:    links,
		events:   events,
		interval: interval,
		log:      log.NewHelper(logger),
		now:      time.Now,
	}
}

// Start sweeps once immediately, then on every tick until Stop is called or
// ctx is done.
func (s *Sweeper) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run()
	s.log.Infof("expiry sweeper started, interval %s", s.interval)
}

// Stop stops the sweeper and waits for an in-flight cycle to finish.
func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.log.Info("expiry sweeper stopped")
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	// Links that expired while the service was down are swept at startup.
	s.cycle()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.cycle()
		}
	}
}

// cycle runs one bounded sweep. A cycle that has started runs to completion
// even if Stop is called.
func (s *Sweeper) cycle() {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), sweepTimeout)
	defer cancel()
	_, _ = s.RunOnce(ctx)
}

// RunOnce executes one sweep cycle. Errors are logged and returned; they
// never stop the loop.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	now := s.now().UTC()

	n, err := s.links.SweepExpired(ctx, now)
	if err != nil {
		s.log.WithContext(ctx).Errorf("sweep expired links failed: %v", err)
		return 0, err
	}

	s.log.WithContext(ctx).Infof("expired %d links", n)
	if n > 0 && s.events != nil {
		if err := s.events.Publish(ctx, event.NewLinksExpired(n, now)); err != nil {
			s.log.WithContext(ctx).Warnf("failed to publish %s: %v", event.NameLinksExpired, err)
		}
	}
	return n, nil
}
