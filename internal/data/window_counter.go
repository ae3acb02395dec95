package data

import (
	"context"
	"time"

	"link-shortener/internal/domain"
)

// Compile-time interface check
var _ domain.WindowCounter = (*windowCounter)(nil)

type windowCounter struct {
	sub Substrate
}

// NewWindowCounter creates the fixed window counter used for admission control.
func NewWindowCounter(sub Substrate) domain.WindowCounter {
	return &windowCounter{sub: sub}
}

// Incr increments the window key.
func (w *windowCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return w.sub.IncrWithExpire(ctx, key, ttl)
}
