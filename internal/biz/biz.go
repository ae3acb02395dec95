package biz

import (
	"time"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewCodeGenerator,
	NewRateLimiter,
	NewCoordinator,
	NewMutationUsecase,
	NewResolutionUsecase,
	NewSweeper,
	NewClickEventHandler,
)

// DefaultCacheTTL bounds how long a resolution may be served from cache.
const DefaultCacheTTL = 24 * time.Hour

// DefaultSweepInterval is how often expired links are transitioned.
const DefaultSweepInterval = time.Hour
