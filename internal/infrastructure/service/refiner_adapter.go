package service

import (
	"context"
	"log/slog"
	"time"

	redisCache "github.com/edscope/edscope/internal/infrastructure/persistence/redis"

	"github.com/edscope/edscope/internal/domain/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// CACHING REFINER
// ══════════════════════════════════════════════════════════════════════════════

// CachingRefiner decorates a refiner with a Redis-backed intent cache.
// Cache failures are logged and treated as misses so the wrapped
// refiner still gets a chance to answer.
type CachingRefiner struct {
	inner  query.Refiner
	cache  *redisCache.IntentCache
	logger *slog.Logger
}

// NewCachingRefiner wraps inner with the given intent cache.
func NewCachingRefiner(inner query.Refiner, cache *redisCache.IntentCache, logger *slog.Logger) *CachingRefiner {
	return &CachingRefiner{
		inner:  inner,
		cache:  cache,
		logger: logger.With(slog.String("component", "caching_refiner")),
	}
}

// Refine implements query.Refiner. The cache key includes the
// reference date, so the same question asked against different days
// never shares an entry.
func (r *CachingRefiner) Refine(ctx context.Context, question string, seed query.Intent, now time.Time) (query.Intent, error) {
	if now.IsZero() {
		now = time.Now()
	}

	cached, found, err := r.cache.Get(ctx, question, now)
	if err != nil {
		r.logger.Warn("intent cache lookup failed", slog.String("error", err.Error()))
	} else if found {
		r.logger.Debug("intent cache hit")
		return cached, nil
	}

	refined, err := r.inner.Refine(ctx, question, seed, now)
	if err != nil {
		return query.Intent{}, err
	}

	if err := r.cache.Set(ctx, question, now, refined); err != nil {
		r.logger.Warn("intent cache store failed", slog.String("error", err.Error()))
	}

	return refined, nil
}
