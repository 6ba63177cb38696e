package redis

import (
	"context"
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/edscope/edscope/internal/domain/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTENT CACHE
// ══════════════════════════════════════════════════════════════════════════════

// IntentCache stores refined intents keyed by a digest of the question
// text. Two admins asking the same question share an entry: refinement
// only interprets the question, scope is applied downstream at compile
// time.
type IntentCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewIntentCache creates an IntentCache backed by the given cache client.
// A non-positive ttl falls back to TTLIntentCache.
func NewIntentCache(cache *Cache, ttl time.Duration) *IntentCache {
	if ttl <= 0 {
		ttl = TTLIntentCache
	}
	return &IntentCache{
		cache: cache,
		ttl:   ttl,
	}
}

// Get returns the cached refined intent for a question, if present.
// The second return value reports whether the entry was found; cache
// backend failures are returned as errors so the caller can fall
// through to the refiner.
func (ic *IntentCache) Get(ctx context.Context, question string, now time.Time) (query.Intent, bool, error) {
	var intent query.Intent
	err := ic.cache.Get(ctx, intentKey(question, now), &intent)
	if err != nil {
		if err == ErrCacheMiss {
			return query.Intent{}, false, nil
		}
		return query.Intent{}, false, err
	}
	return intent, true, nil
}

// Set stores a refined intent for a question.
func (ic *IntentCache) Set(ctx context.Context, question string, now time.Time, intent query.Intent) error {
	return ic.cache.Set(ctx, intentKey(question, now), intent, ic.ttl)
}

// Invalidate removes all cached intents.
func (ic *IntentCache) Invalidate(ctx context.Context) error {
	return ic.cache.DeleteByPattern(ctx, PrefixIntent+"*")
}

// intentKey derives the cache key for a question. The digest covers
// the normalized question text and the civil date of "now", because
// phrases like "last week" resolve differently on different days.
func intentKey(question string, now time.Time) string {
	normalized := strings.ToLower(strings.TrimSpace(question))
	day := now.UTC().Format("2006-01-02")

	sum := blake2b.Sum256([]byte(normalized + "|" + day))
	return PrefixIntent + hex.EncodeToString(sum[:16])
}
