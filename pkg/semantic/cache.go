package semantic

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedScanner wraps a Scanner with a redis verdict cache keyed by content
// hash, so repeated high-risk inputs (retry storms, copy-pasted attacks)
// skip the remote call. Degraded verdicts are never cached. Redis being down
// just means every scan goes to the inner backend.
type CachedScanner struct {
	inner Scanner
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachedScanner wraps inner with a verdict cache.
func NewCachedScanner(inner Scanner, rdb *redis.Client, ttl time.Duration) *CachedScanner {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedScanner{inner: inner, rdb: rdb, ttl: ttl}
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "bulwark:verdict:" + hex.EncodeToString(sum[:])
}

// Scan checks the cache, falling through to the inner scanner on a miss.
func (c *CachedScanner) Scan(ctx context.Context, text string) Verdict {
	key := cacheKey(Clip(text))

	if data, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var v Verdict
		if json.Unmarshal(data, &v) == nil {
			return v
		}
	}

	v := c.inner.Scan(ctx, text)
	if v.Degraded() {
		return v
	}

	if data, err := json.Marshal(v); err == nil {
		// best effort; a failed set is just a future cache miss
		c.rdb.Set(ctx, key, data, c.ttl)
	}
	return v
}
