package benchmark

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"insider-risk-index/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// cacheEntry is what CachedStore keeps per cohort. A nil Snapshot records
// that the store had nothing in [From, To], so repeated misses do not reach
// Postgres.
type cacheEntry struct {
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
}

// covers reports whether the entry answers a lookup over [from, to]. A
// cached snapshot must lie inside the requested range. A cached miss only
// holds when the range starts no earlier than the one searched; snapshots
// written after it was cached drop the entry through Invalidate.
func (e cacheEntry) covers(from, to time.Time) bool {
	if e.Snapshot != nil {
		return !e.Snapshot.PeriodEnd.Before(from) && !e.Snapshot.PeriodEnd.After(to)
	}
	return !from.Before(e.From)
}

// CachedStore puts a Redis cache-aside layer in front of another Store.
// Redis failures are logged and fall through to the wrapped store.
type CachedStore struct {
	next   Store
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedStore(next Store, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedStore {
	return &CachedStore{
		next:   next,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "benchmark-cache"}),
	}
}

// FindSnapshot serves a cached entry when it satisfies the requested window
// and otherwise reads through to the wrapped store.
func (c *CachedStore) FindSnapshot(ctx context.Context, f Filter, asOf time.Time, window time.Duration) (*Snapshot, error) {
	key := f.Key()
	from := asOf.Add(-window)

	val, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var entry cacheEntry
		if jsonErr := json.Unmarshal(val, &entry); jsonErr != nil {
			c.logger.Warn("discarding undecodable cached snapshot", map[string]interface{}{"key": key})
			break
		}
		if entry.covers(from, asOf) {
			return entry.Snapshot, nil
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("snapshot cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	snap, err := c.next.FindSnapshot(ctx, f, asOf, window)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(cacheEntry{Snapshot: snap, From: from.UTC(), To: asOf.UTC()})
	if err != nil {
		return snap, nil
	}
	if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("snapshot cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
	return snap, nil
}

// Invalidate drops the cached entries of the given cohorts.
func (c *CachedStore) Invalidate(ctx context.Context, filters ...Filter) error {
	if len(filters) == 0 {
		return nil
	}
	keys := make([]string, 0, len(filters))
	for _, f := range filters {
		keys = append(keys, f.Key())
	}
	return c.redis.Del(ctx, keys...).Err()
}
