package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"lairn-cli/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// HistorySource fetches summaries and session pages from the backend.
type HistorySource interface {
	SessionSummary(ctx context.Context, sessionID string) (domain.Summary, error)
	ListSessions(ctx context.Context, limit, offset int) (domain.SessionPage, error)
}

// HistoryCache caches summaries and history pages in Redis as JSON values
// with TTL, so cached reads survive client restarts and can be shared
// between invocations. Entries are stored as:
//
//	SET lairn:summary:{sessionID} {json}
//	SET lairn:sessions:{limit}:{offset} {json}
//
// Every cached key is tracked in the lairn:history:keys set so Invalidate
// can drop them all.
type HistoryCache struct {
	client *redis.Client
	source HistorySource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewHistoryCache(client *redis.Client, source HistorySource, ttl time.Duration) *HistoryCache {
	return &HistoryCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *HistoryCache) SessionSummary(ctx context.Context, sessionID string) (domain.Summary, error) {
	key := summaryKey(sessionID)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var summary domain.Summary
		if err := json.Unmarshal(raw, &summary); err == nil {
			return summary, nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var summary domain.Summary
			if err := json.Unmarshal(raw, &summary); err == nil {
				return summary, nil
			}
		}

		summary, err := c.source.SessionSummary(ctx, sessionID)
		if err != nil {
			return domain.Summary{}, err
		}
		c.store(ctx, key, summary)
		return summary, nil
	})
	if err != nil {
		return domain.Summary{}, err
	}
	return result.(domain.Summary), nil
}

func (c *HistoryCache) ListSessions(ctx context.Context, limit, offset int) (domain.SessionPage, error) {
	key := pageKey(limit, offset)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var page domain.SessionPage
		if err := json.Unmarshal(raw, &page); err == nil {
			return page, nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var page domain.SessionPage
			if err := json.Unmarshal(raw, &page); err == nil {
				return page, nil
			}
		}

		page, err := c.source.ListSessions(ctx, limit, offset)
		if err != nil {
			return domain.SessionPage{}, err
		}
		c.store(ctx, key, page)
		return page, nil
	})
	if err != nil {
		return domain.SessionPage{}, err
	}
	return result.(domain.SessionPage), nil
}

// Invalidate drops every tracked cache key. Best-effort: a failed delete
// only costs a stale read until the TTL expires.
func (c *HistoryCache) Invalidate() {
	ctx := context.Background()
	keys, err := c.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return
	}
	if len(keys) > 0 {
		_ = c.client.Del(ctx, keys...).Err()
	}
	_ = c.client.Del(ctx, indexKey).Err()
}

// store writes a cache entry best-effort; serving from source still works
// when redis is down.
func (c *HistoryCache) store(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, raw, c.ttlWithJitter())
	pipe.SAdd(ctx, indexKey, key)
	_, _ = pipe.Exec(ctx)
}

const indexKey = "lairn:history:keys"

func summaryKey(sessionID string) string {
	return "lairn:summary:" + sessionID
}

func pageKey(limit, offset int) string {
	return fmt.Sprintf("lairn:sessions:%d:%d", limit, offset)
}

func (c *HistoryCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
