package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"lairn-cli/internal/domain"
	"golang.org/x/sync/singleflight"
)

// HistorySource fetches summaries and session pages from the backend.
type HistorySource interface {
	SessionSummary(ctx context.Context, sessionID string) (domain.Summary, error)
	ListSessions(ctx context.Context, limit, offset int) (domain.SessionPage, error)
}

// HistoryCache caches summaries and history pages with TTL to avoid
// refetching on every view switch. Invalidation is explicit: the controller
// drops the cache on restart and on new-session creation.
type HistoryCache struct {
	source HistorySource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	summaries map[string]cachedSummary
	pages     map[string]cachedPage
}

type cachedSummary struct {
	summary   domain.Summary
	expiresAt time.Time
}

type cachedPage struct {
	page      domain.SessionPage
	expiresAt time.Time
}

func NewHistoryCache(source HistorySource, ttl time.Duration) *HistoryCache {
	return &HistoryCache{
		source:    source,
		ttl:       ttl,
		clock:     time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		summaries: make(map[string]cachedSummary),
		pages:     make(map[string]cachedPage),
	}
}

func (c *HistoryCache) SessionSummary(ctx context.Context, sessionID string) (domain.Summary, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.summaries[sessionID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.summary, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("summary:"+sessionID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.summaries[sessionID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.summary, nil
		}
		c.mu.RUnlock()

		summary, err := c.source.SessionSummary(ctx, sessionID)
		if err != nil {
			return domain.Summary{}, err
		}

		c.mu.Lock()
		c.summaries[sessionID] = cachedSummary{
			summary:   summary,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return summary, nil
	})
	if err != nil {
		return domain.Summary{}, err
	}
	return result.(domain.Summary), nil
}

func (c *HistoryCache) ListSessions(ctx context.Context, limit, offset int) (domain.SessionPage, error) {
	key := pageKey(limit, offset)
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.pages[key]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.page, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("page:"+key, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.pages[key]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.page, nil
		}
		c.mu.RUnlock()

		page, err := c.source.ListSessions(ctx, limit, offset)
		if err != nil {
			return domain.SessionPage{}, err
		}

		c.mu.Lock()
		c.pages[key] = cachedPage{
			page:      page,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return page, nil
	})
	if err != nil {
		return domain.SessionPage{}, err
	}
	return result.(domain.SessionPage), nil
}

// Invalidate drops everything cached.
func (c *HistoryCache) Invalidate() {
	c.mu.Lock()
	c.summaries = make(map[string]cachedSummary)
	c.pages = make(map[string]cachedPage)
	c.mu.Unlock()
}

func (c *HistoryCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func pageKey(limit, offset int) string {
	return fmt.Sprintf("%d:%d", limit, offset)
}
