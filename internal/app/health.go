package app

import (
	"context"
	"sync"
	"time"

	"lairn-cli/internal/domain"
)

// HealthChecker is the advisory slice of the backend.
type HealthChecker interface {
	Health(ctx context.Context) (domain.Health, error)
}

// BannerLevel grades the advisory banner.
type BannerLevel int

const (
	BannerUnknown BannerLevel = iota
	BannerOK
	BannerWarn
	BannerError
)

// HealthStatus is the latest poll outcome. Err is set only for BannerError;
// BannerWarn means the backend answered but its grading model is down.
type HealthStatus struct {
	Level     BannerLevel
	Health    domain.Health
	Err       error
	CheckedAt time.Time
}

// Monitor polls backend health on a fixed interval, independent of all
// session flows. A failed poll only changes the banner; it never touches
// session state.
type Monitor struct {
	checker  HealthChecker
	interval time.Duration
	clock    func() time.Time

	mu          sync.RWMutex
	last        HealthStatus
	subscribers map[chan HealthStatus]struct{}
}

func NewMonitor(checker HealthChecker, interval time.Duration) *Monitor {
	return &Monitor{
		checker:     checker,
		interval:    interval,
		clock:       time.Now,
		subscribers: make(map[chan HealthStatus]struct{}),
	}
}

// Run polls immediately and then on every tick until ctx is canceled.
func (m *Monitor) Run(ctx context.Context) {
	m.Poll(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Poll(ctx)
		}
	}
}

// Poll performs a single health check and updates the banner state.
func (m *Monitor) Poll(ctx context.Context) HealthStatus {
	health, err := m.checker.Health(ctx)

	status := HealthStatus{Health: health, Err: err, CheckedAt: m.clock()}
	switch {
	case err != nil:
		status.Level = BannerError
	case !health.Model.Reachable:
		status.Level = BannerWarn
	default:
		status.Level = BannerOK
	}

	m.mu.Lock()
	m.last = status
	for ch := range m.subscribers {
		select {
		case ch <- status:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- status
		}
	}
	m.mu.Unlock()
	return status
}

// Last returns the most recent poll outcome.
func (m *Monitor) Last() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Subscribe returns a channel receiving every poll outcome. The caller must
// invoke the returned cancel function to avoid leaks.
func (m *Monitor) Subscribe() (<-chan HealthStatus, func()) {
	ch := make(chan HealthStatus, 8)

	m.mu.Lock()
	m.subscribers[ch] = struct{}{}
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		if _, ok := m.subscribers[ch]; ok {
			delete(m.subscribers, ch)
			close(ch)
		}
		m.mu.Unlock()
	}
	return ch, cancel
}
