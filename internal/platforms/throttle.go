package platforms

import (
	"context"
	"sync"
	"time"
)

// FixedDelayThrottle implements domain.Throttle with a fixed minimum interval
// between calls. It is safe for concurrent use; callers are serialized so
// that no two calls are released less than the interval apart.
type FixedDelayThrottle struct {
	interval time.Duration

	mu   sync.Mutex
	next time.Time
}

// NewFixedDelayThrottle creates a throttle that releases at most one call per
// interval. A non-positive interval disables waiting.
func NewFixedDelayThrottle(interval time.Duration) *FixedDelayThrottle {
	return &FixedDelayThrottle{interval: interval}
}

// Wait blocks until the next call slot opens or the context is cancelled.
func (t *FixedDelayThrottle) Wait(ctx context.Context) error {
	if t.interval <= 0 {
		return ctx.Err()
	}

	t.mu.Lock()
	now := time.Now()
	at := t.next
	if at.Before(now) {
		at = now
	}
	t.next = at.Add(t.interval)
	t.mu.Unlock()

	d := time.Until(at)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
