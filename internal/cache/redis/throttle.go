package redis

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

//go:embed scripts/sliding_window.lua
var slidingWindowLua string

// waitPollInterval is how often Wait re-checks the window after a denial.
const waitPollInterval = 50 * time.Millisecond

// Throttle implements domain.Throttle with a Redis-backed sliding window so
// multiple sync processes can share one upstream rate budget.
type Throttle struct {
	rdb           *redis.Client
	slidingWindow *redis.Script
	key           string
	limit         int
	window        time.Duration
}

// NewThrottle creates a Throttle allowing at most limit calls per window
// across every process using the same key.
func NewThrottle(c *Client, key string, limit int, window time.Duration) *Throttle {
	return &Throttle{
		rdb:           c.Underlying(),
		slidingWindow: redis.NewScript(slidingWindowLua),
		key:           "throttle:" + key,
		limit:         limit,
		window:        window,
	}
}

// allow runs the sliding-window script once.
func (t *Throttle) allow(ctx context.Context) (bool, error) {
	result, err := t.slidingWindow.Run(
		ctx,
		t.rdb,
		[]string{t.key},
		time.Now().UnixMicro(),
		t.window.Microseconds(),
		t.limit,
	).Int64Slice()
	if err != nil {
		return false, fmt.Errorf("redis: throttle %s: %w", t.key, err)
	}
	if len(result) < 2 {
		return false, fmt.Errorf("redis: throttle %s: unexpected result length %d", t.key, len(result))
	}
	return result[0] == 1, nil
}

// Wait blocks until a call slot opens in the window or the context is
// cancelled.
func (t *Throttle) Wait(ctx context.Context) error {
	for {
		ok, err := t.allow(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		timer := time.NewTimer(waitPollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
