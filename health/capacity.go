package health

import (
	"context"
	"fmt"
)

// Capacity is a snapshot of a bounded resource such as a rate limiter.
type Capacity struct {
	Remaining  int // slots available now
	Queued     int // callers waiting for a slot
	QueueLimit int // maximum waiters; zero when callers are never queued
}

// CapacityCheckerConfig configures a CapacityChecker.
type CapacityCheckerConfig struct {
	// WarningThreshold is the queue fill ratio, in (0, 1], at which the
	// resource is degraded.
	// Default: 0.8
	WarningThreshold float64
}

// CapacityChecker reports saturation of a bounded resource:
//
//   - unhealthy when nothing remains and the queue is full
//   - degraded when nothing remains, or the queue is WarningThreshold full
//   - healthy otherwise
type CapacityChecker struct {
	name      string
	source    func() Capacity
	threshold float64
}

// NewCapacityChecker returns a checker that samples source on every Check.
func NewCapacityChecker(name string, source func() Capacity, config CapacityCheckerConfig) *CapacityChecker {
	threshold := config.WarningThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = 0.8
	}
	return &CapacityChecker{name: name, source: source, threshold: threshold}
}

func (c *CapacityChecker) Name() string { return c.name }

func (c *CapacityChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("check cancelled", err)
	}

	snap := c.source()
	var fill float64
	if snap.QueueLimit > 0 {
		fill = float64(snap.Queued) / float64(snap.QueueLimit)
	}

	var r Result
	switch {
	case snap.Remaining <= 0 && snap.QueueLimit > 0 && snap.Queued >= snap.QueueLimit:
		r = Unhealthy(fmt.Sprintf("%s saturated: queue full (%d/%d)", c.name, snap.Queued, snap.QueueLimit), ErrCapacityExhausted)
	case snap.Remaining <= 0:
		r = Degraded(fmt.Sprintf("%s exhausted: %d waiting", c.name, snap.Queued))
	case snap.QueueLimit > 0 && fill >= c.threshold:
		r = Degraded(fmt.Sprintf("%s queue high: %.1f%%", c.name, fill*100))
	default:
		r = Healthy(fmt.Sprintf("%s available: %d remaining", c.name, snap.Remaining))
	}

	r = r.WithDetail("remaining", snap.Remaining).
		WithDetail("queued", snap.Queued).
		WithDetail("queue_limit", snap.QueueLimit)
	if snap.QueueLimit > 0 {
		r = r.WithDetail("queue_percent", fill*100)
	}
	return r
}

var _ Checker = (*CapacityChecker)(nil)
