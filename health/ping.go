package health

import (
	"context"
	"fmt"
	"time"
)

// PingCheckerConfig configures a PingChecker.
type PingCheckerConfig struct {
	// SlowThreshold is the latency above which a successful ping is degraded.
	// Default: 2 seconds
	SlowThreshold time.Duration

	// Timeout bounds a single ping.
	// Default: 5 seconds
	Timeout time.Duration
}

// PingChecker checks a remote dependency by calling ping. A ping error is
// unhealthy and a slow success is degraded. Every result carries a
// "latency_ms" detail.
type PingChecker struct {
	name   string
	ping   func(context.Context) error
	config PingCheckerConfig
}

// NewPingChecker returns a checker that calls ping on every Check.
func NewPingChecker(name string, ping func(context.Context) error, config PingCheckerConfig) *PingChecker {
	if config.SlowThreshold <= 0 {
		config.SlowThreshold = 2 * time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	return &PingChecker{name: name, ping: ping, config: config}
}

func (p *PingChecker) Name() string { return p.name }

func (p *PingChecker) Check(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	start := time.Now()
	err := p.ping(ctx)
	elapsed := time.Since(start)

	var r Result
	switch {
	case err != nil:
		r = Unhealthy(fmt.Sprintf("%s unreachable: %v", p.name, err), fmt.Errorf("%w: %w", ErrCheckFailed, err))
	case elapsed > p.config.SlowThreshold:
		r = Degraded(fmt.Sprintf("%s slow: %s", p.name, elapsed.Round(time.Millisecond)))
	default:
		r = Healthy(p.name + " reachable")
	}
	return r.WithDetail("latency_ms", elapsed.Milliseconds()).WithDuration(elapsed)
}

var _ Checker = (*PingChecker)(nil)
