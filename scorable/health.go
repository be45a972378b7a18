package scorable

import (
	"context"
	"net/http"
	"net/url"

	"github.com/root-signals/rs-sdk/health"
	"github.com/root-signals/rs-sdk/resilience"
)

// HealthChecks returns an aggregator with two checks:
//
//   - "api": lists one model; degraded when slow, unhealthy on failure.
//   - "rate_limiter": degraded when the window quota is used up, unhealthy
//     when the wait queue is full.
//
// The ping bypasses retry, rate limiting and the response cache.
func (c *Client) HealthChecks(cfg health.PingCheckerConfig) *health.Aggregator {
	agg := health.NewAggregator()
	agg.Register("api", health.NewPingChecker("api", c.ping, cfg))
	agg.Register("rate_limiter", health.NewCapacityChecker("rate_limiter", c.limiterCapacity, health.CapacityCheckerConfig{}))
	return agg
}

// Health runs the default health checks.
func (c *Client) Health(ctx context.Context) health.Report {
	return c.HealthChecks(health.PingCheckerConfig{}).Run(ctx)
}

func (c *Client) ping(ctx context.Context) error {
	req := &Request{
		Method: http.MethodGet, Path: "/v1/models/", Query: url.Values{"page_size": {"1"}},
		Resource: "health", Action: "ping", NoCache: true,
	}
	_, err := c.transport.Do(ctx, req)
	return err
}

func (c *Client) limiterCapacity() health.Capacity {
	status := c.limiter.Status()
	capacity := health.Capacity{
		Remaining: status.RequestsRemaining,
		Queued:    status.QueueSize,
	}
	if cfg := c.limiter.Config(); cfg.Strategy == resilience.StrategyQueue {
		capacity.QueueLimit = cfg.MaxQueueSize
	}
	return capacity
}
