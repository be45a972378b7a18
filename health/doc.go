// Package health provides health checking primitives for API clients.
//
// A Checker is any component that can report its health status. The Status
// type represents the health state: Healthy, Degraded, or Unhealthy.
//
// # Checkers
//
// PingChecker calls a remote dependency and reports it degraded when it
// answers slowly. CapacityChecker samples a bounded resource, such as a
// rate limiter, and reports saturation.
//
//	api := health.NewPingChecker("api", pingAPI, health.PingCheckerConfig{
//	    SlowThreshold: time.Second,
//	})
//
//	limiter := health.NewCapacityChecker("rate_limiter", func() health.Capacity {
//	    s := rl.Status()
//	    return health.Capacity{Remaining: s.RequestsRemaining, Queued: s.QueueSize, QueueLimit: 50}
//	}, health.CapacityCheckerConfig{})
//
// # Aggregating Health Checks
//
// Use Aggregator to combine multiple health checks into a single report:
//
//	agg := health.NewAggregator()
//	agg.Register("api", api)
//	agg.Register("rate_limiter", limiter)
//
//	report := agg.Run(ctx)
//	if report.Status == health.StatusUnhealthy {
//	    // ...
//	}
package health
