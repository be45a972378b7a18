// Package resilience provides retry and rate limiting primitives for API
// calls.
//
// The patterns can be used on their own or composed with an Executor.
//
// # Patterns
//
//   - Retry: RetryManager re-runs failed operations with capped exponential
//     backoff. A retry predicate decides which failures are transient.
//
//   - Rate Limiter: RateLimiter admits at most MaxRequests operations per
//     sliding window. Once the quota is exhausted a caller is queued (FIFO,
//     bounded), rejected, or dropped depending on the Strategy.
//
//   - Timeout: Timeout bounds a single attempt.
//
// Time is supplied by a Scheduler. SystemScheduler uses the wall clock;
// ManualScheduler is a virtual clock for deterministic tests.
//
// # Usage
//
//	retry := resilience.NewRetryManager(
//	    resilience.WithMaxRetries(3),
//	    resilience.WithBaseDelay(time.Second),
//	    resilience.WithMaxDelay(30*time.Second),
//	)
//
//	rl := resilience.NewRateLimiter(
//	    resilience.WithMaxRequests(100),
//	    resilience.WithWindow(time.Minute),
//	    resilience.WithStrategy(resilience.StrategyQueue),
//	)
//
//	// Retry wraps the limiter, so every attempt is admitted separately.
//	executor := resilience.NewExecutor(
//	    resilience.WithRetryManager(retry),
//	    resilience.WithRateLimiter(rl),
//	    resilience.WithTimeout(30*time.Second),
//	)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return callAPI(ctx)
//	})
//
// # Errors
//
// Denials are *RateLimitError values and match ErrRateLimitExceeded with
// errors.Is. Attempt timeouts are *TimeoutError values and match ErrTimeout.
// Operation errors are returned unaltered.
package resilience
