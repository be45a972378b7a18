package resilience

import (
	"context"
	"slices"
	"time"
)

// Runner is anything that wraps an operation: RetryManager, RateLimiter,
// Timeout and Executor all satisfy it.
type Runner interface {
	Execute(ctx context.Context, op func(context.Context) error) error
}

// Do runs a value-returning operation through r.
func Do[T any](ctx context.Context, r Runner, op func(context.Context) (T, error)) (T, error) {
	var result T
	err := r.Execute(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// Executor composes retry, rate limiting and per-attempt timeouts.
type Executor struct {
	retry          *RetryManager
	rateLimiter    *RateLimiter
	timeout        *Timeout
	rateLimitOuter bool
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor returns an Executor. With no options it runs op once.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithRetryManager retries failed attempts with r.
func WithRetryManager(r *RetryManager) ExecutorOption {
	return func(e *Executor) { e.retry = r }
}

// WithRateLimiter admits attempts through rl.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) { e.rateLimiter = rl }
}

// WithTimeout bounds every attempt.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout})
	}
}

// WithTimeoutConfig bounds every attempt with t.
func WithTimeoutConfig(t *Timeout) ExecutorOption {
	return func(e *Executor) { e.timeout = t }
}

// WithRateLimitOuter puts the rate limiter outside the retry loop: one
// admission gates the whole retry sequence and a denial is never retried.
func WithRateLimitOuter() ExecutorOption {
	return func(e *Executor) { e.rateLimitOuter = true }
}

// Execute runs op through the configured runners. Outermost first:
//
//	retry -> rate limiter -> timeout -> op
//
// so every attempt is admitted and timed separately. WithRateLimitOuter
// moves the rate limiter in front of retry. In the default order a denial
// reaches the retry condition, and DefaultRetryCondition does not retry a
// *RateLimitError.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	var layers []Runner
	if e.rateLimiter != nil && e.rateLimitOuter {
		layers = append(layers, e.rateLimiter)
	}
	if e.retry != nil {
		layers = append(layers, e.retry)
	}
	if e.rateLimiter != nil && !e.rateLimitOuter {
		layers = append(layers, e.rateLimiter)
	}
	if e.timeout != nil {
		layers = append(layers, e.timeout)
	}

	run := op
	for _, layer := range slices.Backward(layers) {
		next := run
		run = func(ctx context.Context) error { return layer.Execute(ctx, next) }
	}
	return run(ctx)
}

var (
	_ Runner = (*RetryManager)(nil)
	_ Runner = (*RateLimiter)(nil)
	_ Runner = (*Timeout)(nil)
	_ Runner = (*Executor)(nil)
)
