package resilience

import (
	"context"
	"errors"
	"math"
	"net"
	"slices"
	"sync"
	"time"
)

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxRetries is the number of re-attempts after the initial try.
	// Total attempts = MaxRetries + 1.
	// Default: 3
	MaxRetries int

	// BaseDelay is the delay before the first retry.
	// Default: 1s
	BaseDelay time.Duration

	// MaxDelay caps any computed delay. Never below BaseDelay.
	// Default: 30s
	MaxDelay time.Duration

	// BackoffMultiplier is the growth factor per attempt, at least 1.
	// Default: 2.0
	BackoffMultiplier float64

	// RetryCondition decides whether a failure is retryable. attempt is the
	// number of the retry that would follow (1 for the first retry).
	// Default: DefaultRetryCondition
	RetryCondition func(err error, attempt int) bool

	// OnRetry is called before each retry delay. It must not block.
	OnRetry func(err error, attempt int, delay time.Duration)

	// Scheduler provides the delay primitive.
	// Default: SystemScheduler
	Scheduler Scheduler
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		BaseDelay:         time.Second,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2.0,
		RetryCondition:    DefaultRetryCondition,
		Scheduler:         SystemScheduler{},
	}
}

// Validate reports configuration values that normalization would change.
func (c RetryConfig) Validate() error {
	switch {
	case c.MaxRetries < 0:
		return errors.New("resilience: max retries must not be negative")
	case c.BaseDelay <= 0:
		return errors.New("resilience: base delay must be positive")
	case c.MaxDelay < c.BaseDelay:
		return errors.New("resilience: max delay must be at least base delay")
	case c.BackoffMultiplier < 1:
		return errors.New("resilience: backoff multiplier must be at least 1")
	}
	return nil
}

// Delay returns the backoff before retry number attempt+1, where attempt
// counts from 0 for the initial try.
func (c RetryConfig) Delay(attempt int) time.Duration {
	raw := float64(c.BaseDelay) * math.Pow(c.BackoffMultiplier, float64(attempt))
	if math.IsInf(raw, 0) || math.IsNaN(raw) || raw >= float64(c.MaxDelay) {
		return c.MaxDelay
	}
	return time.Duration(raw)
}

func (c *RetryConfig) normalize() {
	def := DefaultRetryConfig()
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = def.BaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = def.MaxDelay
	}
	if c.MaxDelay < c.BaseDelay {
		c.MaxDelay = c.BaseDelay
	}
	if c.BackoffMultiplier < 1 {
		c.BackoffMultiplier = 1
	}
	if c.RetryCondition == nil {
		c.RetryCondition = DefaultRetryCondition
	}
	if c.Scheduler == nil {
		c.Scheduler = def.Scheduler
	}
}

// RetryOption sets a subset of RetryConfig. Options are the partial
// configuration accepted by NewRetryManager and UpdateConfig.
type RetryOption func(*RetryConfig)

// WithMaxRetries sets the number of re-attempts.
func WithMaxRetries(n int) RetryOption {
	return func(c *RetryConfig) { c.MaxRetries = n }
}

// WithBaseDelay sets the first retry delay.
func WithBaseDelay(d time.Duration) RetryOption {
	return func(c *RetryConfig) { c.BaseDelay = d }
}

// WithMaxDelay sets the delay cap.
func WithMaxDelay(d time.Duration) RetryOption {
	return func(c *RetryConfig) { c.MaxDelay = d }
}

// WithBackoffMultiplier sets the growth factor.
func WithBackoffMultiplier(m float64) RetryOption {
	return func(c *RetryConfig) { c.BackoffMultiplier = m }
}

// WithRetryCondition sets the retry predicate.
func WithRetryCondition(fn func(err error, attempt int) bool) RetryOption {
	return func(c *RetryConfig) { c.RetryCondition = fn }
}

// WithOnRetry sets the retry observer.
func WithOnRetry(fn func(err error, attempt int, delay time.Duration)) RetryOption {
	return func(c *RetryConfig) { c.OnRetry = fn }
}

// WithRetryScheduler sets the scheduler used for delays.
func WithRetryScheduler(s Scheduler) RetryOption {
	return func(c *RetryConfig) { c.Scheduler = s }
}

// WithRetryConfig replaces the whole configuration.
func WithRetryConfig(cfg RetryConfig) RetryOption {
	return func(c *RetryConfig) { *c = cfg }
}

// RetryManager retries failed operations with exponential backoff.
//
// Contract:
// - Concurrency: safe for concurrent use; each Execute owns its attempt counter.
// - Errors: operation failures are returned unaltered.
type RetryManager struct {
	mu     sync.RWMutex
	config RetryConfig
	hooks  []func(err error, attempt int, delay time.Duration)
}

// NewRetryManager creates a retry manager from the defaults plus opts.
func NewRetryManager(opts ...RetryOption) *RetryManager {
	cfg := DefaultRetryConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.normalize()

	return &RetryManager{config: cfg}
}

// Execute runs op until it succeeds, the retry predicate rejects the
// failure, or MaxRetries re-attempts have been made. The configuration is
// captured when Execute starts; later UpdateConfig calls do not affect an
// in-flight sequence.
func (r *RetryManager) Execute(ctx context.Context, op func(context.Context) error) error {
	r.mu.RLock()
	cfg, hooks := r.config, r.hooks
	r.mu.RUnlock()

	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		// No attempts remain
		if attempt == cfg.MaxRetries {
			break
		}

		if !cfg.RetryCondition(err, attempt+1) {
			break
		}

		delay := cfg.Delay(attempt)

		for _, hook := range hooks {
			hook(err, attempt+1, delay)
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(err, attempt+1, delay)
		}

		if err := cfg.Scheduler.Sleep(ctx, delay); err != nil {
			return err
		}
	}

	if lastErr == nil {
		return ErrRetriesExhausted
	}
	return lastErr
}

// Config returns a copy of the current retry configuration.
func (r *RetryManager) Config() RetryConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config
}

// Observe registers fn to run before each retry delay, ahead of
// RetryConfig.OnRetry. Observers are not part of the configuration, so
// UpdateConfig never removes them. fn must not block.
func (r *RetryManager) Observe(fn func(err error, attempt int, delay time.Duration)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(slices.Clip(r.hooks), fn)
}

// UpdateConfig merges opts into the current configuration and swaps it in
// atomically.
func (r *RetryManager) UpdateConfig(opts ...RetryOption) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg := r.config
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.normalize()
	r.config = cfg
}

// DefaultRetryCondition retries transient failures: errors that report
// Transient() == true, network errors, and errors carrying a status code
// of 429 or >= 500. Context cancellation is never retried.
func DefaultRetryCondition(err error, _ int) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var transient interface{ Transient() bool }
	if errors.As(err, &transient) && transient.Transient() {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var coded interface{ StatusCode() int }
	if errors.As(err, &coded) {
		status := coded.StatusCode()
		return status >= 500 || status == 429
	}

	return false
}

// WithRetry is a convenience wrapper that runs op under a fresh manager.
func WithRetry(ctx context.Context, op func(context.Context) error, opts ...RetryOption) error {
	return NewRetryManager(opts...).Execute(ctx, op)
}
