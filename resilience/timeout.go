package resilience

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout bounds an attempt when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// TimeoutConfig configures a Timeout.
type TimeoutConfig struct {
	// Timeout is the longest a single attempt may run.
	// Default: DefaultTimeout
	Timeout time.Duration
}

// Timeout bounds individual attempts. An attempt that outlives the bound
// fails with a *TimeoutError, which DefaultRetryCondition retries.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout returns a Timeout for config.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Timeout{config: config}
}

// Execute runs op under the attempt deadline and returns as soon as either
// op finishes or the deadline passes, even when op ignores its context.
// Cancellation of ctx itself is reported as ctx's error, not as a timeout.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	deadline := &TimeoutError{Timeout: t.config.Timeout}
	attemptCtx, cancel := context.WithTimeoutCause(ctx, t.config.Timeout, deadline)
	defer cancel()

	result := make(chan error, 1)
	go func() { result <- op(attemptCtx) }()

	var err error
	select {
	case err = <-result:
		if err == nil {
			return nil
		}
	case <-attemptCtx.Done():
		err = attemptCtx.Err()
	}

	if ctx.Err() == nil && errors.Is(context.Cause(attemptCtx), ErrTimeout) {
		return deadline
	}
	return err
}

// Config returns the effective configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}

// ExecuteWithTimeout runs op once under timeout.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	return NewTimeout(TimeoutConfig{Timeout: timeout}).Execute(ctx, op)
}
