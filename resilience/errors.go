package resilience

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for resilience operations.
var (
	// ErrRetriesExhausted is returned when a retry loop ends without ever
	// observing an operation failure.
	ErrRetriesExhausted = errors.New("resilience: retry attempts exhausted")

	// ErrRateLimitExceeded matches every *RateLimitError via errors.Is.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrTimeout matches every *TimeoutError via errors.Is.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// RateLimitReason describes why admission was denied.
type RateLimitReason string

const (
	ReasonExceeded  RateLimitReason = "rate limit exceeded"
	ReasonQueueFull RateLimitReason = "queue is full"
	ReasonDropped   RateLimitReason = "request dropped due to rate limit"
	ReasonReset     RateLimitReason = "rate limiter reset"
)

// RateLimitError is returned when the rate limiter denies admission.
type RateLimitError struct {
	// RetryAfter is the time until the oldest ledger entry leaves the window.
	RetryAfter time.Duration

	// Reason is the strategy-specific cause of the denial.
	Reason RateLimitReason
}

func newRateLimitError(retryAfter time.Duration, reason RateLimitReason) *RateLimitError {
	return &RateLimitError{RetryAfter: retryAfter, Reason: reason}
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("resilience: %s, retry after %dms", e.Reason, e.RetryAfter.Milliseconds())
}

// Is reports whether target is ErrRateLimitExceeded.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimitExceeded
}

// IsRateLimitReason reports whether err is a *RateLimitError with the given reason.
func IsRateLimitReason(err error, reason RateLimitReason) bool {
	var rlErr *RateLimitError
	if !errors.As(err, &rlErr) {
		return false
	}
	return rlErr.Reason == reason
}

// TimeoutError is returned when a single attempt exceeds its deadline.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("resilience: operation timed out after %s", e.Timeout)
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// Transient marks timeouts as retryable for DefaultRetryCondition.
func (e *TimeoutError) Transient() bool { return true }
