package health

import (
	"context"
	"errors"
	"testing"
)

func TestNewCapacityChecker_Defaults(t *testing.T) {
	c := NewCapacityChecker("rate_limiter", func() Capacity { return Capacity{} }, CapacityCheckerConfig{WarningThreshold: 3})

	if c.threshold != 0.8 {
		t.Errorf("threshold = %v, want 0.8", c.threshold)
	}
	if c.Name() != "rate_limiter" {
		t.Errorf("Name() = %v, want rate_limiter", c.Name())
	}
}

func TestCapacityChecker_Check(t *testing.T) {
	tests := []struct {
		name     string
		capacity Capacity
		want     Status
	}{
		{"available", Capacity{Remaining: 10, QueueLimit: 50}, StatusHealthy},
		{"exhausted no queue", Capacity{Remaining: 0}, StatusDegraded},
		{"exhausted queueing", Capacity{Remaining: 0, Queued: 3, QueueLimit: 50}, StatusDegraded},
		{"queue high", Capacity{Remaining: 1, Queued: 40, QueueLimit: 50}, StatusDegraded},
		{"queue full", Capacity{Remaining: 0, Queued: 50, QueueLimit: 50}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCapacityChecker("rate_limiter", func() Capacity { return tt.capacity }, CapacityCheckerConfig{})
			result := c.Check(context.Background())

			if result.Status != tt.want {
				t.Errorf("Status = %v, want %v (%s)", result.Status, tt.want, result.Message)
			}
			if result.Details["remaining"] != tt.capacity.Remaining || result.Details["queue_limit"] != tt.capacity.QueueLimit {
				t.Errorf("Details[remaining] = %v, want %d", result.Details["remaining"], tt.capacity.Remaining)
			}
		})
	}
}

func TestCapacityChecker_QueueFullError(t *testing.T) {
	c := NewCapacityChecker("rl", func() Capacity {
		return Capacity{Queued: 1, QueueLimit: 1}
	}, CapacityCheckerConfig{})

	if err := c.Check(context.Background()).Error; !errors.Is(err, ErrCapacityExhausted) {
		t.Errorf("Error = %v, want ErrCapacityExhausted", err)
	}
}

func TestCapacityChecker_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCapacityChecker("rl", func() Capacity { return Capacity{Remaining: 1} }, CapacityCheckerConfig{})
	if got := c.Check(ctx).Status; got != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", got)
	}
}
