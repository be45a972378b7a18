package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPingChecker_Defaults(t *testing.T) {
	p := NewPingChecker("api", func(context.Context) error { return nil }, PingCheckerConfig{})

	if p.config.SlowThreshold != 2*time.Second {
		t.Errorf("SlowThreshold = %v, want 2s", p.config.SlowThreshold)
	}
	if p.config.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", p.config.Timeout)
	}
	if p.Name() != "api" {
		t.Errorf("Name() = %v, want api", p.Name())
	}
}

func TestPingChecker_Check(t *testing.T) {
	down := errors.New("connection refused")

	tests := []struct {
		name string
		ping func(context.Context) error
		want Status
	}{
		{"reachable", func(context.Context) error { return nil }, StatusHealthy},
		{"error", func(context.Context) error { return down }, StatusUnhealthy},
		{"slow", func(context.Context) error { time.Sleep(30 * time.Millisecond); return nil }, StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPingChecker("api", tt.ping, PingCheckerConfig{SlowThreshold: 10 * time.Millisecond})
			result := p.Check(context.Background())

			if result.Status != tt.want {
				t.Errorf("Status = %v, want %v (%s)", result.Status, tt.want, result.Message)
			}
			if _, ok := result.Details["latency_ms"]; !ok {
				t.Error("latency_ms detail missing")
			}
		})
	}
}

func TestPingChecker_Timeout(t *testing.T) {
	p := NewPingChecker("api", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, PingCheckerConfig{Timeout: 10 * time.Millisecond})

	result := p.Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", result.Status)
	}
	if !errors.Is(result.Error, context.DeadlineExceeded) || !errors.Is(result.Error, ErrCheckFailed) {
		t.Errorf("Error = %v, want deadline exceeded", result.Error)
	}
}
