package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newManualLimiter(opts ...RateLimitOption) (*RateLimiter, *ManualScheduler) {
	sched := NewManualScheduler(epoch)
	opts = append(opts, WithRateLimitScheduler(sched))
	return NewRateLimiter(opts...), sched
}

// enqueue starts a Wait in the background and blocks until the limiter
// reports it as queued.
func enqueue(t *testing.T, ctx context.Context, rl *RateLimiter) <-chan error {
	t.Helper()

	before := rl.Status().QueueSize
	result := make(chan error, 1)
	go func() { result <- rl.Wait(ctx) }()

	require.Eventually(t, func() bool {
		return rl.Status().QueueSize == before+1
	}, time.Second, time.Millisecond)
	return result
}

func assertPending(t *testing.T, ch <-chan error) {
	t.Helper()
	select {
	case err := <-ch:
		t.Fatalf("waiter released early with %v", err)
	case <-time.After(10 * time.Millisecond):
	}
}

func receive(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(time.Second):
		t.Fatal("waiter was not released")
		return nil
	}
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	cfg := NewRateLimiter().Config()

	assert.Equal(t, 100, cfg.MaxRequests)
	assert.Equal(t, time.Minute, cfg.Window)
	assert.Equal(t, StrategyQueue, cfg.Strategy)
	assert.Equal(t, 50, cfg.MaxQueueSize)
	assert.NotNil(t, cfg.Scheduler)
}

func TestRateLimiter_AdmitsUpToQuota(t *testing.T) {
	rl, _ := newManualLimiter(WithMaxRequests(3), WithWindow(time.Second), WithStrategy(StrategyReject))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Wait(ctx), "admission %d", i)
	}
	assert.Equal(t, 0, rl.Status().RequestsRemaining)
}

func TestRateLimiter_RejectStrategy(t *testing.T) {
	var exceeded []time.Duration
	rl, sched := newManualLimiter(
		WithMaxRequests(2),
		WithWindow(time.Second),
		WithStrategy(StrategyReject),
		WithOnRateLimitExceeded(func(remaining time.Duration) {
			exceeded = append(exceeded, remaining)
		}),
	)
	ctx := context.Background()

	require.NoError(t, rl.Wait(ctx))
	sched.Advance(200 * time.Millisecond)
	require.NoError(t, rl.Wait(ctx))

	err := rl.Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimitExceeded)
	assert.True(t, IsRateLimitReason(err, ReasonExceeded))

	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, 800*time.Millisecond, rlErr.RetryAfter)
	assert.Equal(t, "resilience: rate limit exceeded, retry after 800ms", rlErr.Error())
	assert.Equal(t, []time.Duration{800 * time.Millisecond}, exceeded)

	sched.Advance(800 * time.Millisecond)
	assert.NoError(t, rl.Wait(ctx), "admitted once the oldest entry leaves the window")
}

func TestRateLimiter_DropStrategy(t *testing.T) {
	rl, _ := newManualLimiter(WithMaxRequests(1), WithWindow(time.Second), WithStrategy(StrategyDrop))
	ctx := context.Background()

	require.NoError(t, rl.Wait(ctx))

	err := rl.Wait(ctx)
	assert.True(t, IsRateLimitReason(err, ReasonDropped))
	assert.ErrorIs(t, err, ErrRateLimitExceeded)
	assert.Equal(t, 0, rl.Status().QueueSize)
}

func TestRateLimiter_WindowBoundary(t *testing.T) {
	rl, sched := newManualLimiter(WithMaxRequests(1), WithWindow(time.Second), WithStrategy(StrategyReject))
	ctx := context.Background()

	require.NoError(t, rl.Wait(ctx))

	sched.Advance(999 * time.Millisecond)
	assert.Error(t, rl.Wait(ctx), "entry still inside the window")

	sched.Advance(time.Millisecond)
	assert.NoError(t, rl.Wait(ctx), "entry aged exactly one window is expired")
}

func TestRateLimiter_QueueFIFO(t *testing.T) {
	rl, sched := newManualLimiter(WithMaxRequests(1), WithWindow(time.Second), WithMaxQueueSize(5))
	ctx := context.Background()

	require.NoError(t, rl.Wait(ctx))

	c1 := enqueue(t, ctx, rl)
	c2 := enqueue(t, ctx, rl)
	c3 := enqueue(t, ctx, rl)

	sched.Advance(0)
	assertPending(t, c1)

	sched.Advance(time.Second)
	require.NoError(t, receive(t, c1))
	assertPending(t, c2)
	assertPending(t, c3)
	assert.Equal(t, 2, rl.Status().QueueSize)

	sched.Advance(time.Second)
	require.NoError(t, receive(t, c2))
	assertPending(t, c3)

	sched.Advance(time.Second)
	require.NoError(t, receive(t, c3))
	assert.Equal(t, 0, rl.Status().QueueSize)
}

func TestRateLimiter_QueueDrainsBurstWhenCapacityFrees(t *testing.T) {
	rl, sched := newManualLimiter(WithMaxRequests(3), WithWindow(time.Second))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Wait(ctx))
	}

	waiters := []<-chan error{enqueue(t, ctx, rl), enqueue(t, ctx, rl), enqueue(t, ctx, rl)}

	sched.Advance(time.Second)
	for _, w := range waiters {
		assert.NoError(t, receive(t, w))
	}
	assert.Equal(t, 0, rl.Status().RequestsRemaining)
}

func TestRateLimiter_QueueFull(t *testing.T) {
	var calls atomic.Int32
	rl, _ := newManualLimiter(
		WithMaxRequests(1),
		WithWindow(time.Second),
		WithMaxQueueSize(1),
		WithOnRateLimitExceeded(func(time.Duration) { calls.Add(1) }),
	)
	ctx := context.Background()

	require.NoError(t, rl.Wait(ctx))
	_ = enqueue(t, ctx, rl)

	err := rl.Wait(ctx)
	assert.True(t, IsRateLimitReason(err, ReasonQueueFull))
	assert.Equal(t, 1, rl.Status().QueueSize, "rejected caller is not enqueued")
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, time.Millisecond,
		"observer runs for queued and rejected callers")
}

func TestRateLimiter_Reset(t *testing.T) {
	rl, sched := newManualLimiter(WithMaxRequests(2), WithWindow(time.Minute))
	ctx := context.Background()

	require.NoError(t, rl.Wait(ctx))
	require.NoError(t, rl.Wait(ctx))
	w1 := enqueue(t, ctx, rl)
	w2 := enqueue(t, ctx, rl)

	rl.Reset()

	for _, w := range []<-chan error{w1, w2} {
		err := receive(t, w)
		assert.ErrorIs(t, err, ErrRateLimitExceeded)
		assert.True(t, IsRateLimitReason(err, ReasonReset))
	}

	status := rl.Status()
	assert.Equal(t, 2, status.RequestsRemaining)
	assert.Equal(t, 0, status.QueueSize)
	assert.Equal(t, sched.Now(), status.ResetTime)

	sched.Advance(time.Minute)
	assert.Equal(t, 0, sched.Pending(), "drain loop is disarmed")
}

func TestRateLimiter_UpdateConfigKeepsLedger(t *testing.T) {
	rl, _ := newManualLimiter(WithMaxRequests(2), WithWindow(time.Minute), WithStrategy(StrategyReject))
	ctx := context.Background()

	require.NoError(t, rl.Wait(ctx))
	require.NoError(t, rl.Wait(ctx))

	rl.UpdateConfig(WithMaxRequests(3))

	assert.Equal(t, 1, rl.Status().RequestsRemaining)
	assert.Equal(t, time.Minute, rl.Config().Window, "unspecified fields are kept")
	assert.NoError(t, rl.Wait(ctx))
	assert.Error(t, rl.Wait(ctx))
}

func TestRateLimiter_ObserveSurvivesUpdateConfig(t *testing.T) {
	rl, _ := newManualLimiter(WithMaxRequests(1), WithWindow(time.Minute), WithStrategy(StrategyReject))
	ctx := context.Background()

	var observed, configured []time.Duration
	rl.Observe(func(d time.Duration) { observed = append(observed, d) })
	rl.UpdateConfig(WithOnRateLimitExceeded(func(d time.Duration) { configured = append(configured, d) }))

	require.NoError(t, rl.Wait(ctx))
	require.Error(t, rl.Wait(ctx))

	assert.Equal(t, []time.Duration{time.Minute}, observed)
	assert.Equal(t, observed, configured)
}

func TestRateLimiter_UpdateConfigReleasesWaiters(t *testing.T) {
	rl, sched := newManualLimiter(WithMaxRequests(1), WithWindow(time.Hour))
	ctx := context.Background()

	require.NoError(t, rl.Wait(ctx))
	w := enqueue(t, ctx, rl)
	sched.Advance(0)
	assertPending(t, w)

	rl.UpdateConfig(WithMaxRequests(2))
	sched.Advance(0)

	assert.NoError(t, receive(t, w))
}

func TestRateLimiter_ContextCancelLeavesQueue(t *testing.T) {
	rl, sched := newManualLimiter(WithMaxRequests(1), WithWindow(time.Second))

	require.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	w := enqueue(t, ctx, rl)
	next := enqueue(t, context.Background(), rl)

	cancel()
	assert.ErrorIs(t, receive(t, w), context.Canceled)
	assert.Equal(t, 1, rl.Status().QueueSize)

	sched.Advance(time.Second)
	assert.NoError(t, receive(t, next), "cancelled waiter does not hold up the queue")
}

func TestRateLimiter_Status(t *testing.T) {
	rl, sched := newManualLimiter(WithMaxRequests(5), WithWindow(10*time.Second))
	ctx := context.Background()

	status := rl.Status()
	assert.Equal(t, 5, status.RequestsRemaining)
	assert.Equal(t, epoch, status.ResetTime)

	require.NoError(t, rl.Wait(ctx))
	sched.Advance(3 * time.Second)
	require.NoError(t, rl.Wait(ctx))

	status = rl.Status()
	assert.Equal(t, 3, status.RequestsRemaining)
	assert.Equal(t, epoch.Add(10*time.Second), status.ResetTime)

	sched.Advance(7 * time.Second)
	status = rl.Status()
	assert.Equal(t, 4, status.RequestsRemaining)
	assert.Equal(t, epoch.Add(13*time.Second), status.ResetTime)
}

func TestRateLimiter_ExecuteConsumesQuotaOnFailure(t *testing.T) {
	rl, _ := newManualLimiter(WithMaxRequests(1), WithWindow(time.Second), WithStrategy(StrategyReject))
	ctx := context.Background()
	boom := errors.New("boom")

	err := rl.Execute(ctx, func(ctx context.Context) error { return boom })
	assert.Equal(t, boom, err)

	ran := false
	err = rl.Execute(ctx, func(ctx context.Context) error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, ErrRateLimitExceeded)
	assert.False(t, ran, "denied operation is never invoked")
}

func TestRateLimiter_ConcurrentQueueWithSystemClock(t *testing.T) {
	rl := NewRateLimiter(WithMaxRequests(5), WithWindow(50*time.Millisecond), WithMaxQueueSize(20))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var (
		wg       sync.WaitGroup
		admitted atomic.Int32
	)
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := rl.Wait(ctx); err == nil {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(15), admitted.Load())
	assert.Equal(t, 0, rl.Status().QueueSize)
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"queue", StrategyQueue, false},
		{"", StrategyQueue, false},
		{"reject", StrategyReject, false},
		{"throw", StrategyReject, false},
		{"DROP", StrategyDrop, false},
		{"burst", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestStrategy_String(t *testing.T) {
	assert.Equal(t, "queue", StrategyQueue.String())
	assert.Equal(t, "reject", StrategyReject.String())
	assert.Equal(t, "drop", StrategyDrop.String())
	assert.Equal(t, "unknown", Strategy(99).String())
}
