package resilience

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// Strategy selects what happens when the quota is exhausted.
type Strategy int

const (
	// StrategyQueue parks the caller in a FIFO queue until a slot frees.
	StrategyQueue Strategy = iota
	// StrategyReject denies the call immediately.
	StrategyReject
	// StrategyDrop denies the call immediately with a "dropped" reason.
	StrategyDrop
)

// String returns the string representation of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyQueue:
		return "queue"
	case StrategyReject:
		return "reject"
	case StrategyDrop:
		return "drop"
	default:
		return "unknown"
	}
}

// ParseStrategy parses a strategy name. "throw" is accepted as an alias
// for "reject".
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "queue", "":
		return StrategyQueue, nil
	case "reject", "throw":
		return StrategyReject, nil
	case "drop":
		return StrategyDrop, nil
	default:
		return 0, fmt.Errorf("resilience: unknown rate limit strategy %q", s)
	}
}

// RateLimitConfig configures the rate limiter.
type RateLimitConfig struct {
	// MaxRequests is the quota within one window.
	// Default: 100
	MaxRequests int

	// Window is the sliding window length.
	// Default: 60s
	Window time.Duration

	// Strategy is the behavior once the quota is exhausted.
	// Default: StrategyQueue
	Strategy Strategy

	// MaxQueueSize bounds the waiter queue under StrategyQueue.
	// Default: 50
	MaxQueueSize int

	// OnRateLimitExceeded is called once per blocked admission attempt with
	// the time until the next slot frees, regardless of strategy.
	OnRateLimitExceeded func(remaining time.Duration)

	// Scheduler provides the clock and the drain loop timers.
	// Default: SystemScheduler
	Scheduler Scheduler
}

// DefaultRateLimitConfig returns the default rate limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests:  100,
		Window:       time.Minute,
		Strategy:     StrategyQueue,
		MaxQueueSize: 50,
		Scheduler:    SystemScheduler{},
	}
}

func (c *RateLimitConfig) normalize() {
	def := DefaultRateLimitConfig()
	if c.MaxRequests <= 0 {
		c.MaxRequests = def.MaxRequests
	}
	if c.Window <= 0 {
		c.Window = def.Window
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = def.MaxQueueSize
	}
	if c.Scheduler == nil {
		c.Scheduler = def.Scheduler
	}
}

// RateLimitOption sets a subset of RateLimitConfig.
type RateLimitOption func(*RateLimitConfig)

// WithMaxRequests sets the per-window quota.
func WithMaxRequests(n int) RateLimitOption {
	return func(c *RateLimitConfig) { c.MaxRequests = n }
}

// WithWindow sets the sliding window length.
func WithWindow(d time.Duration) RateLimitOption {
	return func(c *RateLimitConfig) { c.Window = d }
}

// WithStrategy sets the exhaustion strategy.
func WithStrategy(s Strategy) RateLimitOption {
	return func(c *RateLimitConfig) { c.Strategy = s }
}

// WithMaxQueueSize sets the queue bound.
func WithMaxQueueSize(n int) RateLimitOption {
	return func(c *RateLimitConfig) { c.MaxQueueSize = n }
}

// WithOnRateLimitExceeded sets the denial observer.
func WithOnRateLimitExceeded(fn func(remaining time.Duration)) RateLimitOption {
	return func(c *RateLimitConfig) { c.OnRateLimitExceeded = fn }
}

// WithRateLimitScheduler sets the clock and timer source.
func WithRateLimitScheduler(s Scheduler) RateLimitOption {
	return func(c *RateLimitConfig) { c.Scheduler = s }
}

// WithRateLimitConfig replaces the whole configuration.
func WithRateLimitConfig(cfg RateLimitConfig) RateLimitOption {
	return func(c *RateLimitConfig) { *c = cfg }
}

// RateLimitStatus is a snapshot of the limiter state.
type RateLimitStatus struct {
	// RequestsRemaining is the number of admissions still available in the
	// current window.
	RequestsRemaining int

	// ResetTime is when the oldest ledger entry leaves the window, or now
	// when the ledger is empty.
	ResetTime time.Time

	// QueueSize is the number of callers waiting for admission.
	QueueSize int
}

type drainState int

const (
	drainIdle drainState = iota
	drainActive
)

// waiter is one caller parked in the queue. done receives nil on
// admission or the denial error.
type waiter struct {
	done chan error
}

// RateLimiter admits operations under a sliding-window quota.
//
// Quota is consumed at admission time and never refunded, whatever the
// outcome of the operation.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Ordering: queued callers are admitted in FIFO order.
// - Errors: denials are *RateLimitError; operation errors pass through.
type RateLimiter struct {
	mu     sync.Mutex
	config RateLimitConfig
	hooks  []func(remaining time.Duration)

	ledger []time.Time
	queue  []*waiter

	state drainState
	// gen invalidates drain callbacks armed before a Reset or UpdateConfig.
	gen  uint64
	stop func() bool
}

// NewRateLimiter creates a rate limiter from the defaults plus opts.
func NewRateLimiter(opts ...RateLimitOption) *RateLimiter {
	cfg := DefaultRateLimitConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.normalize()

	return &RateLimiter{config: cfg}
}

// Execute waits for admission and then runs op.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := rl.Wait(ctx); err != nil {
		return err
	}
	return op(ctx)
}

// Wait blocks until the caller is admitted or denied. Under StrategyQueue a
// caller whose ctx is done before admission leaves the queue and receives
// ctx.Err().
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rl.mu.Lock()
	cfg, hooks := rl.config, rl.hooks
	now := cfg.Scheduler.Now()
	rl.purgeLocked(now)

	if len(rl.ledger) < cfg.MaxRequests {
		rl.ledger = append(rl.ledger, now)
		rl.mu.Unlock()
		return nil
	}

	remaining := rl.remainingLocked(now)

	var (
		w      *waiter
		denial error
	)
	switch cfg.Strategy {
	case StrategyReject:
		denial = newRateLimitError(remaining, ReasonExceeded)
	case StrategyDrop:
		denial = newRateLimitError(remaining, ReasonDropped)
	default:
		if len(rl.queue) >= cfg.MaxQueueSize {
			denial = newRateLimitError(remaining, ReasonQueueFull)
		} else {
			w = &waiter{done: make(chan error, 1)}
			rl.queue = append(rl.queue, w)
			rl.startDrainLocked()
		}
	}
	rl.mu.Unlock()

	for _, hook := range hooks {
		hook(remaining)
	}
	if cfg.OnRateLimitExceeded != nil {
		cfg.OnRateLimitExceeded(remaining)
	}

	if denial != nil {
		return denial
	}

	select {
	case err := <-w.done:
		return err
	case <-ctx.Done():
		rl.mu.Lock()
		removed := rl.removeWaiterLocked(w)
		rl.mu.Unlock()
		if !removed {
			// Admitted or denied concurrently; the slot is not refunded.
			<-w.done
		}
		return ctx.Err()
	}
}

// Status returns the current quota snapshot.
func (rl *RateLimiter) Status() RateLimitStatus {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.config.Scheduler.Now()
	rl.purgeLocked(now)

	remaining := rl.config.MaxRequests - len(rl.ledger)
	if remaining < 0 {
		remaining = 0
	}

	reset := now
	if len(rl.ledger) > 0 {
		reset = rl.oldestLocked().Add(rl.config.Window)
	}

	return RateLimitStatus{
		RequestsRemaining: remaining,
		ResetTime:         reset,
		QueueSize:         len(rl.queue),
	}
}

// Config returns a copy of the current configuration.
func (rl *RateLimiter) Config() RateLimitConfig {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.config
}

// Observe registers fn to run once per blocked admission attempt, ahead of
// RateLimitConfig.OnRateLimitExceeded. UpdateConfig never removes it.
func (rl *RateLimiter) Observe(fn func(remaining time.Duration)) {
	if fn == nil {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.hooks = append(slices.Clip(rl.hooks), fn)
}

// UpdateConfig merges opts into the current configuration. Ledger entries
// and queued waiters are kept; the next admission check uses the new
// values.
func (rl *RateLimiter) UpdateConfig(opts ...RateLimitOption) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cfg := rl.config
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.normalize()
	rl.config = cfg

	// Re-arm the drain loop so a larger quota or shorter window is seen by
	// waiters without waiting out the previously scheduled wake-up.
	if len(rl.queue) > 0 {
		rl.disarmLocked()
		rl.startDrainLocked()
	}
}

// Reset clears the ledger and fails every queued waiter with a reset
// error. Calls already past admission are unaffected.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.ledger = nil
	for _, w := range rl.queue {
		w.done <- newRateLimitError(0, ReasonReset)
	}
	rl.queue = nil
	rl.disarmLocked()
}

// startDrainLocked arms the drain loop unless it is already running.
func (rl *RateLimiter) startDrainLocked() {
	if rl.state == drainActive {
		return
	}
	rl.state = drainActive
	rl.scheduleLocked(0)
}

func (rl *RateLimiter) scheduleLocked(d time.Duration) {
	gen := rl.gen
	rl.stop = rl.config.Scheduler.AfterFunc(d, func() { rl.drainStep(gen) })
}

func (rl *RateLimiter) disarmLocked() {
	if rl.stop != nil {
		rl.stop()
		rl.stop = nil
	}
	rl.gen++
	rl.state = drainIdle
}

// drainStep admits at most one waiter and re-arms itself: on the next tick
// while waiters remain and capacity exists, or when the oldest ledger entry
// expires.
func (rl *RateLimiter) drainStep(gen uint64) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if gen != rl.gen || rl.state != drainActive {
		return
	}
	rl.stop = nil

	now := rl.config.Scheduler.Now()
	rl.purgeLocked(now)

	if len(rl.queue) == 0 {
		rl.state = drainIdle
		return
	}

	if len(rl.ledger) >= rl.config.MaxRequests {
		rl.scheduleLocked(rl.remainingLocked(now))
		return
	}

	head := rl.queue[0]
	rl.queue[0] = nil
	rl.queue = rl.queue[1:]
	rl.ledger = append(rl.ledger, now)
	head.done <- nil

	if len(rl.queue) > 0 {
		rl.scheduleLocked(0)
		return
	}
	rl.state = drainIdle
}

func (rl *RateLimiter) removeWaiterLocked(w *waiter) bool {
	for i, queued := range rl.queue {
		if queued == w {
			rl.queue = append(rl.queue[:i], rl.queue[i+1:]...)
			return true
		}
	}
	return false
}

// purgeLocked drops ledger entries that have left the window.
func (rl *RateLimiter) purgeLocked(now time.Time) {
	kept := rl.ledger[:0]
	for _, ts := range rl.ledger {
		if now.Sub(ts) < rl.config.Window {
			kept = append(kept, ts)
		}
	}
	for i := len(kept); i < len(rl.ledger); i++ {
		rl.ledger[i] = time.Time{}
	}
	rl.ledger = kept
}

func (rl *RateLimiter) oldestLocked() time.Time {
	oldest := rl.ledger[0]
	for _, ts := range rl.ledger[1:] {
		if ts.Before(oldest) {
			oldest = ts
		}
	}
	return oldest
}

// remainingLocked returns the time until the oldest entry expires.
func (rl *RateLimiter) remainingLocked(now time.Time) time.Duration {
	if len(rl.ledger) == 0 {
		return 0
	}
	remaining := rl.oldestLocked().Add(rl.config.Window).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
