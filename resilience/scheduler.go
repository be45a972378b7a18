package resilience

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Scheduler is the time source used for retry delays and queue draining.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Sleep must return ctx.Err() when ctx is done before d elapses.
// - AfterFunc must never run f synchronously inside the AfterFunc call.
type Scheduler interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep suspends the caller for d.
	Sleep(ctx context.Context, d time.Duration) error

	// AfterFunc arranges for f to run once d has elapsed. A zero d means
	// "on the next tick". The returned stop func cancels a pending call and
	// reports whether it was still pending.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// SystemScheduler is a Scheduler backed by the time package.
type SystemScheduler struct{}

// Now returns time.Now().
func (SystemScheduler) Now() time.Time { return time.Now() }

// Sleep waits for d or until ctx is done.
func (SystemScheduler) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// AfterFunc wraps time.AfterFunc.
func (SystemScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	t := time.AfterFunc(d, f)
	return t.Stop
}

// ManualScheduler is a virtual clock. Time only moves when Advance is called,
// which makes retry and rate limit timing deterministic in tests.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*manualTimer
}

type manualTimer struct {
	at  time.Time
	seq uint64
	f   func()
}

// NewManualScheduler creates a virtual clock starting at start.
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

// Now returns the virtual time.
func (m *ManualScheduler) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Sleep blocks until the virtual clock has advanced by d or ctx is done.
func (m *ManualScheduler) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	done := make(chan struct{})
	stop := m.AfterFunc(d, func() { close(done) })

	select {
	case <-ctx.Done():
		stop()
		return ctx.Err()
	case <-done:
		return nil
	}
}

// AfterFunc registers f to run when the virtual clock reaches now+d.
func (m *ManualScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	if d < 0 {
		d = 0
	}

	m.mu.Lock()
	m.seq++
	t := &manualTimer{at: m.now.Add(d), seq: m.seq, f: f}
	m.timers = append(m.timers, t)
	m.mu.Unlock()

	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, pending := range m.timers {
			if pending == t {
				m.timers = append(m.timers[:i], m.timers[i+1:]...)
				return true
			}
		}
		return false
	}
}

// Advance moves the clock forward by d, running every callback that becomes
// due in deadline order. Callbacks scheduled while advancing also run if
// they fall inside the advanced range. Advance(0) flushes next-tick work.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)

	for {
		next := m.popDueLocked(target)
		if next == nil {
			break
		}
		if next.at.After(m.now) {
			m.now = next.at
		}
		m.mu.Unlock()
		next.f()
		m.mu.Lock()
	}

	m.now = target
	m.mu.Unlock()
}

// Pending returns the number of armed callbacks, including sleepers.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (m *ManualScheduler) popDueLocked(target time.Time) *manualTimer {
	if len(m.timers) == 0 {
		return nil
	}

	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].at.Equal(m.timers[j].at) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].at.Before(m.timers[j].at)
	})

	head := m.timers[0]
	if head.at.After(target) {
		return nil
	}
	m.timers = m.timers[1:]
	return head
}

var (
	_ Scheduler = SystemScheduler{}
	_ Scheduler = (*ManualScheduler)(nil)
)
