package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// AggregatorConfig configures an Aggregator.
type AggregatorConfig struct {
	// Timeout bounds a whole Run, and a single Check.
	// Default: 10 seconds
	Timeout time.Duration

	// MaxConcurrency bounds the checks Run executes at once. Zero means
	// every check runs concurrently.
	MaxConcurrency int
}

// Report is the outcome of Aggregator.Run.
type Report struct {
	// Status is the worst status among Checks; healthy when there are none.
	Status    Status
	Checks    []NamedResult
	Timestamp time.Time
}

// NamedResult is one entry of a Report.
type NamedResult struct {
	Name   string
	Result Result
}

// Result returns the result of the named check.
func (r Report) Result(name string) (Result, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c.Result, true
		}
	}
	return Result{}, false
}

// Aggregator runs a set of named checkers concurrently. It is safe for
// concurrent use.
type Aggregator struct {
	timeout time.Duration
	limit   int

	mu       sync.RWMutex
	names    []string
	checkers map[string]Checker
}

// NewAggregator returns an empty aggregator.
func NewAggregator(config ...AggregatorConfig) *Aggregator {
	var cfg AggregatorConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Aggregator{
		timeout:  cfg.Timeout,
		limit:    cfg.MaxConcurrency,
		checkers: make(map[string]Checker),
	}
}

// Register adds checker under name. Re-registering a name replaces the
// checker in place, so report order stays the registration order.
func (a *Aggregator) Register(name string, checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.checkers[name]; !ok {
		a.names = append(a.names, name)
	}
	a.checkers[name] = checker
}

// Check runs the named checker alone.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	checker, ok := a.checkers[name]
	a.mu.RUnlock()
	if !ok {
		return Result{}, ErrCheckerNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return run(ctx, checker), nil
}

// Run executes every registered checker and reports in registration order.
// A checker still running at the timeout is reported unhealthy with
// ErrCheckTimeout.
func (a *Aggregator) Run(ctx context.Context) Report {
	a.mu.RLock()
	checks := make([]NamedResult, len(a.names))
	checkers := make([]Checker, len(a.names))
	for i, name := range a.names {
		checks[i].Name = name
		checkers[i] = a.checkers[name]
	}
	a.mu.RUnlock()

	report := Report{Status: StatusHealthy, Checks: checks, Timestamp: time.Now()}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var g errgroup.Group
	if a.limit > 0 {
		g.SetLimit(a.limit)
	}
	for i, checker := range checkers {
		g.Go(func() error {
			checks[i].Result = run(ctx, checker)
			return nil
		})
	}
	_ = g.Wait()

	for _, c := range checks {
		report.Status = report.Status.Worse(c.Result.Status)
	}
	return report
}

// run executes checker, abandoning it when ctx is done. Duration and a
// missing Timestamp are filled in.
func run(ctx context.Context, checker Checker) Result {
	start := time.Now()
	done := make(chan Result, 1)
	go func() { done <- checker.Check(ctx) }()

	var r Result
	select {
	case r = <-done:
	case <-ctx.Done():
		r = Unhealthy("check timed out", ErrCheckTimeout)
	}
	r.Duration = time.Since(start)
	if r.Timestamp.IsZero() {
		r.Timestamp = start
	}
	return r
}
