package health

import "errors"

var (
	// ErrCheckFailed wraps the error a checker observed.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout is the Result.Error of a check that outlived the
	// aggregator timeout.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned by Aggregator.Check for an unknown name.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrCapacityExhausted is the Result.Error of a saturated resource.
	ErrCapacityExhausted = errors.New("health: capacity exhausted")
)
