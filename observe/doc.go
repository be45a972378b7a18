// Package observe provides observability primitives for API calls.
//
// It is a pure instrumentation library: spans, metrics and structured logs.
// The scorable client wires an Observer into its transport chain and its
// retry and rate limit hooks.
package observe
