// Package scorable is a typed client for the Root Signals evaluation API.
//
// A Client exposes one service per API resource: Evaluators, Judges,
// Objectives, Models, ExecutionLogs and Datasets. Each call is a single
// HTTP request; reliability is opt-in through the client's RetryManager and
// RateLimiter.
//
// # Configuration
//
// The API key defaults to ROOTSIGNALS_API_KEY from the environment, then
// from a .env file in the working directory. ROOTSIGNALS_API_URL overrides
// the base URL.
//
//	client, err := scorable.New(ctx, scorable.Config{
//	    Retry: []resilience.RetryOption{resilience.WithMaxRetries(3)},
//	    RateLimit: []resilience.RateLimitOption{
//	        resilience.WithMaxRequests(10),
//	        resilience.WithWindow(time.Minute),
//	    },
//	})
//
// # Resilience
//
// WithRetryAndRateLimit retries an operation and admits every attempt
// through the rate limiter. Call is its value-returning form:
//
//	result, err := scorable.Call(ctx, client, func(ctx context.Context) (*scorable.ExecutionResult, error) {
//	    return client.Evaluators.ExecuteByName(ctx, "Helpfulness", payload)
//	})
//
// API failures are *APIError. Retryable failures are 429 and 5xx statuses,
// network errors and request timeouts.
//
// # Observability
//
// With Config.Observer set, every request gets a span named
// scorable.<resource>.<action> and request metrics; retries and rate limit
// denials are logged and counted.
package scorable
