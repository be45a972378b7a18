package scorable

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/root-signals/rs-sdk/auth"
	"github.com/root-signals/rs-sdk/cache"
	"github.com/root-signals/rs-sdk/observe"
	"github.com/root-signals/rs-sdk/resilience"
)

// Client is a typed client for the evaluation API.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Context: every call honors cancellation and deadlines.
//   - Errors: API failures are *APIError, transport failures *NetworkError.
//     Resource calls are sent once; wrap them in WithRetry,
//     WithRateLimit or WithRetryAndRateLimit to add resilience.
type Client struct {
	transport Transport
	retry     *resilience.RetryManager
	limiter   *resilience.RateLimiter
	executor  *resilience.Executor
	logger    observe.Logger
	metrics   observe.Metrics
	cache     *cache.CacheMiddleware

	Evaluators    *EvaluatorsService
	Judges        *JudgesService
	Objectives    *ObjectivesService
	Models        *ModelsService
	ExecutionLogs *ExecutionLogsService
	Datasets      *DatasetsService
}

// New creates a Client. The API key and base URL are resolved once.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Timeout < 0 {
		return nil, ErrInvalidTimeout
	}
	cfg, err := cfg.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil && cfg.Observer != nil {
		logger = cfg.Observer.Logger()
	}
	if logger == nil {
		logger = observe.NopLogger()
	}

	var (
		tracer  observe.Tracer
		metrics = observe.NopMetrics()
	)
	if cfg.Observer != nil {
		tracer = observe.NewTracer(cfg.Observer.Tracer())
		metrics, err = observe.NewMetrics(cfg.Observer.Meter())
		if err != nil {
			return nil, fmt.Errorf("scorable: create metrics: %w", err)
		}
	}
	mw := observe.NewMiddleware(tracer, metrics, logger)

	c := &Client{logger: logger, metrics: metrics}

	c.retry = resilience.NewRetryManager(cfg.Retry...)
	c.retry.Observe(c.onRetry)

	c.limiter = resilience.NewRateLimiter(cfg.RateLimit...)
	c.limiter.Observe(c.onRateLimited)

	c.executor = resilience.NewExecutor(
		resilience.WithRetryManager(c.retry),
		resilience.WithRateLimiter(c.limiter),
	)

	base := cfg.Transport
	if base == nil {
		creds := cfg.Credentials
		if creds == nil {
			creds = auth.NewAPIKey(cfg.APIKey, auth.APIKeyConfig{})
		}
		base, err = NewHTTPTransport(HTTPTransportConfig{
			BaseURL:      cfg.BaseURL,
			Timeout:      cfg.Timeout,
			Credentials:  creds,
			UserAgent:    cfg.UserAgent,
			RoundTripper: cfg.RoundTripper,
		})
		if err != nil {
			return nil, err
		}
	}
	if cfg.Cache != nil {
		policy := cfg.CachePolicy
		if !policy.ShouldCache() {
			policy = cache.DefaultPolicy()
		}
		c.cache = cache.NewCacheMiddleware(cfg.Cache, nil, policy, nil)
		base = &cachedTransport{next: base, mw: c.cache}
	}
	c.transport = newInstrumentedTransport(base, mw)

	c.Evaluators = &EvaluatorsService{client: c}
	c.Judges = &JudgesService{client: c}
	c.Objectives = &ObjectivesService{client: c}
	c.Models = &ModelsService{client: c}
	c.ExecutionLogs = &ExecutionLogsService{client: c}
	c.Datasets = &DatasetsService{client: c}

	logger.Debug(ctx, "client created",
		observe.Field{Key: "base_url", Value: cfg.BaseURL},
		observe.Field{Key: "timeout_ms", Value: cfg.Timeout.Milliseconds()},
		observe.Field{Key: "cache", Value: c.cache != nil},
	)
	return c, nil
}

// Retry returns the client's retry manager. Its UpdateConfig may replace
// the configured OnRetry; the client's retry logging and metrics stay
// registered through Observe.
func (c *Client) Retry() *resilience.RetryManager { return c.retry }

// RateLimiter returns the client's rate limiter. The client's denial
// logging and metrics survive UpdateConfig.
func (c *Client) RateLimiter() *resilience.RateLimiter { return c.limiter }

// Transport returns the instrumented transport used by the resource
// services, for endpoints without a typed wrapper.
func (c *Client) Transport() Transport { return c.transport }

// CacheStats returns the response cache counters. ok is false when caching
// is disabled.
func (c *Client) CacheStats() (stats cache.Stats, ok bool) {
	if c.cache == nil {
		return cache.Stats{}, false
	}
	return c.cache.Stats(), true
}

// WithRetry runs op under the client's retry manager.
func (c *Client) WithRetry(ctx context.Context, op func(context.Context) error) error {
	return c.retry.Execute(ctx, op)
}

// WithRateLimit runs op once admitted by the client's rate limiter.
func (c *Client) WithRateLimit(ctx context.Context, op func(context.Context) error) error {
	return c.limiter.Execute(ctx, op)
}

// WithRetryAndRateLimit retries op, admitting every attempt through the
// rate limiter.
func (c *Client) WithRetryAndRateLimit(ctx context.Context, op func(context.Context) error) error {
	return c.executor.Execute(ctx, op)
}

// Call runs a value-returning operation through WithRetryAndRateLimit.
func Call[T any](ctx context.Context, c *Client, op func(context.Context) (T, error)) (T, error) {
	return resilience.Do(ctx, c.executor, op)
}

func (c *Client) onRetry(err error, attempt int, delay time.Duration) {
	ctx := context.Background()
	c.logger.Warn(ctx, "retrying api request",
		observe.Int("attempt", attempt),
		observe.Millis("delay_ms", delay),
		observe.Err(err),
	)
	c.metrics.RecordRetry(ctx, attempt, delay)
}

func (c *Client) onRateLimited(remaining time.Duration) {
	ctx := context.Background()
	c.logger.Warn(ctx, "rate limit reached",
		observe.Millis("retry_after_ms", remaining),
	)
	c.metrics.RecordRateLimited(ctx, remaining)
}

// call sends req and decodes a successful body into out. op and message
// annotate API errors.
func (c *Client) call(ctx context.Context, req *Request, op, message string, out any) error {
	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return annotate(err, op, message)
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("scorable: decode %s response: %w", req.Operation().OperationID(), err)
	}
	return nil
}

// annotate returns a copy of an *APIError carrying the operation code and
// message. The original may be shared between callers of a cached read.
func annotate(err error, op, message string) error {
	apiErr, ok := AsAPIError(err)
	if !ok {
		return err
	}
	annotated := *apiErr
	if annotated.Code == "" {
		annotated.Code = op
	}
	if annotated.Message == "" {
		annotated.Message = message
	}
	return &annotated
}
