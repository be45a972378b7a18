package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records API call metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordRequest records one API request with duration and error status.
	RecordRequest(ctx context.Context, meta OperationMeta, duration time.Duration, err error)

	// RecordRetry records a scheduled retry. attempt counts from 1.
	RecordRetry(ctx context.Context, attempt int, delay time.Duration)

	// RecordRateLimited records an admission that found the quota exhausted.
	RecordRateLimited(ctx context.Context, remaining time.Duration)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter        metric.Meter
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
	retryCount   metric.Int64Counter
	limitedCount metric.Int64Counter
}

// NewMetrics creates the request, retry and rate limit instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"scorable.request.total",
		metric.WithDescription("Total number of API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"scorable.request.errors",
		metric.WithDescription("Total number of failed API requests"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"scorable.request.duration_ms",
		metric.WithDescription("API request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	retryCount, err := meter.Int64Counter(
		"scorable.retry.attempts",
		metric.WithDescription("Total number of scheduled retries"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	limitedCount, err := meter.Int64Counter(
		"scorable.ratelimit.denied",
		metric.WithDescription("Admissions that found the rate limit quota exhausted"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
		retryCount:   retryCount,
		limitedCount: limitedCount,
	}, nil
}

// RecordRequest records metrics for an API request.
func (m *metricsImpl) RecordRequest(ctx context.Context, meta OperationMeta, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("scorable.operation", meta.OperationID()),
		attribute.String("scorable.resource", meta.Resource),
	}
	if meta.Method != "" {
		attrs = append(attrs, attribute.String("http.request.method", meta.Method))
	}

	opt := metric.WithAttributes(attrs...)

	// Always increment total counter
	m.totalCount.Add(ctx, 1, opt)

	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}

	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordRetry increments the retry counter.
func (m *metricsImpl) RecordRetry(ctx context.Context, attempt int, delay time.Duration) {
	m.retryCount.Add(ctx, 1, metric.WithAttributes(attribute.Int("scorable.retry.attempt", attempt)))
}

// RecordRateLimited increments the rate limit counter.
func (m *metricsImpl) RecordRateLimited(ctx context.Context, remaining time.Duration) {
	m.limitedCount.Add(ctx, 1)
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics { return &noopMetrics{} }

func (m *noopMetrics) RecordRequest(ctx context.Context, meta OperationMeta, duration time.Duration, err error) {
}

func (m *noopMetrics) RecordRetry(ctx context.Context, attempt int, delay time.Duration) {}

func (m *noopMetrics) RecordRateLimited(ctx context.Context, remaining time.Duration) {}
