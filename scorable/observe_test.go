package scorable

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/root-signals/rs-sdk/observe"
	"github.com/root-signals/rs-sdk/resilience"
)

// testObserver records spans and metrics in memory.
type testObserver struct {
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
	tp     *sdktrace.TracerProvider
	mp     *sdkmetric.MeterProvider
	logger observe.Logger
}

func newTestObserver() *testObserver {
	spans := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()
	return &testObserver{
		spans:  spans,
		reader: reader,
		tp:     sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)),
		mp:     sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		logger: &recordingLogger{},
	}
}

func (o *testObserver) Tracer() trace.Tracer   { return o.tp.Tracer("scorable-test") }
func (o *testObserver) Meter() metric.Meter    { return o.mp.Meter("scorable-test") }
func (o *testObserver) Logger() observe.Logger { return o.logger }
func (o *testObserver) Shutdown(ctx context.Context) error {
	_ = o.tp.Shutdown(ctx)
	return o.mp.Shutdown(ctx)
}

func (o *testObserver) counter(t *testing.T, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, o.reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

var _ observe.Observer = (*testObserver)(nil)

func TestClient_ObserverRecordsRequests(t *testing.T) {
	obs := newTestObserver()
	t.Cleanup(func() { _ = obs.Shutdown(context.Background()) })

	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"score": 0.6})
	}, func(cfg *Config) {
		cfg.Observer = obs
	})

	_, err := Call(context.Background(), c, func(ctx context.Context) (*ExecutionResult, error) {
		return c.Evaluators.ExecuteByName(ctx, "Relevance", ExecutionPayload{Response: "r"})
	})
	require.NoError(t, err)

	ended := obs.spans.Ended()
	require.Len(t, ended, 2)
	for _, span := range ended {
		assert.Equal(t, "scorable.evaluators.execute_by_name", span.Name())
	}

	assert.Equal(t, int64(2), obs.counter(t, "scorable.request.total"))
	assert.Equal(t, int64(1), obs.counter(t, "scorable.request.errors"))
	assert.Equal(t, int64(1), obs.counter(t, "scorable.retry.attempts"))

	logger := obs.logger.(*recordingLogger)
	assert.Equal(t, 1, logger.count("warn: retrying api request"))
	assert.Equal(t, 1, logger.count("error: api request failed"))
}

func TestClient_RetryLoggingSurvivesUpdateConfig(t *testing.T) {
	obs := newTestObserver()
	t.Cleanup(func() { _ = obs.Shutdown(context.Background()) })

	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"score": 0.6})
	}, func(cfg *Config) {
		cfg.Observer = obs
	})

	var userHook atomic.Int32
	c.Retry().UpdateConfig(resilience.WithOnRetry(func(error, int, time.Duration) { userHook.Add(1) }))

	_, err := Call(context.Background(), c, func(ctx context.Context) (*ExecutionResult, error) {
		return c.Evaluators.ExecuteByName(ctx, "Relevance", ExecutionPayload{Response: "r"})
	})
	require.NoError(t, err)

	assert.Equal(t, int32(1), userHook.Load())
	assert.Equal(t, int64(1), obs.counter(t, "scorable.retry.attempts"))
	assert.Equal(t, 1, obs.logger.(*recordingLogger).count("warn: retrying api request"))
}

func TestClient_ObserverRecordsRateLimitDenials(t *testing.T) {
	obs := newTestObserver()
	t.Cleanup(func() { _ = obs.Shutdown(context.Background()) })

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"results": []any{}})
	}, func(cfg *Config) {
		cfg.Observer = obs
		cfg.RateLimit = rejectAfter(1)
	})

	ctx := context.Background()
	list := func(ctx context.Context) error {
		_, err := c.Models.List(ctx, ModelListParams{})
		return err
	}
	require.NoError(t, c.WithRateLimit(ctx, list))
	require.Error(t, c.WithRateLimit(ctx, list))

	assert.Equal(t, int64(1), obs.counter(t, "scorable.request.total"))
	assert.Equal(t, int64(1), obs.counter(t, "scorable.ratelimit.denied"))
	assert.Equal(t, 1, obs.logger.(*recordingLogger).count("warn: rate limit reached"))
}
