package scorable

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/root-signals/rs-sdk/auth"
	"github.com/root-signals/rs-sdk/observe"
	"github.com/root-signals/rs-sdk/resilience"
)

// newTestClient starts a server with handler and returns a client for it.
// Retries use a 1ms base delay.
func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*Config)) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Retry: []resilience.RetryOption{
			resilience.WithBaseDelay(time.Millisecond),
			resilience.WithMaxDelay(5 * time.Millisecond),
		},
	}
	for _, m := range mutate {
		m(&cfg)
	}

	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// rejectAfter allows n calls per hour and rejects the rest.
func rejectAfter(n int) []resilience.RateLimitOption {
	return []resilience.RateLimitOption{
		resilience.WithMaxRequests(n),
		resilience.WithWindow(time.Hour),
		resilience.WithStrategy(resilience.StrategyReject),
	}
}

// recordingLogger collects log entries.
type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+": "+msg)
}

func (l *recordingLogger) Info(_ context.Context, msg string, _ ...observe.Field)  { l.add("info", msg) }
func (l *recordingLogger) Warn(_ context.Context, msg string, _ ...observe.Field)  { l.add("warn", msg) }
func (l *recordingLogger) Error(_ context.Context, msg string, _ ...observe.Field) { l.add("error", msg) }
func (l *recordingLogger) Debug(_ context.Context, msg string, _ ...observe.Field) { l.add("debug", msg) }
func (l *recordingLogger) WithOperation(observe.OperationMeta) observe.Logger   { return l }

func (l *recordingLogger) count(entry string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e == entry {
			n++
		}
	}
	return n
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{
			name: "negative timeout",
			cfg:  Config{APIKey: "k", Timeout: -time.Second},
			want: ErrInvalidTimeout,
		},
		{
			name: "unsupported scheme",
			cfg:  Config{APIKey: "k", BaseURL: "ftp://example.com"},
			want: ErrInvalidBaseURL,
		},
		{
			name: "missing host",
			cfg:  Config{APIKey: "k", BaseURL: "https://"},
			want: ErrInvalidBaseURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNew_MissingAPIKey(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ROOTSIGNALS_API_KEY", "")

	_, err := New(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNew_CustomTransportNeedsNoKey(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ROOTSIGNALS_API_KEY", "")

	c, err := New(context.Background(), Config{
		Transport: TransportFunc(func(context.Context, *Request) (*Response, error) {
			return &Response{Status: http.StatusOK, Body: []byte(`{"id":"m1","name":"gpt"}`)}, nil
		}),
	})
	require.NoError(t, err)

	m, err := c.Models.Get(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "gpt", m.Name)
}

func TestNew_APIKeyFromEnvironment(t *testing.T) {
	var gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get(auth.HeaderAuthorization))
		writeJSON(w, http.StatusOK, map[string]any{"results": []any{}})
	}))
	defer srv.Close()

	t.Setenv("ROOTSIGNALS_API_KEY", "env-key")
	t.Setenv("ROOTSIGNALS_API_URL", srv.URL)

	c, err := New(context.Background(), Config{})
	require.NoError(t, err)

	_, err = c.Models.List(context.Background(), ModelListParams{})
	require.NoError(t, err)
	assert.Equal(t, "Api-Key env-key", gotAuth.Load())
}

func TestNew_APIKeyFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ROOTSIGNALS_API_KEY=dotenv-key\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("ROOTSIGNALS_API_KEY", "")

	var gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get(auth.HeaderAuthorization))
		writeJSON(w, http.StatusOK, map[string]any{"results": []any{}})
	}))
	defer srv.Close()

	c, err := New(context.Background(), Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Models.List(context.Background(), ModelListParams{})
	require.NoError(t, err)
	assert.Equal(t, "Api-Key dotenv-key", gotAuth.Load())
}

func TestClient_DefaultHeaders(t *testing.T) {
	var got http.Header
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeJSON(w, http.StatusOK, map[string]any{"id": "e1", "name": "Helpfulness"})
	})

	_, err := c.Evaluators.Get(context.Background(), "e1")
	require.NoError(t, err)

	assert.Equal(t, "Api-Key test-key", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, auth.DefaultUserAgent, got.Get("User-Agent"))
	_, err = uuid.Parse(got.Get(HeaderRequestID))
	assert.NoError(t, err, "request id should be a UUID")
}

func TestClient_CustomCredentials(t *testing.T) {
	var got string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"id": "m1"})
	}, func(cfg *Config) {
		cfg.APIKey = ""
		cfg.Credentials = auth.NewBearerToken("opaque-token", auth.BearerConfig{Opaque: true})
	})

	_, err := c.Models.Get(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer opaque-token", got)
}

func TestClient_WithRetryAndRateLimit_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	logger := &recordingLogger{}
	var hookCalls atomic.Int32

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"detail": "try later"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"score": 0.8, "justification": "ok"})
	}, func(cfg *Config) {
		cfg.Logger = logger
		cfg.Retry = append(cfg.Retry, resilience.WithOnRetry(func(error, int, time.Duration) {
			hookCalls.Add(1)
		}))
	})

	result, err := Call(context.Background(), c, func(ctx context.Context) (*ExecutionResult, error) {
		return c.Evaluators.ExecuteByName(ctx, "Helpfulness", ExecutionPayload{Request: "q", Response: "a"})
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, result.Score, 1e-9)
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, int32(2), hookCalls.Load(), "caller hook runs after client instrumentation")
	assert.Equal(t, 2, logger.count("warn: retrying api request"))
}

func TestClient_ResourceCallsAreNotRetried(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusBadGateway, map[string]any{})
	})

	_, err := c.Models.List(context.Background(), ModelListParams{})
	assert.ErrorIs(t, err, ErrServer)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_WithRetry_DoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found.", "code": "not_found"})
	})

	err := c.WithRetry(context.Background(), func(ctx context.Context) error {
		_, err := c.Evaluators.Get(ctx, "missing")
		return err
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), hits.Load())

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "not_found", apiErr.Code)
	assert.Equal(t, "scorable: failed to get evaluator missing: Not found.", apiErr.Error())
}

func TestClient_WithRateLimit_Reject(t *testing.T) {
	var remaining atomic.Int64
	logger := &recordingLogger{}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	}, func(cfg *Config) {
		cfg.Logger = logger
		cfg.RateLimit = []resilience.RateLimitOption{
			resilience.WithMaxRequests(1),
			resilience.WithWindow(time.Hour),
			resilience.WithStrategy(resilience.StrategyReject),
			resilience.WithOnRateLimitExceeded(func(d time.Duration) { remaining.Store(int64(d)) }),
		}
	})

	noop := func(context.Context) error { return nil }
	require.NoError(t, c.WithRateLimit(context.Background(), noop))

	err := c.WithRateLimit(context.Background(), noop)
	assert.ErrorIs(t, err, resilience.ErrRateLimitExceeded)
	assert.Positive(t, remaining.Load(), "caller hook receives the time to the next slot")
	assert.Equal(t, 1, logger.count("warn: rate limit reached"))
	assert.Equal(t, 0, c.RateLimiter().Status().RequestsRemaining)
}

func TestClient_AccessorsExposeConfiguredPrimitives(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, func(cfg *Config) {
		cfg.Retry = append(cfg.Retry, resilience.WithMaxRetries(7))
		cfg.RateLimit = []resilience.RateLimitOption{resilience.WithMaxRequests(42)}
	})

	assert.Equal(t, 7, c.Retry().Config().MaxRetries)
	assert.Equal(t, 42, c.RateLimiter().Config().MaxRequests)
	assert.NotNil(t, c.Transport())

	_, ok := c.CacheStats()
	assert.False(t, ok)
}

func TestClient_ContextCancellation(t *testing.T) {
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.WithRetry(ctx, func(ctx context.Context) error {
		_, err := c.Models.Get(ctx, "m1")
		return err
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)

	var netErr *NetworkError
	assert.False(t, errors.As(err, &netErr), "caller deadlines are not network errors")
}
