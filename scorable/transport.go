package scorable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/root-signals/rs-sdk/auth"
	"github.com/root-signals/rs-sdk/cache"
	"github.com/root-signals/rs-sdk/observe"
	"github.com/root-signals/rs-sdk/resilience"
)

// HeaderRequestID carries the per-request correlation ID.
const HeaderRequestID = "X-Request-ID"

// DefaultMaxResponseBytes bounds the size of a decoded response body.
const DefaultMaxResponseBytes int64 = 32 << 20

// Request is one API call.
type Request struct {
	Method string
	Path   string // relative to the base URL, e.g. "/v1/evaluators/"
	Query  url.Values
	Body   any // JSON encoded when non-nil

	// NoCache bypasses the response cache.
	NoCache bool

	// Resource and Action name the operation for telemetry.
	Resource string
	Action   string
}

// Operation returns the telemetry description of the request.
func (r *Request) Operation() observe.OperationMeta {
	return observe.OperationMeta{
		Resource: r.Resource,
		Action:   r.Action,
		Method:   r.Method,
		Path:     r.Path,
	}
}

// Response is a successful API response.
//
// A response answered from the cache, or shared with a concurrent identical
// read, has Cached set, Status 200, and no Header or RequestID.
type Response struct {
	Status    int
	Header    http.Header
	Body      []byte
	RequestID string
	Cached    bool
}

// Transport sends API requests.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Context: must honor cancellation and deadlines.
//   - Errors: a non-2xx status is returned as *APIError; a request that got
//     no response is returned as *NetworkError or the context error.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Do calls f.
func (f TransportFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// HTTPTransportConfig configures an HTTPTransport.
type HTTPTransportConfig struct {
	// BaseURL is the API root. Required.
	BaseURL string

	// Timeout bounds a single HTTP exchange. Zero means no limit.
	Timeout time.Duration

	// Credentials authenticate every request.
	Credentials auth.Credentials

	// UserAgent overrides auth.DefaultUserAgent.
	UserAgent string

	// RoundTripper is the underlying transport.
	// Default: http.DefaultTransport
	RoundTripper http.RoundTripper

	// MaxResponseBytes bounds the response body. A larger successful body
	// fails with *ResponseTooLargeError; a larger error body is truncated.
	// Default: DefaultMaxResponseBytes
	MaxResponseBytes int64
}

// HTTPTransport is the default Transport: JSON over net/http with auth
// headers applied by auth.Transport.
type HTTPTransport struct {
	base     *url.URL
	client   *http.Client
	maxBytes int64
}

// NewHTTPTransport creates an HTTPTransport.
func NewHTTPTransport(cfg HTTPTransportConfig) (*HTTPTransport, error) {
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = DefaultMaxResponseBytes
	}

	rt := auth.NewTransport(cfg.Credentials, cfg.RoundTripper)
	rt.Defaults = auth.DefaultHeaders(cfg.UserAgent)

	return &HTTPTransport{
		base:     base,
		client:   &http.Client{Transport: rt, Timeout: cfg.Timeout},
		maxBytes: cfg.MaxResponseBytes,
	}, nil
}

// Do sends req and reads the whole response.
func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	u := *t.base
	// req.Path is already escaped; keep escaped IDs such as "a%2Fb" intact.
	rawPath := strings.TrimSuffix(t.base.EscapedPath(), "/") + "/" + strings.TrimPrefix(req.Path, "/")
	path, err := url.PathUnescape(rawPath)
	if err != nil {
		return nil, fmt.Errorf("scorable: invalid path %q: %w", req.Path, err)
	}
	u.Path, u.RawPath = path, rawPath
	u.RawQuery = ""
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("scorable: encode %s request: %w", req.Operation().OperationID(), err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("scorable: build request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set(HeaderRequestID, requestID)
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, t.classify(req.Method, u.Redacted(), err)
	}
	defer httpResp.Body.Close()

	// One byte past the limit tells a full body from a truncated one.
	data, err := io.ReadAll(io.LimitReader(httpResp.Body, t.maxBytes+1))
	if err != nil {
		return nil, &NetworkError{Method: req.Method, URL: u.Redacted(), Err: err}
	}
	tooLarge := int64(len(data)) > t.maxBytes
	if tooLarge {
		data = data[:t.maxBytes]
	}

	resp := &Response{
		Status:    httpResp.StatusCode,
		Header:    httpResp.Header,
		Body:      data,
		RequestID: requestID,
	}
	if resp.Status < 200 || resp.Status > 299 {
		return nil, newAPIError(resp, "", "")
	}
	if tooLarge {
		return nil, &ResponseTooLargeError{Limit: t.maxBytes, RequestID: requestID}
	}
	return resp, nil
}

func (t *HTTPTransport) classify(method, target string, err error) error {
	switch {
	case isClientTimeout(err):
		return &resilience.TimeoutError{Timeout: t.client.Timeout}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, auth.ErrMissingCredentials),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrTokenExpired):
		// Strip *url.Error: it is a net.Error and would read as retryable.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("scorable: %w", err)
	}
	return &NetworkError{Method: method, URL: target, Err: err}
}

// isClientTimeout reports an http.Client.Timeout expiry as opposed to the
// caller's own deadline.
func isClientTimeout(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout() && strings.Contains(urlErr.Error(), "Client.Timeout")
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, raw)
	}
	return u, nil
}

// instrumentedTransport records a span, metrics and a log line per request.
type instrumentedTransport struct {
	next Transport
	exec observe.ExecuteFunc
}

func newInstrumentedTransport(next Transport, mw *observe.Middleware) *instrumentedTransport {
	return &instrumentedTransport{
		next: next,
		exec: mw.Wrap(func(ctx context.Context, _ observe.OperationMeta, input any) (any, error) {
			return next.Do(ctx, input.(*Request))
		}),
	}
}

func (t *instrumentedTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	out, err := t.exec(ctx, req.Operation(), req)
	if err != nil {
		return nil, err
	}
	return out.(*Response), nil
}

// cachedTransport answers repeated reads from a cache.
type cachedTransport struct {
	next Transport
	mw   *cache.CacheMiddleware
}

func (t *cachedTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	if req.NoCache {
		return t.next.Do(ctx, req)
	}

	// Only the body is cached. fetched is set by this caller's own fetch;
	// it is read only after Execute returns the fetch's result.
	var fetched *Response
	body, err := t.mw.Execute(ctx, req.Method, req.Path, req.Query, func(ctx context.Context) ([]byte, error) {
		r, err := t.next.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		fetched = r
		return r.Body, nil
	})
	if err != nil {
		return nil, err
	}
	if fetched != nil {
		return fetched, nil
	}
	return &Response{Status: http.StatusOK, Body: body, Cached: true}, nil
}

var (
	_ Transport = (*HTTPTransport)(nil)
	_ Transport = TransportFunc(nil)
	_ Transport = (*instrumentedTransport)(nil)
	_ Transport = (*cachedTransport)(nil)
)
