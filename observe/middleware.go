package observe

import (
	"context"
	"time"
)

// ExecuteFunc performs one API operation. input and the result are opaque to
// the middleware.
type ExecuteFunc func(ctx context.Context, op OperationMeta, input any) (any, error)

// Middleware records a span, the request metrics and a completion log line
// around every ExecuteFunc it wraps. Wrapped functions are safe for
// concurrent use when fn is; errors are returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware builds a Middleware. Nil components become no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	mw := &Middleware{tracer: tracer, metrics: metrics, logger: logger}
	if mw.tracer == nil {
		mw.tracer = newNoopTracer()
	}
	if mw.metrics == nil {
		mw.metrics = NopMetrics()
	}
	if mw.logger == nil {
		mw.logger = NopLogger()
	}
	return mw
}

// MiddlewareFromObserver builds a Middleware on the observer's tracer, meter
// and logger.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Wrap instruments fn. Successful operations log at debug, failures at
// error with an "error" field.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, op OperationMeta, input any) (any, error) {
		ctx, span := m.tracer.StartSpan(ctx, op)
		start := time.Now()

		out, err := fn(ctx, op, input)

		elapsed := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordRequest(ctx, op, elapsed, err)

		log := m.logger.WithOperation(op)
		if err != nil {
			log.Error(ctx, "api request failed", Millis("duration_ms", elapsed), Err(err))
		} else {
			log.Debug(ctx, "api request completed", Millis("duration_ms", elapsed))
		}
		return out, err
	}
}

// Metrics returns the middleware's metrics sink.
func (m *Middleware) Metrics() Metrics { return m.metrics }

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger { return m.logger }
