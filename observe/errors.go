package observe

import (
	"errors"

	"github.com/root-signals/rs-sdk/observe/exporters"
)

// Configuration errors.
var (
	// ErrInvalidSamplePct indicates Tracing.SamplePct is not in [0.0, 1.0].
	ErrInvalidSamplePct = errors.New("observe: sample percentage must be between 0.0 and 1.0")

	// ErrInvalidTracingExporter indicates an unknown tracing exporter name.
	ErrInvalidTracingExporter = errors.New("observe: invalid tracing exporter")

	// ErrInvalidMetricsExporter indicates an unknown metrics exporter name.
	ErrInvalidMetricsExporter = errors.New("observe: invalid metrics exporter")

	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("observe: invalid log level")

	// ErrInvalidLogFormat indicates an unknown log format.
	ErrInvalidLogFormat = errors.New("observe: invalid log format")

	// ErrEndpointNotConfigured indicates the OTLP exporter has no endpoint.
	ErrEndpointNotConfigured = exporters.ErrEndpointNotConfigured
)

// Runtime errors.
var (
	// ErrNilObserver indicates a nil Observer was provided.
	ErrNilObserver = errors.New("observe: observer is nil")

	// ErrMissingResource indicates OperationMeta.Resource is empty.
	ErrMissingResource = errors.New("observe: operation resource is required")
)

const (
	MinSamplePct = 0.0
	MaxSamplePct = 1.0
)

// RedactedFields lists log field keys whose values are never written.
// Matching ignores case, '_', '-' and '.', so "apiKey" covers "api_key" and
// "API-Key".
var RedactedFields = []string{
	"api_key",
	"x_api_key",
	"authorization",
	"token",
	"access_token",
	"secret",
	"password",
	"credential",
	"cookie",
}
