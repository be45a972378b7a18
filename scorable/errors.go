package scorable

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for client configuration and API failures.
var (
	// ErrMissingAPIKey is returned when no API key could be resolved.
	ErrMissingAPIKey = errors.New("scorable: missing API key")

	// ErrInvalidBaseURL is returned when the base URL is not an absolute
	// http(s) URL.
	ErrInvalidBaseURL = errors.New("scorable: invalid base URL")

	// ErrInvalidTimeout is returned for a negative request timeout.
	ErrInvalidTimeout = errors.New("scorable: timeout must not be negative")

	// ErrInvalidParams is returned when call arguments are rejected before
	// any request is sent.
	ErrInvalidParams = errors.New("scorable: invalid parameters")

	// ErrAuthentication matches API errors caused by rejected credentials.
	ErrAuthentication = errors.New("scorable: authentication failed")

	// ErrQuota matches API errors caused by server-side throttling.
	ErrQuota = errors.New("scorable: quota exceeded")

	// ErrValidation matches API errors caused by a rejected request body.
	ErrValidation = errors.New("scorable: validation failed")

	// ErrNotFound matches API errors for missing resources.
	ErrNotFound = errors.New("scorable: not found")

	// ErrResponseTooLarge matches a successful response whose body exceeds
	// the transport's size limit.
	ErrResponseTooLarge = errors.New("scorable: response body too large")

	// ErrServer matches API errors with a 5xx status.
	ErrServer = errors.New("scorable: server error")
)

// ErrorDetails is the problem document returned by the API on failure.
// Unknown members are kept in Extra.
type ErrorDetails struct {
	Type     string         `json:"type,omitempty"`
	Title    string         `json:"title,omitempty"`
	Detail   string         `json:"detail,omitempty"`
	Instance string         `json:"instance,omitempty"`
	Code     string         `json:"code,omitempty"`
	Extra    map[string]any `json:"-"`
}

// UnmarshalJSON decodes the known members and collects the rest into Extra.
func (d *ErrorDetails) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	take := func(key string) string {
		v, ok := raw[key]
		if !ok {
			return ""
		}
		delete(raw, key)
		s, _ := v.(string)
		return s
	}
	*d = ErrorDetails{
		Type:     take("type"),
		Title:    take("title"),
		Detail:   take("detail"),
		Instance: take("instance"),
		Code:     take("code"),
	}
	if len(raw) > 0 {
		d.Extra = raw
	}
	return nil
}

// APIError is returned for every non-2xx API response.
//
// Contract:
//   - StatusCode reports the HTTP status, so resilience.DefaultRetryCondition
//     retries 429 and 5xx responses.
//   - errors.Is matches ErrAuthentication, ErrQuota, ErrValidation,
//     ErrNotFound and ErrServer according to the Is* predicates.
type APIError struct {
	// Status is the HTTP status code.
	Status int

	// Code is the machine readable error code. It is the server's code when
	// the body carries one, otherwise the failed operation, e.g.
	// "GET_EVALUATOR_FAILED".
	Code string

	// Details is the decoded error body.
	Details ErrorDetails

	// Message is the human readable summary.
	Message string

	// RequestID is the X-Request-ID sent with the failed request.
	RequestID string
}

// Error implements error. The message is Message, then Details.Detail, then
// Details.Title, then a generic status line. A server detail is appended to
// Message when both are present.
func (e *APIError) Error() string {
	switch {
	case e.Message != "" && e.Details.Detail != "":
		return "scorable: " + e.Message + ": " + e.Details.Detail
	case e.Message != "":
		return "scorable: " + e.Message
	case e.Details.Detail != "":
		return "scorable: " + e.Details.Detail
	case e.Details.Title != "":
		return "scorable: " + e.Details.Title
	}
	return fmt.Sprintf("scorable: API Error %d: %s", e.Status, e.Code)
}

// StatusCode returns the HTTP status.
func (e *APIError) StatusCode() int { return e.Status }

// IsAuthentication reports a 401 or an authentication error code.
func (e *APIError) IsAuthentication() bool {
	return e.Status == http.StatusUnauthorized || e.hasCode("authentication_failed", "not_authenticated")
}

// IsQuota reports a 429 or a throttling error code.
func (e *APIError) IsQuota() bool {
	return e.Status == http.StatusTooManyRequests || e.hasCode("throttled")
}

// IsValidation reports a 400 or a validation error code.
func (e *APIError) IsValidation() bool {
	return e.Status == http.StatusBadRequest || e.hasCode("invalid", "parse_error")
}

// IsNotFound reports a 404 or a not_found error code.
func (e *APIError) IsNotFound() bool {
	return e.Status == http.StatusNotFound || e.hasCode("not_found")
}

// IsServer reports a 5xx status.
func (e *APIError) IsServer() bool {
	return e.Status >= http.StatusInternalServerError
}

// Is matches the category sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrAuthentication:
		return e.IsAuthentication()
	case ErrQuota:
		return e.IsQuota()
	case ErrValidation:
		return e.IsValidation()
	case ErrNotFound:
		return e.IsNotFound()
	case ErrServer:
		return e.IsServer()
	}
	return false
}

func (e *APIError) hasCode(codes ...string) bool {
	for _, c := range codes {
		if strings.EqualFold(e.Code, c) || strings.EqualFold(e.Details.Code, c) {
			return true
		}
	}
	return false
}

// AsAPIError unwraps err to an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// NetworkError reports a request that never produced an HTTP response.
// It is transient, so the default retry condition retries it.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("scorable: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Transient reports true; the request can be retried.
func (e *NetworkError) Transient() bool { return true }

// ResponseTooLargeError reports a successful response whose body exceeds
// HTTPTransportConfig.MaxResponseBytes. It is not retried.
type ResponseTooLargeError struct {
	Limit     int64
	RequestID string
}

func (e *ResponseTooLargeError) Error() string {
	return fmt.Sprintf("%v: limit %d bytes", ErrResponseTooLarge, e.Limit)
}

// Is matches ErrResponseTooLarge.
func (e *ResponseTooLargeError) Is(target error) bool { return target == ErrResponseTooLarge }

// newAPIError builds an APIError from a failed response. op is the fallback
// code and message is the operation summary.
func newAPIError(resp *Response, op, message string) *APIError {
	apiErr := &APIError{
		Status:    resp.Status,
		Code:      op,
		Message:   message,
		RequestID: resp.RequestID,
	}
	if len(resp.Body) > 0 {
		var details ErrorDetails
		if err := json.Unmarshal(resp.Body, &details); err == nil {
			apiErr.Details = details
			if details.Code != "" {
				apiErr.Code = details.Code
			}
		} else {
			apiErr.Details.Detail = strings.TrimSpace(string(resp.Body))
		}
	}
	return apiErr
}
