package auth

import "net/http"

// Transport is an http.RoundTripper that adds default headers and
// credentials to every request.
//
// Header precedence, lowest first: Defaults, headers from WithHeaders,
// headers already on the request, credentials. Credentials from
// WithCredentials replace Credentials for that request.
//
// Usage:
//
//	client := &http.Client{
//	    Transport: auth.NewTransport(auth.NewAPIKey(key, auth.APIKeyConfig{}), nil),
//	}
type Transport struct {
	// Base performs the request. Default: http.DefaultTransport
	Base http.RoundTripper

	// Credentials authenticate the request. Nil sends no credentials.
	Credentials Credentials

	// Defaults are set when the request does not carry them.
	Defaults http.Header
}

// NewTransport creates a Transport with DefaultHeaders(DefaultUserAgent).
func NewTransport(creds Credentials, base http.RoundTripper) *Transport {
	return &Transport{
		Base:        base,
		Credentials: creds,
		Defaults:    DefaultHeaders(""),
	}
}

// RoundTrip implements http.RoundTripper. The caller's request is never
// modified.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	out := req.Clone(ctx)

	addMissing(out.Header, HeadersFromContext(ctx))
	addMissing(out.Header, t.Defaults)

	creds := CredentialsFromContext(ctx)
	if creds == nil {
		creds = t.Credentials
	}
	if creds != nil {
		if err := creds.Apply(ctx, out.Header); err != nil {
			if req.Body != nil {
				_ = req.Body.Close()
			}
			return nil, err
		}
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(out)
}

func addMissing(dst, src http.Header) {
	for k, v := range src {
		if len(dst.Values(k)) > 0 {
			continue
		}
		for _, val := range v {
			dst.Add(k, val)
		}
	}
}

// Ensure Transport implements http.RoundTripper
var _ http.RoundTripper = (*Transport)(nil)
