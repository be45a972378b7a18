package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// BearerConfig configures a bearer token credential.
type BearerConfig struct {
	// HeaderName is the header carrying the token.
	// Default: "Authorization"
	HeaderName string

	// Scheme prefixes the token in the header value.
	// Default: "Bearer"
	Scheme string

	// Leeway is subtracted from the token expiry so that a token about to
	// expire is not sent.
	Leeway time.Duration

	// Opaque disables JWT inspection for tokens that are not JWTs.
	Opaque bool

	// Now returns the current time. Default: time.Now
	Now func() time.Time
}

// BearerToken authenticates requests with a bearer token, typically a
// short-lived JWT issued for the API.
//
// The token signature is not verified; that is the server's job. The claims
// are only read to fail fast on expired tokens and to expose the Identity.
type BearerToken struct {
	token  string
	config BearerConfig
}

// NewBearerToken creates a bearer token credential.
func NewBearerToken(token string, config BearerConfig) *BearerToken {
	if config.HeaderName == "" {
		config.HeaderName = HeaderAuthorization
	}
	if config.Scheme == "" {
		config.Scheme = SchemeBearer
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	token = strings.TrimSpace(token)
	token = strings.TrimSpace(strings.TrimPrefix(token, config.Scheme+" "))

	return &BearerToken{
		token:  token,
		config: config,
	}
}

// Name returns "bearer".
func (b *BearerToken) Name() string {
	return "bearer"
}

// Apply sets the configured header to "<scheme> <token>".
func (b *BearerToken) Apply(_ context.Context, header http.Header) error {
	if b.token == "" {
		return fmt.Errorf("bearer token: %w", ErrMissingCredentials)
	}

	if !b.config.Opaque {
		id, err := b.Identity()
		if err != nil {
			return err
		}
		if !id.ExpiresAt.IsZero() && !b.config.Now().Add(b.config.Leeway).Before(id.ExpiresAt) {
			return wrapJWTError(ErrTokenExpired)
		}
	}

	header.Set(b.config.HeaderName, b.config.Scheme+" "+b.token)
	return nil
}

// Identity decodes the token claims without verifying the signature.
func (b *BearerToken) Identity() (*Identity, error) {
	if b.token == "" {
		return nil, fmt.Errorf("bearer token: %w", ErrMissingCredentials)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(b.token, claims); err != nil {
		return nil, wrapJWTError(fmt.Errorf("%w: %v", ErrTokenMalformed, err))
	}

	identity := &Identity{
		Method: AuthMethodBearer,
		Claims: make(map[string]any, len(claims)),
	}
	for k, v := range claims {
		identity.Claims[k] = v
	}

	if sub, err := claims.GetSubject(); err == nil {
		identity.Principal = sub
	}
	if iss, err := claims.GetIssuer(); err == nil {
		identity.Issuer = iss
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, wrapJWTError(fmt.Errorf("%w: exp: %v", ErrTokenMalformed, err))
	}
	if exp != nil {
		identity.ExpiresAt = exp.Time
	}

	iat, err := claims.GetIssuedAt()
	if err != nil {
		return nil, wrapJWTError(fmt.Errorf("%w: iat: %v", ErrTokenMalformed, err))
	}
	if iat != nil {
		identity.IssuedAt = iat.Time
	}

	return identity, nil
}

// String never reveals the token.
func (b *BearerToken) String() string {
	return "bearer:" + HashAPIKey(b.token)[:12]
}

// Ensure BearerToken implements Credentials
var _ Credentials = (*BearerToken)(nil)

func wrapJWTError(err error) error {
	return fmt.Errorf("jwt: %w", err)
}
