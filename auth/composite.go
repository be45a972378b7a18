package auth

import (
	"context"
	"net/http"
	"strings"
)

// ChainCredentials applies multiple credentials in sequence.
type ChainCredentials struct {
	// Credentials is the ordered list of credentials to apply. Later
	// credentials overwrite headers set by earlier ones.
	Credentials []Credentials
}

// Chain creates a chain of credentials. Nil entries are skipped.
func Chain(creds ...Credentials) *ChainCredentials {
	c := &ChainCredentials{}
	for _, cred := range creds {
		if cred != nil {
			c.Credentials = append(c.Credentials, cred)
		}
	}
	return c
}

// Name joins the member names with "+".
func (c *ChainCredentials) Name() string {
	if len(c.Credentials) == 0 {
		return "chain"
	}
	names := make([]string, len(c.Credentials))
	for i, cred := range c.Credentials {
		names[i] = cred.Name()
	}
	return strings.Join(names, "+")
}

// Apply applies every credential. The first error stops the chain and the
// header is left as it was before Apply.
func (c *ChainCredentials) Apply(ctx context.Context, header http.Header) error {
	if len(c.Credentials) == 0 {
		return ErrMissingCredentials
	}

	staged := header.Clone()
	if staged == nil {
		staged = make(http.Header)
	}
	for _, cred := range c.Credentials {
		if err := cred.Apply(ctx, staged); err != nil {
			return err
		}
	}

	for k := range header {
		delete(header, k)
	}
	for k, v := range staged {
		header[k] = v
	}
	return nil
}

// Ensure ChainCredentials implements Credentials
var _ Credentials = (*ChainCredentials)(nil)
