package secret

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
)

// RefPrefix starts every secret reference: secretref:<provider>:<ref>.
const RefPrefix = "secretref:"

// Resolver turns configuration values into secrets.
//
// A value is first expanded with ExpandEnvStrict, then every reference in
// it, whether the whole value or embedded as in "Api-Key secretref:env:KEY",
// is replaced by its provider's answer. A reference extends to the next
// whitespace. A nil *Resolver only expands the environment.
type Resolver struct {
	providers map[string]Provider
	strict    bool
}

// NewResolver returns a resolver over providers. A strict resolver rejects
// empty secrets with ErrEmptySecret.
func NewResolver(strict bool, providers ...Provider) *Resolver {
	r := &Resolver{providers: make(map[string]Provider, len(providers)), strict: strict}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds provider, replacing any provider of the same name.
func (r *Resolver) Register(provider Provider) {
	if r == nil || provider == nil {
		return
	}
	if r.providers == nil {
		r.providers = make(map[string]Provider)
	}
	r.providers[provider.Name()] = provider
}

// Providers returns the registered provider names in sorted order.
func (r *Resolver) Providers() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.providers))
}

// Close closes every provider and joins their errors.
func (r *Resolver) Close() error {
	var errs []error
	for _, name := range r.Providers() {
		if err := r.providers[name].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// ResolveValue expands the environment in value, then resolves its secret
// references.
func (r *Resolver) ResolveValue(ctx context.Context, value string) (string, error) {
	expanded, err := ExpandEnvStrict(value)
	if err != nil {
		return "", err
	}
	if r == nil {
		return expanded, nil
	}

	var firstErr error
	out := embeddedRef.ReplaceAllStringFunc(expanded, func(match string) string {
		if firstErr != nil {
			return match
		}
		provider, ref, _ := ParseSecretRef(match)
		secret, err := r.lookup(ctx, provider, ref)
		if err != nil {
			firstErr = err
			return match
		}
		return secret
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// ParseSecretRef splits a value of the form secretref:<provider>:<ref>.
// The ref may itself contain colons.
func ParseSecretRef(value string) (provider, ref string, ok bool) {
	rest, found := strings.CutPrefix(value, RefPrefix)
	if !found {
		return "", "", false
	}
	provider, ref, found = strings.Cut(rest, ":")
	if !found || provider == "" || ref == "" {
		return "", "", false
	}
	return provider, ref, true
}

var embeddedRef = regexp.MustCompile(`secretref:[^:\s]+:\S+`)

func (r *Resolver) lookup(ctx context.Context, provider, ref string) (string, error) {
	if strings.TrimSpace(provider) == "" || strings.TrimSpace(ref) == "" {
		return "", fmt.Errorf("%w: secretref:%s:%s", ErrInvalidRef, provider, ref)
	}
	p, ok := r.providers[provider]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrProviderNotRegistered, provider)
	}
	secret, err := p.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if r.strict && secret == "" {
		return "", fmt.Errorf("%w: %q", ErrEmptySecret, provider)
	}
	return secret, nil
}
