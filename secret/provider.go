package secret

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Provider resolves secrets by reference string.
//
// Implementations must be safe for concurrent use and must not log secret values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
	Close() error
}

// EnvProvider resolves references against the process environment.
//
//	secretref:env:ROOTSIGNALS_API_KEY
type EnvProvider struct {
	lookup LookupFunc
}

// NewEnvProvider creates an environment provider. A nil lookup uses
// os.LookupEnv.
func NewEnvProvider(lookup LookupFunc) *EnvProvider {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &EnvProvider{lookup: lookup}
}

// Name returns "env".
func (p *EnvProvider) Name() string { return "env" }

// Resolve returns the value of the variable named ref.
func (p *EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := p.lookup(strings.TrimSpace(ref))
	if !ok {
		return "", fmt.Errorf("env %q: %w", ref, ErrSecretNotFound)
	}
	return v, nil
}

// Close is a no-op.
func (p *EnvProvider) Close() error { return nil }

// DefaultDotEnvPath is the file read by DotEnvProvider when no path is given.
const DefaultDotEnvPath = ".env"

// DotEnvProvider resolves references against KEY=VALUE lines of a .env
// file. The file is read once, on first use.
//
//	secretref:dotenv:ROOTSIGNALS_API_KEY
type DotEnvProvider struct {
	path string

	once   sync.Once
	values map[string]string
	err    error
}

// NewDotEnvProvider creates a provider for the file at path. An empty path
// selects DefaultDotEnvPath.
func NewDotEnvProvider(path string) *DotEnvProvider {
	if path == "" {
		path = DefaultDotEnvPath
	}
	return &DotEnvProvider{path: path}
}

// Name returns "dotenv".
func (p *DotEnvProvider) Name() string { return "dotenv" }

// Resolve returns the value of key ref in the file.
func (p *DotEnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	p.once.Do(func() {
		p.values, p.err = godotenv.Read(p.path)
	})
	if p.err != nil {
		return "", fmt.Errorf("dotenv %s: %w", p.path, p.err)
	}

	v, ok := p.values[strings.TrimSpace(ref)]
	if !ok {
		return "", fmt.Errorf("dotenv %q: %w", ref, ErrSecretNotFound)
	}
	return v, nil
}

// Close is a no-op.
func (p *DotEnvProvider) Close() error { return nil }

var (
	_ Provider = (*EnvProvider)(nil)
	_ Provider = (*DotEnvProvider)(nil)
)
