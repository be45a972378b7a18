package secret

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ProviderFactory creates a Provider from configuration.
type ProviderFactory func(cfg map[string]any) (Provider, error)

// Registry manages provider factories.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]ProviderFactory
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]ProviderFactory)}
}

// Register adds a provider factory.
func (r *Registry) Register(name string, factory ProviderFactory) error {
	if strings.TrimSpace(name) == "" || factory == nil {
		return errors.New("secret: invalid provider registration")
	}
	name = strings.TrimSpace(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("secret: provider %q already registered", name)
	}
	r.providers[name] = factory
	return nil
}

// Create instantiates a provider by name.
func (r *Registry) Create(name string, cfg map[string]any) (Provider, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("secret: provider name is required")
	}

	r.mu.RLock()
	factory, ok := r.providers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotRegistered, name)
	}

	return factory(cfg)
}

// List returns registered provider names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewResolver creates a Resolver holding one provider per registered
// factory. cfgs maps provider names to factory configuration; missing
// entries pass a nil configuration.
func (r *Registry) NewResolver(strict bool, cfgs map[string]map[string]any) (*Resolver, error) {
	res := NewResolver(strict)
	var errs []error
	for _, name := range r.List() {
		p, err := r.Create(name, cfgs[name])
		if err != nil {
			errs = append(errs, fmt.Errorf("create %q: %w", name, err))
			continue
		}
		res.Register(p)
	}
	if err := errors.Join(errs...); err != nil {
		_ = res.Close()
		return nil, err
	}
	return res, nil
}

// DefaultRegistry is the global registry for secret providers. It has the
// "env" and "dotenv" providers registered.
var DefaultRegistry = NewRegistry()

// NewDefaultResolver creates a strict resolver from DefaultRegistry with
// default provider configuration.
func NewDefaultResolver() (*Resolver, error) {
	return DefaultRegistry.NewResolver(true, nil)
}

func init() {
	_ = DefaultRegistry.Register("env", func(map[string]any) (Provider, error) {
		return NewEnvProvider(nil), nil
	})
	_ = DefaultRegistry.Register("dotenv", func(cfg map[string]any) (Provider, error) {
		path, _ := cfg["path"].(string)
		return NewDotEnvProvider(path), nil
	})
}
