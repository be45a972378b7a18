package secret

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestRegistry_RegisterAndCreate(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register("stub", func(cfg map[string]any) (Provider, error) {
		return &stubProvider{name: "stub"}, nil
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	p, err := reg.Create("stub", map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p == nil || p.Name() != "stub" {
		t.Fatalf("unexpected provider: %#v", p)
	}
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register("stub", func(cfg map[string]any) (Provider, error) { return &stubProvider{name: "stub"}, nil })

	if err := reg.Register("stub", func(cfg map[string]any) (Provider, error) { return &stubProvider{name: "stub"}, nil }); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestRegistry_CreateUnknown(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Create("missing", nil); !errors.Is(err, ErrProviderNotRegistered) {
		t.Fatalf("Create() error = %v, want ErrProviderNotRegistered", err)
	}
}

func TestRegistry_NewResolver(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register("stub", func(cfg map[string]any) (Provider, error) {
		return &stubProvider{name: "stub", values: map[string]string{"k": cfg["value"].(string)}}, nil
	})

	r, err := reg.NewResolver(true, map[string]map[string]any{"stub": {"value": "v"}})
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	got, err := r.ResolveValue(context.Background(), "secretref:stub:k")
	if err != nil {
		t.Fatalf("ResolveValue() error = %v", err)
	}
	if got != "v" {
		t.Fatalf("ResolveValue() = %q, want %q", got, "v")
	}
}

func TestRegistry_NewResolverFactoryError(t *testing.T) {
	reg := NewRegistry()
	boom := errors.New("boom")
	_ = reg.Register("bad", func(map[string]any) (Provider, error) { return nil, boom })

	if _, err := reg.NewResolver(true, nil); !errors.Is(err, boom) {
		t.Fatalf("NewResolver() error = %v, want %v", err, boom)
	}
}

func TestDefaultRegistry_BuiltinProviders(t *testing.T) {
	if got, want := DefaultRegistry.List(), []string{"dotenv", "env"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
}

func TestNewDefaultResolver(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ROOTSIGNALS_API_KEY=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("RS_TEST_KEY", "from-env")

	r, err := NewDefaultResolver()
	if err != nil {
		t.Fatalf("NewDefaultResolver() error = %v", err)
	}
	defer r.Close()

	got, err := r.ResolveValue(context.Background(), "secretref:env:RS_TEST_KEY")
	if err != nil || got != "from-env" {
		t.Fatalf("ResolveValue(env) = %q, %v", got, err)
	}
	got, err = r.ResolveValue(context.Background(), "secretref:dotenv:ROOTSIGNALS_API_KEY")
	if err != nil || got != "from-file" {
		t.Fatalf("ResolveValue(dotenv) = %q, %v", got, err)
	}
}
