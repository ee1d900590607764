package registry

import (
	"errors"
	"strings"
	"testing"

	"github.com/flemzord/syncmcp/internal/config"
)

func newTestRegistry(t *testing.T, instances map[string]config.Instance) *Registry {
	t.Helper()
	return New(nil, instances)
}

func TestResolve_NamedInstance(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, map[string]config.Instance{
		"nas": {URL: "http://nas:8384", APIKey: "k"},
	})
	client, err := r.Resolve("nas")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if client.Name() != "nas" {
		t.Fatalf("Name = %q", client.Name())
	}
}

func TestResolve_EmptyRegistry(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, map[string]config.Instance{})
	for _, name := range []string{"", "nas"} {
		_, err := r.Resolve(name)
		if !errors.Is(err, ErrInstanceNotFound) {
			t.Fatalf("Resolve(%q) = %v, want ErrInstanceNotFound", name, err)
		}
		if !strings.Contains(err.Error(), "no instances configured") {
			t.Fatalf("Resolve(%q) error = %q", name, err)
		}
	}
}

func TestResolve_EmptyWithSingleInstance(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, map[string]config.Instance{
		"default": {URL: "http://localhost:8384", APIKey: "k"},
	})
	client, err := r.Resolve("")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if client.Name() != "default" {
		t.Fatalf("Name = %q", client.Name())
	}
}

func TestResolve_EmptyWithMultipleInstances(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, map[string]config.Instance{
		"nas":    {URL: "http://nas:8384", APIKey: "k"},
		"laptop": {URL: "http://laptop:8384", APIKey: "k"},
	})
	_, err := r.Resolve("")
	if !errors.Is(err, ErrAmbiguousInstance) {
		t.Fatalf("expected ErrAmbiguousInstance, got %v", err)
	}
	// The message must name the candidates so the caller can pick one.
	if !strings.Contains(err.Error(), "laptop") || !strings.Contains(err.Error(), "nas") {
		t.Fatalf("error must list instance names, got %q", err.Error())
	}
}

func TestResolve_UnknownInstance(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, map[string]config.Instance{
		"nas": {URL: "http://nas:8384", APIKey: "k"},
	})
	_, err := r.Resolve("missing")
	if !errors.Is(err, ErrInstanceNotFound) {
		t.Fatalf("expected ErrInstanceNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "nas") {
		t.Fatalf("error must list available instances, got %q", err.Error())
	}
}

func TestReload_ReplacesInstances(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, map[string]config.Instance{
		"old": {URL: "http://old:8384", APIKey: "k"},
	})
	r.Reload(map[string]config.Instance{
		"new": {URL: "http://new:8384", APIKey: "k"},
	})

	if _, err := r.Resolve("old"); err == nil {
		t.Fatal("old instance must be gone after reload")
	}
	if _, err := r.Resolve("new"); err != nil {
		t.Fatalf("new instance missing: %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
}

func TestNames_Sorted(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, map[string]config.Instance{
		"zeta": {URL: "http://z:8384"},
		"alpha": {URL: "http://a:8384"},
	})
	names := r.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Fatalf("Names = %v, want [alpha zeta]", names)
	}
}
