// Package registry resolves named Syncthing instances to client handles.
// The registry is built once at startup and is safe for concurrent reads;
// Reload exists to support test isolation and is not used on production
// code paths.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/flemzord/syncmcp/internal/config"
	"github.com/flemzord/syncmcp/internal/syncthing"
)

// Registry maps instance names to clients.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*syncthing.Client
	logger  *slog.Logger
	opts    []syncthing.Option
}

// New builds a registry from the configured instance map. Instances missing
// credentials get a one-line warning on the diagnostics channel; this never
// fails the load.
func New(logger *slog.Logger, instances map[string]config.Instance, opts ...syncthing.Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{logger: logger, opts: opts}
	r.Reload(instances)
	return r
}

// Reload atomically replaces the instance mapping. Not safe to interleave
// with concurrent reads outside controlled situations (test setup).
func (r *Registry) Reload(instances map[string]config.Instance) {
	clients := make(map[string]*syncthing.Client, len(instances))
	for name, inst := range instances {
		client := syncthing.New(name, inst.URL, inst.APIKey, r.opts...)
		if !client.HasAPIKey() {
			r.logger.Warn("API key missing for instance", "instance", name)
		}
		clients[name] = client
	}

	r.mu.Lock()
	r.clients = clients
	r.mu.Unlock()
}

// Resolve returns the client for the named instance. With an empty name it
// returns the sole configured instance, or fails when more than one is
// configured: there is no silent default among multiple instances.
func (r *Registry) Resolve(name string) (*syncthing.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.clients) == 0 {
		return nil, fmt.Errorf("%w: no instances configured", ErrInstanceNotFound)
	}

	if name == "" {
		if len(r.clients) == 1 {
			for _, c := range r.clients {
				return c, nil
			}
		}
		return nil, fmt.Errorf("%w: multiple instances configured (%v); specify 'instance' to choose one",
			ErrAmbiguousInstance, r.namesLocked())
	}

	c, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("%w: instance '%s' not found (available: %v)",
			ErrInstanceNotFound, name, r.namesLocked())
	}
	return c, nil
}

// All returns every configured client, keyed by name.
func (r *Registry) All() map[string]*syncthing.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*syncthing.Client, len(r.clients))
	for name, c := range r.clients {
		out[name] = c
	}
	return out
}

// Names returns the configured instance names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

// Len returns the number of configured instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
