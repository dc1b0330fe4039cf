package provider

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Registry holds at most one provider per name.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]ActionProvider
	logger    *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		providers: make(map[string]ActionProvider),
		logger:    logger,
	}
}

// Register adds a provider under its name. Re-registering an existing name
// replaces the previous instance: last registration wins. This is
// intentional, so bootstrap code can override a default wiring.
func (r *Registry) Register(p ActionProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[p.Name()]; ok {
		r.logger.Warn("replacing registered provider", zap.String("provider", p.Name()))
	}
	r.providers[p.Name()] = p
	r.logger.Info("registered provider",
		zap.String("provider", p.Name()),
		zap.String("type", string(p.Type())),
	)
}

// Get returns the provider registered under name. The error names the
// available providers so misconfiguration is obvious from the message.
func (r *Registry) Get(name string) (ActionProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrNotRegistered, name, strings.Join(r.namesLocked(), ", "))
	}
	return p, nil
}

// ListByType returns all providers of the given type, ordered by name.
func (r *Registry) ListByType(t Type) []ActionProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ActionProvider
	for _, name := range r.namesLocked() {
		if p := r.providers[name]; p.Type() == t {
			out = append(out, p)
		}
	}
	return out
}

// All returns every registered provider, ordered by name.
func (r *Registry) All() []ActionProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ActionProvider, 0, len(r.providers))
	for _, name := range r.namesLocked() {
		out = append(out, r.providers[name])
	}
	return out
}

// Has reports whether a provider is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// namesLocked returns sorted provider names. Caller must hold r.mu.
func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
