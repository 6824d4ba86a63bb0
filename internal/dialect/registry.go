package dialect

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/upsql/internal/sqlgen"
)

// ErrUnknownProvider is returned when no generator is registered for a
// provider name.
var ErrUnknownProvider = errors.New("unknown database provider")

// Registry maps database provider names (driver names such as "pgx" or
// "sqlserver") to generators.
//
// Thread-safety: All methods are safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{generators: make(map[string]Generator)}
}

// NewDefaultRegistry creates a registry with the built-in providers:
// postgres, pgx and sqlite3 use OnConflict with double-quoted
// identifiers; sqlserver and mssql use Merge with bracketed identifiers.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	onConflict := NewOnConflict(WithQuoter(sqlgen.DoubleQuotes{}))
	merge := NewMerge(WithQuoter(sqlgen.Brackets{}))
	for _, p := range []string{"postgres", "pgx", "sqlite3"} {
		r.generators[p] = onConflict
	}
	for _, p := range []string{"sqlserver", "mssql"} {
		r.generators[p] = merge
	}
	return r
}

// Register adds a generator for provider. Registering a provider twice is
// an error.
func (r *Registry) Register(provider string, g Generator) error {
	if provider == "" || g == nil {
		return fmt.Errorf("register: provider name and generator are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.generators[provider]; ok {
		return fmt.Errorf("register: provider %q already registered", provider)
	}
	r.generators[provider] = g
	return nil
}

// Lookup returns the generator for provider.
func (r *Registry) Lookup(provider string) (Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.generators[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	return g, nil
}

// Providers returns the registered provider names in sorted order.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewDefaultRegistry()

// Default returns the process-wide registry holding the built-in
// providers.
func Default() *Registry {
	return defaultRegistry
}
