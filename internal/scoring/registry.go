package scoring

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds every questionnaire version the service can score against,
// so results stay reproducible under the version they were created with.
type Registry struct {
	mu             sync.RWMutex
	engines        map[string]*Engine
	defaultVersion string
}

// NewRegistry builds a registry from the given catalogs. The first catalog
// becomes the default version.
func NewRegistry(catalogs ...*Catalog) (*Registry, error) {
	r := &Registry{engines: make(map[string]*Engine, len(catalogs))}
	for _, c := range catalogs {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register validates a catalog and makes it available under its version.
// Re-registering an existing version is a configuration error.
func (r *Registry) Register(c *Catalog) error {
	engine, err := NewEngine(c)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.engines[c.Version]; exists {
		return &ConfigurationError{Version: c.Version, Problems: []string{"version already registered"}}
	}
	r.engines[c.Version] = engine
	if r.defaultVersion == "" {
		r.defaultVersion = c.Version
	}
	return nil
}

// SetDefault selects the version used when callers do not pin one.
func (r *Registry) SetDefault(version string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.engines[version]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCatalogVersion, version)
	}
	r.defaultVersion = version
	return nil
}

// DefaultVersion returns the version used for unpinned submissions.
func (r *Registry) DefaultVersion() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultVersion
}

// Engine returns the engine for version, or the default engine when version
// is empty.
func (r *Registry) Engine(version string) (*Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if version == "" {
		version = r.defaultVersion
	}
	engine, ok := r.engines[version]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCatalogVersion, version)
	}
	return engine, nil
}

// Versions lists registered versions in lexical order.
func (r *Registry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.engines))
	for v := range r.engines {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
