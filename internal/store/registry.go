// Package store provides the metadata store backend registry. Backend
// implementations register themselves in init() and are opened by name.
package store

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/paleoml/paleo/pkg/metadata"
)

// Config holds backend connection settings. Which fields matter depends on
// the backend: sqlite uses Database as a file path (":memory:" for an
// in-memory store), postgres uses the network fields.
type Config struct {
	Backend  string
	Database string
	Host     string
	Port     int
	User     string
	Password string
	Options  map[string]string
}

// Factory opens a store backend from config.
type Factory func(cfg Config, logger *slog.Logger) (metadata.Store, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a backend factory to the registry.
// Called by backend implementations in their init() functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Open opens a metadata store for the configured backend.
// A nil logger falls back to a discard logger inside the backend.
func Open(cfg Config, logger *slog.Logger) (metadata.Store, error) {
	if cfg.Backend == "" {
		return nil, fmt.Errorf("store backend not specified")
	}

	registryMu.RLock()
	factory, ok := registry[cfg.Backend]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnknownBackendError{
			Backend:   cfg.Backend,
			Available: ListBackends(),
		}
	}
	return factory(cfg, logger)
}

// ListBackends returns all registered backend names (sorted).
func ListBackends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownBackendError is returned when an unknown backend is requested.
type UnknownBackendError struct {
	Backend   string
	Available []string
}

func (e *UnknownBackendError) Error() string {
	return fmt.Sprintf("unknown store backend %q\nAvailable backends: %v\nHint: Check store.backend in paleo.yaml", e.Backend, e.Available)
}
