// Package config provides configuration loading for paleo. It is decoupled
// from CLI concerns so that other tools can load the same project
// configuration.
package config

import (
	"fmt"

	"github.com/paleoml/paleo/internal/store"
)

// StoreConfig holds metadata store connection settings.
type StoreConfig struct {
	Backend string `koanf:"backend"` // sqlite, postgres

	// File-based backends (SQLite)
	Database string `koanf:"database"` // file path or database name

	// Network backends
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Additional driver-specific options (e.g. sslmode)
	Options map[string]string `koanf:"options"`
}

// Validate checks the store configuration against the backend registry.
func (s *StoreConfig) Validate() error {
	if s.Backend == "" {
		return fmt.Errorf("store backend is required")
	}
	if !store.IsRegistered(s.Backend) {
		return &store.UnknownBackendError{
			Backend:   s.Backend,
			Available: store.ListBackends(),
		}
	}
	return nil
}

// ToStoreConfig converts to the backend registry's config type.
func (s *StoreConfig) ToStoreConfig() store.Config {
	return store.Config{
		Backend:  s.Backend,
		Database: s.Database,
		Host:     s.Host,
		Port:     s.Port,
		User:     s.User,
		Password: s.Password,
		Options:  s.Options,
	}
}

// RenderConfig holds lineage rendering settings.
type RenderConfig struct {
	Format      string `koanf:"format"` // svg, png, pdf
	Dir         string `koanf:"dir"`
	Attribution bool   `koanf:"attribution"`
	Association bool   `koanf:"association"`
}

// Config is the full paleo configuration.
type Config struct {
	Store        *StoreConfig  `koanf:"store"`
	Render       *RenderConfig `koanf:"render"`
	Verbose      bool          `koanf:"verbose"`
	OutputFormat string        `koanf:"output"`
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if c.Store == nil {
		return fmt.Errorf("store configuration is required")
	}
	return c.Store.Validate()
}
