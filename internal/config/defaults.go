package config

// Default configuration values.
const (
	DefaultBackend      = "sqlite"
	DefaultDatabase     = "paleo.db"
	DefaultRenderFormat = "svg"
	DefaultOutput       = "auto"
)

// ApplyDefaults fills in default values on a Config.
func (c *Config) ApplyDefaults() {
	if c.Store == nil {
		c.Store = &StoreConfig{}
	}
	if c.Store.Backend == "" {
		c.Store.Backend = DefaultBackend
	}
	if c.Store.Backend == "sqlite" && c.Store.Database == "" {
		c.Store.Database = DefaultDatabase
	}
	if c.Store.Backend == "postgres" && c.Store.Port == 0 {
		c.Store.Port = 5432
	}

	if c.Render == nil {
		c.Render = &RenderConfig{}
	}
	if c.Render.Format == "" {
		c.Render.Format = DefaultRenderFormat
	}

	if c.OutputFormat == "" {
		c.OutputFormat = DefaultOutput
	}
}
