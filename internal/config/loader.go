package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config file names, looked up in the working directory.
const (
	ConfigFileName    = "paleo.yaml"
	ConfigFileNameAlt = "paleo.yml"
)

// envPrefix is the prefix for environment variable overrides
// (e.g. PALEO_STORE_BACKEND -> store.backend).
const envPrefix = "PALEO_"

// findConfigFile finds the config file to use.
// Priority: explicit path > paleo.yaml > paleo.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}
	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName
	}
	if _, err := os.Stat(ConfigFileNameAlt); err == nil {
		return ConfigFileNameAlt
	}
	return ""
}

// flagKeys maps CLI flag names to config keys. Flags not listed here do not
// feed into the config.
var flagKeys = map[string]string{
	"backend":  "store.backend",
	"database": "store.database",
	"host":     "store.host",
	"port":     "store.port",
	"user":     "store.user",
	"verbose":  "verbose",
	"output":   "output",
}

// Load loads configuration from file, environment, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// cfgFile may name an explicit config file; flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, string, error) {
	k := koanf.New(".")

	// Defaults first so later layers override them.
	defaults := confmap.Provider(map[string]any{
		"store.backend": DefaultBackend,
		"render.format": DefaultRenderFormat,
		"output":        DefaultOutput,
	}, ".")
	if err := k.Load(defaults, nil); err != nil {
		return nil, "", fmt.Errorf("failed to load defaults: %w", err)
	}

	configFile := findConfigFile(cfgFile)
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, "", fmt.Errorf("failed to load config file %s: %w", configFile, err)
		}
	} else if cfgFile != "" {
		return nil, "", fmt.Errorf("config file not found: %s", cfgFile)
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, "", fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		flagProvider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(flagProvider, nil); err != nil {
			return nil, "", fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return &cfg, configFile, nil
}
