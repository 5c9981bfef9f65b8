package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/longkedev/lkcalc/formula"
)

// configFile is consulted in the working directory when --config is
// not given. Its absence is not an error.
const configFile = "lkcalc.toml"

// Config is the CLI configuration, loaded from TOML over defaults.
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Output OutputConfig `toml:"output"`
}

// EngineConfig configures the formula engine.
type EngineConfig struct {
	CacheEnabled bool `toml:"cache_enabled"`
	CacheSize    int  `toml:"cache_size"`
}

// OutputConfig configures rendering.
type OutputConfig struct {
	Color bool `toml:"color"`
}

// DefaultConfig returns the configuration used when no file is present:
// caching on with the engine's default capacity, colored output.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			CacheEnabled: true,
			CacheSize:    1000,
		},
		Output: OutputConfig{
			Color: true,
		},
	}
}

// LoadConfig reads configuration from path, or from lkcalc.toml in the
// working directory when path is empty. The file overlays the defaults,
// so a config only naming [output] keeps the engine defaults. A missing
// default file is fine; a missing explicit --config file is an error.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = configFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return config, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return config, nil
}

// formulaConfig translates the CLI configuration into engine options.
func (c *Config) formulaConfig() *formula.Config {
	return &formula.Config{
		CacheEnabled: c.Engine.CacheEnabled,
		MaxCacheSize: c.Engine.CacheSize,
		Clock:        &formula.WallClock{},
	}
}
