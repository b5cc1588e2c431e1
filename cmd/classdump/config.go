package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

const defaultConfigName = "classdump.toml"

// Config is the classdump.toml file. Command-line flags override it.
type Config struct {
	Output OutputConfig `toml:"output"`
	Decode DecodeConfig `toml:"decode"`
	Log    LogConfig    `toml:"log"`
}

// OutputConfig controls what is printed and how.
type OutputConfig struct {
	Format    string `toml:"format"`
	Color     string `toml:"color"`
	Code      bool   `toml:"code"`
	RoundTrip bool   `toml:"roundtrip"`
}

// DecodeConfig holds decoder options.
type DecodeConfig struct {
	Raw      bool `toml:"raw"`
	AnyMagic bool `toml:"any-magic"`
}

// LogConfig configures the diagnostic logger.
type LogConfig struct {
	Verbose bool `toml:"verbose"`
}

func defaultConfig() *Config {
	return &Config{
		Output: OutputConfig{Format: "text", Color: "auto"},
	}
}

// loadConfig reads the config file at path. An empty path means
// classdump.toml in the working directory, which may be absent.
func loadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigName
	}

	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Output.Format {
	case "text", "cbor":
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("unknown color mode %q", c.Output.Color)
	}
	return nil
}
