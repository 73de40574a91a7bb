// Package config handles the optional conversion profile.
//
// A profile is only read when its path is given explicitly; there are no
// search locations and no environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all conversion settings.
type Config struct {
	Rewrite  RewriteConfig  `yaml:"rewrite"`
	Compile  CompileConfig  `yaml:"compile"`
	External ExternalConfig `yaml:"external"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// RewriteConfig controls the source rewriter.
type RewriteConfig struct {
	Dialect   string `yaml:"dialect"`   // shadertoy, book, golf
	Shorthand bool   `yaml:"shorthand"` // rewrite bare t and r
}

// CompileConfig controls the in-process compiler.
type CompileConfig struct {
	InProcess    bool   `yaml:"in_process"`
	SPIRVVersion string `yaml:"spirv_version"`
	Debug        bool   `yaml:"debug"`
	// SamplerBindingBase offsets the binding of the sampler half of a
	// combined image sampler.
	SamplerBindingBase uint32 `yaml:"sampler_binding_base"`
}

// ExternalConfig controls the fallback compiler process.
type ExternalConfig struct {
	Enabled bool          `yaml:"enabled"`
	Binary  string        `yaml:"binary"`
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the built-in behavior.
func Default() *Config {
	return &Config{
		Rewrite: RewriteConfig{
			Dialect:   "shadertoy",
			Shorthand: true,
		},
		Compile: CompileConfig{
			InProcess:          true,
			SPIRVVersion:       "1.3",
			SamplerBindingBase: 16,
		},
		External: ExternalConfig{
			Enabled: true,
			Binary:  "glslangValidator",
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Load returns the defaults merged with the profile at path.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if err := loadFromFile(cfg, path); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate reports settings that cannot be honored.
func (c *Config) Validate() error {
	switch c.Rewrite.Dialect {
	case "shadertoy", "book", "golf":
	default:
		return fmt.Errorf("unknown dialect %q", c.Rewrite.Dialect)
	}
	if _, err := ParseSPIRVVersion(c.Compile.SPIRVVersion); err != nil {
		return err
	}
	if c.External.Timeout < 0 {
		return fmt.Errorf("external timeout must not be negative, got %v", c.External.Timeout)
	}
	if !c.Compile.InProcess && !c.External.Enabled {
		return fmt.Errorf("both the in-process and the external compiler are disabled")
	}
	return nil
}

// ParseSPIRVVersion parses a "major.minor" SPIR-V version in the 1.0-1.6 range.
func ParseSPIRVVersion(s string) ([2]uint8, error) {
	var major, minor uint8
	if _, err := fmt.Sscanf(s, "%d.%d", &major, &minor); err != nil {
		return [2]uint8{}, fmt.Errorf("invalid SPIR-V version %q: %w", s, err)
	}
	if major != 1 || minor > 6 {
		return [2]uint8{}, fmt.Errorf("unsupported SPIR-V version %q", s)
	}
	return [2]uint8{major, minor}, nil
}
