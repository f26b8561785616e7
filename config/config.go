// Package config loads run configuration for the listdemo CLI from
// the environment, following the envconfig-tagged struct + Process
// pattern the auth service uses for its own config.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const envVarPrefix = "LISTALLOC"

// Backend selects which child-allocator package the demo builds its
// List out of.
type Backend string

const (
	BackendBump     Backend = "bump"
	BackendRegion   Backend = "region"
	BackendFreelist Backend = "freelist"
)

// Config is the run configuration for listdemo.
type Config struct {
	Backend       Backend `envconfig:"BACKEND" default:"bump"`
	ChildCapacity int     `envconfig:"CHILD_CAPACITY" default:"65536"`
	Alignment     int     `envconfig:"ALIGNMENT" default:"8"`
	Ouroboros     bool    `envconfig:"OUROBOROS" default:"false"`
	StatsEnabled  bool    `envconfig:"STATS" default:"true"`
}

// Load reads configuration from environment variables prefixed
// LISTALLOC_.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}
	return &c, nil
}

// Validate reports whether the loaded configuration is usable.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendBump, BackendRegion, BackendFreelist:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.ChildCapacity <= 0 {
		return fmt.Errorf("child capacity must be positive, got %d", c.ChildCapacity)
	}
	if c.Alignment <= 0 {
		return fmt.Errorf("alignment must be positive, got %d", c.Alignment)
	}
	return nil
}
