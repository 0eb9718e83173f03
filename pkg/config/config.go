// Package config loads chen.yaml, falling back to the defaults below when
// no file is present or a field is omitted.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Default limits, mirrored into Config when the corresponding chen.yaml
// field is zero.
const (
	DefaultMaxSteps           = 10_000_000
	DefaultMaxStackDepth      = 4096
	DefaultMetatableMaxDepth  = 64
	DefaultMetricsAddr        = ":9090"
	DefaultTracingServiceName = "chen"
)

// Config is the top-level shape of chen.yaml.
type Config struct {
	MaxSteps          int           `yaml:"max_steps"`
	MaxStackDepth     int           `yaml:"max_stack_depth"`
	MetatableMaxDepth int           `yaml:"metatable_max_depth"`
	Metrics           MetricsConfig `yaml:"metrics"`
	Tracing           TracingConfig `yaml:"tracing"`
	Stdlib            StdlibConfig  `yaml:"stdlib"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"`
}

// StdlibConfig carries connection strings for the stdlib modules that talk
// to external services, so a chen.yaml can point them at real
// infrastructure without editing source.
type StdlibConfig struct {
	KVAddr   string `yaml:"kv_addr"`
	DBDSN    string `yaml:"db_dsn"`
	DocDBURI string `yaml:"docdb_uri"`
}

// Default returns a Config populated with the package defaults.
func Default() *Config {
	return &Config{
		MaxSteps:          DefaultMaxSteps,
		MaxStackDepth:     DefaultMaxStackDepth,
		MetatableMaxDepth: DefaultMetatableMaxDepth,
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    DefaultMetricsAddr,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: DefaultTracingServiceName,
		},
	}
}

// Load reads chen.yaml at path, applying defaults for any zero-valued field.
// A missing file is not an error: Load returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MaxSteps == 0 {
		c.MaxSteps = DefaultMaxSteps
	}
	if c.MaxStackDepth == 0 {
		c.MaxStackDepth = DefaultMaxStackDepth
	}
	if c.MetatableMaxDepth == 0 {
		c.MetatableMaxDepth = DefaultMetatableMaxDepth
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = DefaultMetricsAddr
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = DefaultTracingServiceName
	}
}
