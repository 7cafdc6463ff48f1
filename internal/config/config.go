// Package config holds sifter's process-level configuration: the bits the
// CLI needs before it can even open a fact file, as opposed to the fact file
// itself (see internal/factfile).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is sifter's top-level configuration.
type Config struct {
	// Logging controls the internal/logging.New call the CLI makes on
	// startup.
	Logging LoggingConfig `yaml:"logging"`

	// Solver controls default limits applied to every Bridge the CLI
	// constructs.
	Solver SolverConfig `yaml:"solver"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// SolverConfig configures default Bridge behavior.
type SolverConfig struct {
	// WorkerLimit bounds the worker pool a Bridge fans NoMap/TryMap work
	// out across. Zero means "use GOMAXPROCS", matching
	// parallel.NewWorkerPool's own default.
	WorkerLimit int `yaml:"worker_limit"`
}

// Default returns sifter's default configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Solver:  SolverConfig{WorkerLimit: 0},
	}
}

// Load reads a YAML config file at path, layering it over Default. A
// missing file is not an error: Load returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
