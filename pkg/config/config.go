// Package config loads and validates YAML configuration for inference runs.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inferlab/abc-go/pkg/errors"
)

// Config is the complete configuration for an inference run.
type Config struct {
	// Run configuration
	Run RunConfig `yaml:"run" validate:"required"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging,omitempty" validate:"omitempty"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage,omitempty" validate:"omitempty"`
}

// RunConfig configures the sampler and the ask/tell loop.
type RunConfig struct {
	// Sampler strategy name, as registered in the sampler registry.
	Sampler string `yaml:"sampler" validate:"required,oneof=ABC-SMC ABC-Rejection"`

	// Seed for the sampler's random source. Zero means time-seeded.
	Seed uint64 `yaml:"seed,omitempty"`

	// Population size per generation.
	IntermediateSize int `yaml:"intermediate_size" validate:"required,gt=0"`

	// Ordered acceptance thresholds, one per generation. Every entry must
	// be strictly positive.
	ThresholdSchedule []float64 `yaml:"threshold_schedule" validate:"required,min=1,dive,gt=0"`

	// Variance of the isotropic gaussian transition kernel. Zero disables
	// the kernel (plain rejection at each threshold).
	KernelVariance float64 `yaml:"kernel_variance,omitempty" validate:"omitempty,gt=0"`

	// Proposals per ask.
	BatchSize int `yaml:"batch_size,omitempty" validate:"omitempty,gt=0"`

	// Total accepted samples to collect before stopping.
	TargetSamples int `yaml:"target_samples,omitempty" validate:"omitempty,gt=0"`

	// Safety bound on ask/tell iterations.
	MaxIterations int `yaml:"max_iterations,omitempty" validate:"omitempty,gt=0"`

	// Distance evaluation worker count. Zero means sequential.
	Workers int `yaml:"workers,omitempty" validate:"omitempty,gte=0"`
}

// LoggingConfig configures run logging.
type LoggingConfig struct {
	// Severity level: DEBUG, INFO, WARN, ERROR or FATAL.
	Level string `yaml:"level,omitempty" validate:"omitempty,oneof=DEBUG INFO WARN ERROR FATAL"`

	// Optional JSON log file path.
	File string `yaml:"file,omitempty"`
}

// StorageConfig configures run persistence.
type StorageConfig struct {
	// Enabled toggles persistence of accepted samples.
	Enabled bool `yaml:"enabled,omitempty"`

	// SQLite database path; ":memory:" keeps the run in memory.
	Path string `yaml:"path,omitempty"`
}

// Default returns a configuration with reasonable defaults applied.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			Sampler:           "ABC-SMC",
			IntermediateSize:  100,
			ThresholdSchedule: []float64{1},
			BatchSize:         1,
			MaxIterations:     1_000_000,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
		Storage: StorageConfig{
			Path: "abc-runs.db",
		},
	}
}

// Parse unmarshals YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, errors.InvalidInput, "failed to parse configuration")
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads, parses and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.ResourceNotFound, "failed to read configuration file"),
			errors.Fields{"path": path},
		)
	}
	return Parse(data)
}
