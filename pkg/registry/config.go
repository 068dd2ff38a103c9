package registry

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/noahgrant/resourcerer-go/pkg/cache"
	"github.com/noahgrant/resourcerer-go/pkg/duration"
)

// Config is the process-wide registry configuration, typically loaded
// from a YAML file.
type Config struct {
	// GracePeriod is how long a record with no subscribers stays
	// cached before eviction, written as a duration string (e.g., "2m").
	GracePeriod duration.Duration `yaml:"grace_period,omitempty"`

	// Journal configures machine-readable change journaling.
	Journal JournalConfig `yaml:"journal,omitempty"`

	// Classes declares the record classes this process works with,
	// keyed by class name.
	Classes map[string]ClassSpec `yaml:"classes,omitempty"`
}

// JournalConfig configures where change journal events go.
type JournalConfig struct {
	// Path is the journal file to append to. Empty disables the file.
	Path string `yaml:"path,omitempty"`

	// Stdout mirrors journal events to the console via slog.
	Stdout bool `yaml:"stdout,omitempty"`
}

// ClassSpec declares a record class.
type ClassSpec struct {
	// Description explains what records of this class hold.
	Description string `yaml:"description,omitempty"`

	// Defaults are attributes applied to newly created records of this
	// class. Treated as read-only after registration.
	Defaults map[string]any `yaml:"defaults,omitempty"`
}

// ConfigError provides details about a configuration loading error.
type ConfigError struct {
	// File is the path to the file that failed to load.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *ConfigError) Error() string {
	if e.File != "" {
		return e.File + ": " + e.Message
	}
	return e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// DefaultConfig returns the default registry configuration.
func DefaultConfig() Config {
	return Config{
		GracePeriod: duration.Duration(cache.DefaultGracePeriod),
	}
}

// ParseConfig parses a registry configuration from YAML bytes.
// Unset fields keep their defaults.
func ParseConfig(data []byte) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, &ConfigError{
			Message: "failed to parse YAML",
			Cause:   err,
		}
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadConfig loads a registry configuration from a file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{
			File:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	config, err := ParseConfig(data)
	if err != nil {
		if ce, ok := err.(*ConfigError); ok {
			ce.File = path
			return nil, ce
		}
		return nil, &ConfigError{
			File:    path,
			Message: err.Error(),
		}
	}

	return config, nil
}

// validate checks the configuration for values that cannot be used.
func (c *Config) validate() error {
	if c.GracePeriod < 0 {
		return &ConfigError{
			Message: fmt.Sprintf("grace_period %q must not be negative", c.GracePeriod.String()),
		}
	}

	for name := range c.Classes {
		if name == "" {
			return &ConfigError{
				Message: "class names must not be empty",
			}
		}
	}

	return nil
}

// EvictionGrace returns the configured grace period. Unset or zero
// falls back to the cache default.
func (c *Config) EvictionGrace() time.Duration {
	if c.GracePeriod <= 0 {
		return cache.DefaultGracePeriod
	}
	return c.GracePeriod.Std()
}
