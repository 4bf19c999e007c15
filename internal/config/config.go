// Package config provides the configuration schema, loader, and synthesizer
// registry for the kentbot speech adapter.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// LogLevel controls log verbosity for the adapter.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Duration is a time.Duration that decodes from a YAML string (e.g., "30s",
// "2m") or an integer nanosecond count.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		dur, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(dur)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(n)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// String returns the duration formatted as a string.
func (d Duration) String() string { return time.Duration(d).String() }

// Config is the root configuration structure for the adapter.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader];
// every field has a working default so the file is optional.
type Config struct {
	// LogLevel controls verbosity. Defaults to warn so the progress lines on
	// stdout stay readable when the adapter runs under a supervisor.
	LogLevel LogLevel `yaml:"log_level"`

	// Synthesis holds the settings applied to every synthesis run.
	Synthesis SynthesisConfig `yaml:"synthesis"`

	// Tracing configures OTLP trace export.
	Tracing TracingConfig `yaml:"tracing"`

	// Providers lists per-backend connection settings. Each entry's Name is
	// used to look up the constructor in the [Registry].
	Providers []ProviderEntry `yaml:"providers"`
}

// SynthesisConfig holds the settings applied to every synthesis run.
type SynthesisConfig struct {
	// Provider selects the registered synthesis backend. Defaults to "xtts".
	Provider string `yaml:"provider"`

	// Language is the language code sent to the backend. Defaults to "en".
	Language string `yaml:"language"`

	// OutputSampleRate resamples synthesised audio to the given rate before
	// it is written. 0 keeps the model's native rate.
	OutputSampleRate int `yaml:"output_sample_rate"`

	// Timeout bounds each synthesis HTTP call. 0 blocks indefinitely, which
	// is the right default for CPU inference where render time grows with
	// text length.
	Timeout Duration `yaml:"timeout"`

	// MinSampleDuration is the reference-sample length below which a warning
	// is logged. Cloning quality degrades with short samples but the run
	// still proceeds. Defaults to 6s.
	MinSampleDuration Duration `yaml:"min_sample_duration"`
}

// TracingConfig holds settings for OTLP trace export.
type TracingConfig struct {
	// Enabled turns on trace export for the invocation. The exporter reads
	// the standard OTEL_EXPORTER_OTLP_ENDPOINT environment variable.
	Enabled bool `yaml:"enabled"`
}

// ProviderEntry is the common configuration block shared by all backends.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered backend implementation (e.g., "xtts",
	// "elevenlabs").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the backend's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the backend's default API endpoint.
	// Leave empty to use the backend's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the backend
	// (e.g., "eleven_multilingual_v2").
	Model string `yaml:"model"`

	// Options holds backend-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or
	// nested maps.
	Options map[string]any `yaml:"options"`
}

// Default returns the configuration used when no file and no flags are
// given: XTTS against a local server, English, native sample rate, no
// timeout, 6-second sample warning threshold.
func Default() *Config {
	return &Config{
		LogLevel: LogWarn,
		Synthesis: SynthesisConfig{
			Provider:          "xtts",
			Language:          "en",
			MinSampleDuration: Duration(6 * time.Second),
		},
		Providers: []ProviderEntry{
			{Name: "xtts", BaseURL: "http://localhost:8002"},
		},
	}
}

// ProviderFor returns the entry for the named backend, or a zero entry
// carrying just the name when the config does not list one. Backends apply
// their own defaults to empty fields.
func (c *Config) ProviderFor(name string) ProviderEntry {
	for _, entry := range c.Providers {
		if entry.Name == name {
			return entry
		}
	}
	return ProviderEntry{Name: name}
}
