package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the working directory when
// no --config flag is given.
const DefaultFileName = "tts-synthesize.yaml"

// ValidProviderNames lists known backend names.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = []string{"xtts", "elevenlabs"}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Decoding starts from [Default], so fields absent from the file keep their
// default values. Useful in tests where configs are constructed from string
// literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	if cfg.Synthesis.OutputSampleRate < 0 {
		errs = append(errs, fmt.Errorf("synthesis.output_sample_rate %d must not be negative", cfg.Synthesis.OutputSampleRate))
	}
	if cfg.Synthesis.Timeout < 0 {
		errs = append(errs, fmt.Errorf("synthesis.timeout %s must not be negative", cfg.Synthesis.Timeout))
	}
	if cfg.Synthesis.MinSampleDuration < 0 {
		errs = append(errs, fmt.Errorf("synthesis.min_sample_duration %s must not be negative", cfg.Synthesis.MinSampleDuration))
	}

	validateProviderName(cfg.Synthesis.Provider)

	// Provider duplicate name detection
	namesSeen := make(map[string]int, len(cfg.Providers))

	for i, entry := range cfg.Providers {
		prefix := fmt.Sprintf("providers[%d]", i)
		if entry.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		if prev, ok := namesSeen[entry.Name]; ok {
			errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of providers[%d]", prefix, entry.Name, prev))
		}
		namesSeen[entry.Name] = i
		validateProviderName(entry.Name)
	}

	// ElevenLabs needs a key; the backend constructor rejects an empty one,
	// so surface the problem at load time where the config file is in view.
	if cfg.Synthesis.Provider == "elevenlabs" && cfg.ProviderFor("elevenlabs").APIKey == "" {
		slog.Warn("synthesis.provider is elevenlabs but no api_key is configured; synthesis will fail")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list.
func validateProviderName(name string) {
	if name == "" {
		return
	}
	if slices.Contains(ValidProviderNames, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party backend",
		"name", name,
		"known", ValidProviderNames,
	)
}
