package config_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/HawaiianTea/kentbot-2.0/internal/config"
	"github.com/HawaiianTea/kentbot-2.0/pkg/synth"
	"github.com/HawaiianTea/kentbot-2.0/pkg/synth/mock"
)

// ── helpers ──────────────────────────────────────────────────────────────────

const sampleYAML = `
log_level: info

synthesis:
  provider: xtts
  language: de
  output_sample_rate: 44100
  timeout: 45s
  min_sample_duration: 8s

tracing:
  enabled: true

providers:
  - name: xtts
    base_url: http://tts-host:8002
  - name: elevenlabs
    api_key: el-test
    model: eleven_multilingual_v2
`

// ── YAML loading ──────────────────────────────────────────────────────────────

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LogLevel != config.LogInfo {
		t.Errorf("log_level: got %q, want %q", cfg.LogLevel, config.LogInfo)
	}
	if cfg.Synthesis.Provider != "xtts" {
		t.Errorf("synthesis.provider: got %q, want %q", cfg.Synthesis.Provider, "xtts")
	}
	if cfg.Synthesis.Language != "de" {
		t.Errorf("synthesis.language: got %q, want %q", cfg.Synthesis.Language, "de")
	}
	if cfg.Synthesis.OutputSampleRate != 44100 {
		t.Errorf("synthesis.output_sample_rate: got %d, want 44100", cfg.Synthesis.OutputSampleRate)
	}
	if got := cfg.Synthesis.Timeout.Duration(); got != 45*time.Second {
		t.Errorf("synthesis.timeout: got %v, want 45s", got)
	}
	if got := cfg.Synthesis.MinSampleDuration.Duration(); got != 8*time.Second {
		t.Errorf("synthesis.min_sample_duration: got %v, want 8s", got)
	}
	if !cfg.Tracing.Enabled {
		t.Error("tracing.enabled: got false, want true")
	}
	if len(cfg.Providers) != 2 {
		t.Fatalf("providers: got %d, want 2", len(cfg.Providers))
	}
	if cfg.Providers[0].BaseURL != "http://tts-host:8002" {
		t.Errorf("providers[0].base_url: got %q", cfg.Providers[0].BaseURL)
	}
	if cfg.Providers[1].APIKey != "el-test" {
		t.Errorf("providers[1].api_key: got %q", cfg.Providers[1].APIKey)
	}
}

func TestLoadFromReader_EmptyIsValid(t *testing.T) {
	// An empty config should succeed and keep every default.
	cfg, err := config.LoadFromReader(strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("unexpected error for empty config: %v", err)
	}
	if cfg.Synthesis.Provider != "xtts" {
		t.Errorf("default provider: got %q, want xtts", cfg.Synthesis.Provider)
	}
	if cfg.LogLevel != config.LogWarn {
		t.Errorf("default log_level: got %q, want warn", cfg.LogLevel)
	}
}

func TestLoadFromReader_UnknownKeyRejected(t *testing.T) {
	yaml := `
synthesis:
  provder: xtts
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for misspelled key, got nil")
	}
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	if cfg.Synthesis.Provider != "xtts" {
		t.Errorf("provider: got %q, want xtts", cfg.Synthesis.Provider)
	}
	if cfg.Synthesis.Language != "en" {
		t.Errorf("language: got %q, want en", cfg.Synthesis.Language)
	}
	if got := cfg.Synthesis.MinSampleDuration.Duration(); got != 6*time.Second {
		t.Errorf("min_sample_duration: got %v, want 6s", got)
	}
	if got := cfg.Synthesis.Timeout.Duration(); got != 0 {
		t.Errorf("timeout: got %v, want 0", got)
	}
	if entry := cfg.ProviderFor("xtts"); entry.BaseURL != "http://localhost:8002" {
		t.Errorf("xtts base_url: got %q, want http://localhost:8002", entry.BaseURL)
	}
	if err := config.Validate(cfg); err != nil {
		t.Errorf("Default() should validate cleanly, got: %v", err)
	}
}

func TestProviderFor_Fallback(t *testing.T) {
	cfg := config.Default()
	entry := cfg.ProviderFor("elevenlabs")
	if entry.Name != "elevenlabs" {
		t.Errorf("fallback entry name: got %q, want elevenlabs", entry.Name)
	}
	if entry.APIKey != "" || entry.BaseURL != "" {
		t.Errorf("fallback entry should be zero apart from the name, got %+v", entry)
	}
}

// ── Duration ──────────────────────────────────────────────────────────────────

func TestDuration_Forms(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		cfg, err := config.LoadFromReader(strings.NewReader("synthesis:\n  timeout: 2m30s\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := cfg.Synthesis.Timeout.Duration(); got != 2*time.Minute+30*time.Second {
			t.Errorf("timeout: got %v, want 2m30s", got)
		}
	})

	t.Run("integer nanoseconds", func(t *testing.T) {
		cfg, err := config.LoadFromReader(strings.NewReader("synthesis:\n  timeout: 1000000000\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := cfg.Synthesis.Timeout.Duration(); got != time.Second {
			t.Errorf("timeout: got %v, want 1s", got)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := config.LoadFromReader(strings.NewReader("synthesis:\n  timeout: soon\n"))
		if err == nil {
			t.Fatal("expected error for unparseable duration, got nil")
		}
	})
}

// ── Registry ──────────────────────────────────────────────────────────────────

func TestRegistry_Unknown(t *testing.T) {
	reg := config.NewRegistry()
	_, err := reg.Create(config.ProviderEntry{Name: "nonexistent"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("expected ErrProviderNotRegistered, got: %v", err)
	}
}

func TestRegistry_Registered(t *testing.T) {
	reg := config.NewRegistry()
	want := &mock.Synthesizer{}
	reg.Register("stub", func(e config.ProviderEntry) (synth.Synthesizer, error) {
		return want, nil
	})
	got, err := reg.Create(config.ProviderEntry{Name: "stub"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Error("returned synthesizer is not the expected instance")
	}
}

func TestRegistry_FactoryError(t *testing.T) {
	reg := config.NewRegistry()
	wantErr := errors.New("factory boom")
	reg.Register("broken", func(e config.ProviderEntry) (synth.Synthesizer, error) {
		return nil, wantErr
	})
	_, err := reg.Create(config.ProviderEntry{Name: "broken"})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected factory error passed through, got: %v", err)
	}
}

func TestRegistry_EntryForwarded(t *testing.T) {
	reg := config.NewRegistry()
	var gotEntry config.ProviderEntry
	reg.Register("probe", func(e config.ProviderEntry) (synth.Synthesizer, error) {
		gotEntry = e
		return &mock.Synthesizer{}, nil
	})
	entry := config.ProviderEntry{Name: "probe", BaseURL: "http://example.test", APIKey: "k"}
	if _, err := reg.Create(entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotEntry.BaseURL != "http://example.test" || gotEntry.APIKey != "k" {
		t.Errorf("factory received %+v, want the full entry", gotEntry)
	}
}
