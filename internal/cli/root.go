// Package cli implements the tts-synthesize command tree.
//
// The root command carries the adapter contract the kentbot AI service
// invokes as a subprocess: three positional arguments (text, voice sample,
// output path), progress lines on stdout, errors on stderr, exit 0 only when
// the output file exists and is non-empty. Subcommands add voice listing,
// voice cloning, an MCP stdio server, and version output over the same
// backends.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/HawaiianTea/kentbot-2.0/internal/config"
	"github.com/HawaiianTea/kentbot-2.0/internal/observe"
	"github.com/HawaiianTea/kentbot-2.0/internal/pipeline"
	"github.com/HawaiianTea/kentbot-2.0/pkg/synth"
	"github.com/HawaiianTea/kentbot-2.0/pkg/synth/elevenlabs"
	"github.com/HawaiianTea/kentbot-2.0/pkg/synth/xtts"
)

const appName = "tts-synthesize"

// defaultServerURL is where a local XTTS v2 API server listens when started
// with its stock setup.
const defaultServerURL = "http://localhost:8002"

// auxTimeout bounds the cheap catalogue calls (voices, clone) unless
// --timeout says otherwise. Synthesis itself carries no default timeout: on
// CPU the model legitimately takes minutes, and the parent cancels by
// killing the process.
const auxTimeout = 30 * time.Second

var (
	// Global flags
	cfgFile      string
	serverURL    string
	providerName string
	language     string
	outputRate   int
	timeoutFlag  time.Duration
	logLevelFlag string

	// State built by setup before any RunE executes.
	cfg           *config.Config
	registry      *config.Registry
	traceShutdown func(context.Context) error
)

// rootCmd is the synthesis operation itself; subcommands hang off it.
// SilenceErrors is set because the caller prints the returned error exactly
// once. SilenceUsage stays off so an argument-count mistake still shows the
// usage block; each RunE switches it on so runtime failures do not.
var rootCmd = &cobra.Command{
	Use:   "tts-synthesize <text> <voice_sample> <output_path>",
	Short: "Synthesize speech in a voice cloned from a reference sample",
	Long: `Synthesize speech in a voice cloned from a reference sample.

The three positional arguments are the text to speak, a recording of the
target voice, and the path to write the synthesized WAV to. Progress is
reported on stdout; a zero exit code means the output file exists and is
non-empty. Parent directories of the output path are created as needed.

The default backend is an XTTS v2 API server on localhost:8002. A config
file (tts-synthesize.yaml in the working directory, or --config) and flags
select other backends and settings; with neither, the bare contract above
is all there is.

Examples:
  # Clone kent.wav and speak the text
  tts-synthesize "Hello there." ./voices/kent.wav ./out/hello.wav

  # Remote XTTS server, German text
  tts-synthesize --server-url http://gpu-box:8002 --language de \
      "Guten Tag." ./voices/kent.wav ./out/gruss.wav

  # ElevenLabs backend configured in a file
  tts-synthesize --config prod.yaml --provider elevenlabs \
      "Hello there." ./voices/kent.wav ./out/hello.wav`,
	Args:          cobra.ExactArgs(3),
	SilenceErrors: true,
}

// Execute runs the command tree and flushes trace export before returning.
// The caller maps a non-nil error to exit code 1.
func Execute() error {
	err := rootCmd.Execute()
	if traceShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := traceShutdown(ctx); serr != nil {
			slog.Warn("trace export shutdown failed", "err", serr)
		}
	}
	return err
}

func init() {
	// Assigned here rather than in the literal: setup and runSynthesize
	// reference rootCmd, which would otherwise be an initialization cycle.
	rootCmd.PersistentPreRunE = setup
	rootCmd.RunE = runSynthesize

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server-url", "", "synthesis server URL (overrides the provider's base_url)")
	rootCmd.PersistentFlags().StringVar(&providerName, "provider", "", "synthesis backend: xtts or elevenlabs")
	rootCmd.PersistentFlags().StringVar(&language, "language", "", "language code sent to the backend")
	rootCmd.PersistentFlags().IntVar(&outputRate, "output-sample-rate", 0, "resample output to this rate in Hz (0 keeps the model's native rate)")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 0, "synthesis request timeout (0 waits as long as the model needs)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log verbosity: debug, info, warn or error")

	rootCmd.AddCommand(voicesCmd)
	rootCmd.AddCommand(cloneCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup resolves configuration, installs the default logger, registers the
// backend factories, and starts trace export when enabled. It runs before
// every command via PersistentPreRunE.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = resolveConfig()
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg)

	slog.SetDefault(newLogger(cfg.LogLevel))

	registry = config.NewRegistry()
	registerBuiltinBackends(registry, cfg)

	if cfg.Tracing.Enabled {
		shutdown, err := observe.InitTracer(cmd.Context(), appName, Version)
		if err != nil {
			return fmt.Errorf("initialise tracing: %w", err)
		}
		traceShutdown = shutdown
	}
	return nil
}

// resolveConfig loads the configuration: an explicit --config path must
// exist; otherwise tts-synthesize.yaml in the working directory is used when
// present; otherwise every default applies and the bare three-argument
// contract works with no file at all.
func resolveConfig() (*config.Config, error) {
	if cfgFile != "" {
		c, err := config.Load(cfgFile)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("config file %q not found", cfgFile)
			}
			return nil, err
		}
		return c, nil
	}
	if _, err := os.Stat(config.DefaultFileName); err == nil {
		return config.Load(config.DefaultFileName)
	}
	return config.Default(), nil
}

// applyFlagOverrides lets command-line flags win over file values.
// --server-url is applied later, in backendEntry, because it targets the
// selected provider's entry rather than the synthesis block.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Root().PersistentFlags()
	if flags.Changed("provider") {
		cfg.Synthesis.Provider = providerName
	}
	if flags.Changed("language") {
		cfg.Synthesis.Language = language
	}
	if flags.Changed("output-sample-rate") {
		cfg.Synthesis.OutputSampleRate = outputRate
	}
	if flags.Changed("timeout") {
		cfg.Synthesis.Timeout = config.Duration(timeoutFlag)
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = config.LogLevel(logLevelFlag)
	}
}

// backendEntry returns the provider entry for the selected backend with the
// --server-url override applied.
func backendEntry() config.ProviderEntry {
	entry := cfg.ProviderFor(cfg.Synthesis.Provider)
	if rootCmd.PersistentFlags().Changed("server-url") {
		entry.BaseURL = serverURL
	}
	return entry
}

// buildSynthesizer constructs the configured backend.
func buildSynthesizer() (synth.Synthesizer, error) {
	return registry.Create(backendEntry())
}

// registerBuiltinBackends wires the built-in backend factories into reg.
// Each factory receives a config.ProviderEntry and constructs the backend
// with the run-wide synthesis settings applied. An entry's options.language
// overrides synthesis.language for that backend; the --language flag beats
// both.
func registerBuiltinBackends(reg *config.Registry, cfg *config.Config) {
	reg.Register("xtts", func(entry config.ProviderEntry) (synth.Synthesizer, error) {
		lang := cfg.Synthesis.Language
		if l := optString(entry.Options, "language"); l != "" && !rootCmd.PersistentFlags().Changed("language") {
			lang = l
		}
		var opts []xtts.Option
		if lang != "" {
			opts = append(opts, xtts.WithLanguage(lang))
		}
		if d := cfg.Synthesis.Timeout.Duration(); d > 0 {
			opts = append(opts, xtts.WithTimeout(d))
		}
		if rate := cfg.Synthesis.OutputSampleRate; rate > 0 {
			opts = append(opts, xtts.WithOutputSampleRate(rate))
		}
		url := entry.BaseURL
		if url == "" {
			url = defaultServerURL
		}
		return xtts.New(url, opts...)
	})

	reg.Register("elevenlabs", func(entry config.ProviderEntry) (synth.Synthesizer, error) {
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, elevenlabs.WithBaseURL(entry.BaseURL))
		}
		if d := cfg.Synthesis.Timeout.Duration(); d > 0 {
			opts = append(opts, elevenlabs.WithTimeout(d))
		}
		if rate := cfg.Synthesis.OutputSampleRate; rate > 0 {
			opts = append(opts, elevenlabs.WithOutputSampleRate(rate))
		}
		return elevenlabs.New(entry.APIKey, opts...)
	})
}

// runSynthesize executes the core contract: validate inputs, synthesize,
// verify the artifact. The backend is built inside the pipeline, after input
// validation, so a missing sample never costs a connection attempt.
func runSynthesize(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	entry := backendEntry()
	_, err := pipeline.Run(cmd.Context(), pipeline.Job{
		Text:       args[0],
		SamplePath: args[1],
		OutputPath: args[2],
	}, pipeline.Options{
		NewSynthesizer:    func() (synth.Synthesizer, error) { return registry.Create(entry) },
		Stdout:            cmd.OutOrStdout(),
		ModelLabel:        entry.Name,
		MinSampleDuration: cfg.Synthesis.MinSampleDuration.Duration(),
	})
	return err
}

// auxContext bounds catalogue calls to auxTimeout unless --timeout was given
// explicitly; a zero --timeout means unbounded.
func auxContext(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := auxTimeout
	if rootCmd.PersistentFlags().Changed("timeout") {
		timeout = timeoutFlag
	}
	if timeout <= 0 {
		return parent, func() {}
	}
	return context.WithTimeout(parent, timeout)
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogInfo:
		lvl = slog.LevelInfo
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
