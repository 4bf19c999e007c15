package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var cloneCmd = &cobra.Command{
	Use:   "clone <name> <sample.wav> [sample.wav ...]",
	Short: "Register a reusable voice on the backend from sample recordings",
	Long: `Register a named voice on the synthesis backend by uploading one or
more sample recordings. The registered name can then stand in for a local
sample file.

Samples are read concurrently and submitted in argument order.

Examples:
  tts-synthesize clone kent ./voices/kent-1.wav ./voices/kent-2.wav
  tts-synthesize --config prod.yaml --provider elevenlabs clone kent ./voices/kent.wav`,
	Args: cobra.MinimumNArgs(2),
	RunE: runClone,
}

func runClone(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	name, paths := args[0], args[1:]

	samples, err := readSamples(paths)
	if err != nil {
		return err
	}

	s, err := buildSynthesizer()
	if err != nil {
		return err
	}

	ctx, cancel := auxContext(cmd.Context())
	defer cancel()

	voice, err := s.CloneVoice(ctx, name, samples)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created voice %s  %s\n", voice.ID, voice.Name)
	return nil
}

// readSamples loads every sample file concurrently, preserving argument
// order.
func readSamples(paths []string) ([][]byte, error) {
	samples := make([][]byte, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read sample %q: %w", path, err)
			}
			samples[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return samples, nil
}
