package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/HawaiianTea/kentbot-2.0/internal/voicematch"
)

var voicesCmd = &cobra.Command{
	Use:   "voices [query]",
	Short: "List the voices registered on the synthesis backend",
	Long: `List the voices registered on the synthesis backend.

Without an argument every voice is printed as "ID  Name", sorted by name.
With a query argument the catalogue is searched for the closest match; the
lookup tolerates typos and phonetic spellings ("clarabel durvla" finds
"Claribel Dervla"). No match is an error.

Examples:
  tts-synthesize voices
  tts-synthesize voices "ana florence"
  tts-synthesize --config prod.yaml --provider elevenlabs voices rachel`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVoices,
}

func runVoices(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	s, err := buildSynthesizer()
	if err != nil {
		return err
	}

	ctx, cancel := auxContext(cmd.Context())
	defer cancel()

	voices, err := s.ListVoices(ctx)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		best, confidence, ok := voicematch.New().Match(args[0], voices)
		if !ok {
			return fmt.Errorf("no voice matching %q among the %d available", args[0], len(voices))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  (confidence %.2f)\n", best.ID, best.Name, confidence)
		return nil
	}

	sort.Slice(voices, func(i, j int) bool { return voices[i].Name < voices[j].Name })
	for _, v := range voices {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", v.ID, v.Name)
	}
	return nil
}
