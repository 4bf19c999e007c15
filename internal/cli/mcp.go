package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/HawaiianTea/kentbot-2.0/internal/observe"
	"github.com/HawaiianTea/kentbot-2.0/internal/pipeline"
	"github.com/HawaiianTea/kentbot-2.0/internal/voicematch"
	"github.com/HawaiianTea/kentbot-2.0/pkg/synth"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve synthesis operations as MCP tools over stdio",
	Long: `Serve the synthesis operations as Model Context Protocol tools on
stdin/stdout, so agent runtimes can clone voices and synthesize speech
without shelling out once per call.

Tools:
  synthesize_speech  text + voice_sample_path + output_path -> WAV on disk
  list_voices        the backend's voice catalogue, with optional fuzzy lookup
  clone_voice        register a reusable named voice from sample files

stdout carries the protocol stream, so pipeline progress goes to the logger
on stderr instead. The server runs until the client closes the stream.

Example:
  tts-synthesize --log-level info mcp`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	server := mcp.NewServer(&mcp.Implementation{Name: appName, Version: Version}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "synthesize_speech",
		Description: "Synthesize speech in a cloned voice and write it to a WAV file",
	}, handleSynthesizeSpeech)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_voices",
		Description: "List the voices registered on the synthesis backend, optionally matching an approximate name",
	}, handleListVoices)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "clone_voice",
		Description: "Register a reusable named voice from local sample recordings",
	}, handleCloneVoice)

	observe.Logger(cmd.Context()).Info("mcp server listening on stdio")
	return server.Run(cmd.Context(), &mcp.StdioTransport{})
}

// ---- synthesize_speech ----

type synthesizeSpeechInput struct {
	Text            string `json:"text" jsonschema:"the text to speak"`
	VoiceSamplePath string `json:"voice_sample_path" jsonschema:"path of a WAV recording of the target voice"`
	OutputPath      string `json:"output_path" jsonschema:"where to write the synthesized WAV"`
}

type synthesizeSpeechOutput struct {
	OutputPath string `json:"output_path"`
	Bytes      int64  `json:"bytes"`
}

func handleSynthesizeSpeech(ctx context.Context, _ *mcp.CallToolRequest, in synthesizeSpeechInput) (*mcp.CallToolResult, synthesizeSpeechOutput, error) {
	entry := backendEntry()
	res, err := pipeline.Run(ctx, pipeline.Job{
		Text:       in.Text,
		SamplePath: in.VoiceSamplePath,
		OutputPath: in.OutputPath,
	}, pipeline.Options{
		NewSynthesizer:    func() (synth.Synthesizer, error) { return registry.Create(entry) },
		Stdout:            progressLogWriter{ctx},
		ModelLabel:        entry.Name,
		MinSampleDuration: cfg.Synthesis.MinSampleDuration.Duration(),
	})
	if err != nil {
		return nil, synthesizeSpeechOutput{}, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("wrote %s (%d bytes)", res.OutputPath, res.Bytes)},
		},
	}, synthesizeSpeechOutput{OutputPath: res.OutputPath, Bytes: res.Bytes}, nil
}

// ---- list_voices ----

type listVoicesInput struct {
	Query string `json:"query,omitempty" jsonschema:"optional approximate name to look up"`
}

type voiceInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type listVoicesOutput struct {
	Voices []voiceInfo `json:"voices"`
}

func handleListVoices(ctx context.Context, _ *mcp.CallToolRequest, in listVoicesInput) (*mcp.CallToolResult, listVoicesOutput, error) {
	s, err := buildSynthesizer()
	if err != nil {
		return nil, listVoicesOutput{}, err
	}

	ctx, cancel := auxContext(ctx)
	defer cancel()

	voices, err := s.ListVoices(ctx)
	if err != nil {
		return nil, listVoicesOutput{}, err
	}

	if in.Query != "" {
		best, _, ok := voicematch.New().Match(in.Query, voices)
		if !ok {
			return nil, listVoicesOutput{}, fmt.Errorf("no voice matching %q among the %d available", in.Query, len(voices))
		}
		return nil, listVoicesOutput{Voices: []voiceInfo{{ID: best.ID, Name: best.Name}}}, nil
	}

	sort.Slice(voices, func(i, j int) bool { return voices[i].Name < voices[j].Name })
	out := listVoicesOutput{Voices: make([]voiceInfo, 0, len(voices))}
	for _, v := range voices {
		out.Voices = append(out.Voices, voiceInfo{ID: v.ID, Name: v.Name})
	}
	return nil, out, nil
}

// ---- clone_voice ----

type cloneVoiceInput struct {
	Name        string   `json:"name" jsonschema:"name to register the voice under"`
	SamplePaths []string `json:"sample_paths" jsonschema:"paths of WAV recordings to train on"`
}

type cloneVoiceOutput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func handleCloneVoice(ctx context.Context, _ *mcp.CallToolRequest, in cloneVoiceInput) (*mcp.CallToolResult, cloneVoiceOutput, error) {
	if len(in.SamplePaths) == 0 {
		return nil, cloneVoiceOutput{}, fmt.Errorf("sample_paths must name at least one file")
	}

	samples, err := readSamples(in.SamplePaths)
	if err != nil {
		return nil, cloneVoiceOutput{}, err
	}

	s, err := buildSynthesizer()
	if err != nil {
		return nil, cloneVoiceOutput{}, err
	}

	ctx, cancel := auxContext(ctx)
	defer cancel()

	voice, err := s.CloneVoice(ctx, in.Name, samples)
	if err != nil {
		return nil, cloneVoiceOutput{}, err
	}
	return nil, cloneVoiceOutput{ID: voice.ID, Name: voice.Name}, nil
}

// ---- helpers ----

// progressLogWriter forwards pipeline progress lines to the logger. Under
// the mcp command stdout belongs to the protocol stream.
type progressLogWriter struct{ ctx context.Context }

func (w progressLogWriter) Write(p []byte) (int, error) {
	observe.Logger(w.ctx).Info(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
