// Package pipeline implements the synthesis run itself: validate the
// reference sample, prepare the output location, delegate to a speech
// backend, and verify the artifact landed on disk.
//
// The run is a straight line with no retries and no cleanup of partial
// output. Backend faults are returned untouched so their native diagnostic
// reaches the caller; everything the pipeline detects locally is reported
// as an [Error] with a stable message.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/HawaiianTea/kentbot-2.0/internal/observe"
	"github.com/HawaiianTea/kentbot-2.0/pkg/audio"
	"github.com/HawaiianTea/kentbot-2.0/pkg/synth"
)

// previewLen is how many characters of the text appear in the progress
// line. Synthesis always receives the full text.
const previewLen = 50

// Stages a locally detected failure can originate from.
const (
	StageInput  = "input"
	StageOutput = "output"
)

// Job describes one synthesis invocation.
type Job struct {
	// Text to speak. Arbitrary length; never truncated for synthesis.
	Text string

	// SamplePath is the reference voice recording to clone from. Must
	// exist before the backend is built.
	SamplePath string

	// OutputPath is where the waveform lands. Parent directories are
	// created as needed; an existing file is overwritten.
	OutputPath string
}

// Result reports a confirmed synthesis.
type Result struct {
	OutputPath string
	Bytes      int64
}

// Error is a failure the pipeline detected itself, as opposed to a fault
// propagated untouched from the backend.
type Error struct {
	// Stage is StageInput or StageOutput.
	Stage string

	// Message is the stable, caller-visible diagnostic.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Options configures a Run beyond the job itself.
type Options struct {
	// NewSynthesizer builds the backend. It is called only after input
	// validation has passed, so a doomed run never pays the model cost.
	NewSynthesizer func() (synth.Synthesizer, error)

	// Stdout receives the progress lines. Defaults to os.Stdout.
	Stdout io.Writer

	// ModelLabel names the backend in the loading progress line.
	ModelLabel string

	// MinSampleDuration is the reference length below which a parseable
	// WAV sample draws a warning. Zero disables the check. Samples that
	// do not parse as WAV are forwarded to the backend untouched.
	MinSampleDuration time.Duration
}

// Run executes one synthesis job. On success the output file is confirmed
// present and non-empty. Locally detected failures come back as an [*Error];
// backend faults are returned as-is.
func Run(ctx context.Context, job Job, opts Options) (*Result, error) {
	ctx, span := observe.StartSpan(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.Int("text.length", len(job.Text)),
			attribute.String("output.path", job.OutputPath),
		),
	)
	defer span.End()

	res, err := run(ctx, job, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "complete")
	return res, nil
}

func run(ctx context.Context, job Job, opts Options) (*Result, error) {
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}

	// The reference sample must exist before any model cost is paid.
	if _, err := os.Stat(job.SamplePath); err != nil {
		return nil, &Error{Stage: StageInput, Message: "voice sample file not found: " + job.SamplePath}
	}

	if dir := filepath.Dir(job.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	fmt.Fprintf(out, "[TTS] Synthesizing: %s...\n", preview(job.Text))

	// Short reference samples clone poorly. Warn and proceed; the backend
	// stays the authority on what it accepts.
	if opts.MinSampleDuration > 0 {
		if info, err := audio.ProbeFile(job.SamplePath); err == nil {
			if d := info.Duration(); d < opts.MinSampleDuration {
				observe.Logger(ctx).Warn("reference sample is short",
					"path", job.SamplePath,
					"duration", d.Round(time.Millisecond),
					"minimum", opts.MinSampleDuration,
				)
			}
		}
	}

	fmt.Fprintf(out, "[TTS] Loading voice-cloning model (%s)...\n", opts.ModelLabel)
	s, err := opts.NewSynthesizer()
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(out, "[TTS] Synthesizing audio...")
	wav, err := s.Synthesize(ctx, job.Text, synth.VoiceRef{SamplePath: job.SamplePath})
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(job.OutputPath, wav, 0o644); err != nil {
		return nil, &Error{Stage: StageOutput, Message: "output file was not created: " + job.OutputPath, Err: err}
	}

	// The write returning cleanly is not the success signal. Confirm the
	// artifact exists and has bytes in it.
	fi, err := os.Stat(job.OutputPath)
	if err != nil {
		return nil, &Error{Stage: StageOutput, Message: "output file was not created: " + job.OutputPath}
	}
	if fi.Size() == 0 {
		return nil, &Error{Stage: StageOutput, Message: "output file was not created: " + job.OutputPath + " (empty file)"}
	}

	fmt.Fprintf(out, "[TTS] Success! Output: %s (%d bytes)\n", job.OutputPath, fi.Size())
	return &Result{OutputPath: job.OutputPath, Bytes: fi.Size()}, nil
}

// preview returns at most previewLen characters of text for logging.
func preview(text string) string {
	runes := []rune(text)
	if len(runes) > previewLen {
		return string(runes[:previewLen])
	}
	return text
}
