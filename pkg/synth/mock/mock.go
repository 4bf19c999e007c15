// Package mock provides a test double for the synth.Synthesizer interface.
//
// Use Synthesizer to feed controlled audio to consumers and to verify the
// text and voice reference passed to the backend.
//
// Example:
//
//	s := &mock.Synthesizer{
//	    SynthesizeResult: wavBytes,
//	    ListVoicesResult: []synth.Voice{{ID: "v1", Name: "Alice"}},
//	}
//	wav, _ := s.Synthesize(ctx, "Hello.", synth.VoiceRef{SamplePath: "kent.wav"})
package mock

import (
	"context"
	"sync"

	"github.com/HawaiianTea/kentbot-2.0/pkg/synth"
)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	// Ctx is the context passed to Synthesize.
	Ctx context.Context
	// Text is the text passed to Synthesize.
	Text string
	// Ref is the voice reference passed to Synthesize.
	Ref synth.VoiceRef
}

// ListVoicesCall records a single invocation of ListVoices.
type ListVoicesCall struct {
	// Ctx is the context passed to ListVoices.
	Ctx context.Context
}

// CloneVoiceCall records a single invocation of CloneVoice.
type CloneVoiceCall struct {
	// Ctx is the context passed to CloneVoice.
	Ctx context.Context
	// Name is the voice name passed to CloneVoice.
	Name string
	// Samples is a copy of the audio samples passed to CloneVoice.
	Samples [][]byte
}

// Synthesizer is a mock implementation of synth.Synthesizer.
type Synthesizer struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// NameValue is returned by Name. Defaults to "mock" when empty.
	NameValue string

	// SynthesizeResult is the audio returned by Synthesize.
	SynthesizeResult []byte

	// SynthesizeErr, if non-nil, is returned as the error from Synthesize.
	SynthesizeErr error

	// ListVoicesResult is returned by ListVoices.
	ListVoicesResult []synth.Voice

	// ListVoicesErr, if non-nil, is returned as the error from ListVoices.
	ListVoicesErr error

	// CloneVoiceResult is returned by CloneVoice. May be nil.
	CloneVoiceResult *synth.Voice

	// CloneVoiceErr, if non-nil, is returned as the error from CloneVoice.
	CloneVoiceErr error

	// --- Call records ---

	// SynthesizeCalls records every call to Synthesize in order.
	SynthesizeCalls []SynthesizeCall

	// ListVoicesCalls records every call to ListVoices in order.
	ListVoicesCalls []ListVoicesCall

	// CloneVoiceCalls records every call to CloneVoice in order.
	CloneVoiceCalls []CloneVoiceCall
}

// Name returns NameValue, or "mock" when unset.
func (s *Synthesizer) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.NameValue == "" {
		return "mock"
	}
	return s.NameValue
}

// Synthesize records the call and returns SynthesizeResult, SynthesizeErr.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, ref synth.VoiceRef) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SynthesizeCalls = append(s.SynthesizeCalls, SynthesizeCall{Ctx: ctx, Text: text, Ref: ref})
	return s.SynthesizeResult, s.SynthesizeErr
}

// ListVoices records the call and returns ListVoicesResult, ListVoicesErr.
func (s *Synthesizer) ListVoices(ctx context.Context) ([]synth.Voice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListVoicesCalls = append(s.ListVoicesCalls, ListVoicesCall{Ctx: ctx})
	return s.ListVoicesResult, s.ListVoicesErr
}

// CloneVoice records the call and returns CloneVoiceResult, CloneVoiceErr.
func (s *Synthesizer) CloneVoice(ctx context.Context, name string, samples [][]byte) (*synth.Voice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	samplesCopy := make([][]byte, len(samples))
	copy(samplesCopy, samples)
	s.CloneVoiceCalls = append(s.CloneVoiceCalls, CloneVoiceCall{Ctx: ctx, Name: name, Samples: samplesCopy})
	return s.CloneVoiceResult, s.CloneVoiceErr
}

// Reset clears all recorded calls. Thread-safe.
func (s *Synthesizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SynthesizeCalls = nil
	s.ListVoicesCalls = nil
	s.CloneVoiceCalls = nil
}

// Ensure Synthesizer implements synth.Synthesizer at compile time.
var _ synth.Synthesizer = (*Synthesizer)(nil)
