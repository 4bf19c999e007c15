// Package synth defines the Synthesizer interface for voice-cloning
// Text-to-Speech backends.
//
// A synthesizer wraps a speech synthesis service (e.g., a local XTTS v2
// API server or the ElevenLabs API) and presents a uniform batch interface:
// the full utterance text plus a voice reference in, a complete WAV file
// out. The primary entry point is Synthesize, which blocks until the
// backend has rendered the whole utterance.
//
// Implementations must be safe for concurrent use.
package synth

import "context"

// Synthesizer is the abstraction over any voice-cloning TTS backend.
//
// Implementations must be safe for concurrent use. Multiple synthesis
// requests may run in parallel (e.g., several CLI invocations sharing one
// backend server).
type Synthesizer interface {
	// Name returns the stable backend identifier used in configuration and
	// log output (e.g., "xtts", "elevenlabs").
	Name() string

	// Synthesize renders text as speech in the voice described by ref and
	// returns the complete audio as a WAV byte slice. The call blocks until
	// the backend has produced the full utterance or ctx is cancelled.
	//
	// Implementations must accept texts of arbitrary length and must not
	// truncate them; splitting long input into multiple backend requests is
	// an implementation detail as long as the returned audio covers the
	// whole text.
	//
	// Returns an error if the voice reference cannot be resolved, the
	// backend is unreachable, or the response is not playable audio.
	Synthesize(ctx context.Context, text string, ref VoiceRef) ([]byte, error)

	// ListVoices returns all pre-registered voices available from this
	// backend. The list reflects the backend's current catalogue and may
	// change between calls if voices are added or removed.
	//
	// Returns an error if the backend cannot be reached or if ctx is
	// cancelled before the list is retrieved.
	ListVoices(ctx context.Context) ([]Voice, error)

	// CloneVoice registers a new voice with the backend by training on the
	// supplied audio samples. Each element of samples must be a complete
	// WAV file. A nil or empty samples slice must return an error rather
	// than panic.
	//
	// This is an expensive operation and should not be called in the hot
	// path. Returns the newly created Voice (with a backend-assigned ID) or
	// an error if cloning fails.
	CloneVoice(ctx context.Context, name string, samples [][]byte) (*Voice, error)
}
