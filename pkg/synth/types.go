package synth

import "errors"

// ErrNoReference reports a VoiceRef that carries neither a sample path nor
// a speaker ID. Backends wrap it with their package prefix.
var ErrNoReference = errors.New("voice reference must carry a sample path or speaker ID")

// VoiceRef identifies the voice a synthesis request should speak in.
//
// Exactly one field should be set. When both are set, SamplePath wins:
// zero-shot cloning from a local sample is the primary mode of operation
// and a stale speaker ID must not override it.
type VoiceRef struct {
	// SamplePath is the path to a local WAV file holding a reference
	// recording of the target voice. Backends clone the voice from this
	// sample without prior registration.
	SamplePath string

	// SpeakerID is the backend-specific identifier of a pre-registered
	// voice, as returned by ListVoices or CloneVoice.
	SpeakerID string
}

// Voice describes a pre-registered voice offered by a backend.
type Voice struct {
	// ID is the backend-specific voice identifier.
	ID string

	// Name is the human-readable voice name.
	Name string
}
