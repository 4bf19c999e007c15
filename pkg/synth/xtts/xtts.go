// Package xtts provides a synth.Synthesizer backed by a locally-running
// Coqui XTTS v2 API server.
//
// The server exposes a small REST API: synthesis is performed via
// POST /tts_to_audio/ with a JSON body and returns a complete WAV file;
// the voice catalogue is retrieved from GET /studio_speakers; new voices
// are registered via POST /clone_speaker. Zero-shot cloning needs no
// registration at all: the speaker_wav field of a synthesis request may
// name a WAV file directly, which works because the CPU deployment this
// package targets runs the server on the same filesystem as the caller.
//
// Typical usage:
//
//	s, err := xtts.New("http://localhost:8002",
//	    xtts.WithLanguage("en"),
//	)
//	wav, err := s.Synthesize(ctx, "Hello there.", synth.VoiceRef{SamplePath: "voice.wav"})
package xtts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/HawaiianTea/kentbot-2.0/pkg/audio"
	"github.com/HawaiianTea/kentbot-2.0/pkg/synth"
)

// Compile-time interface assertion.
var _ synth.Synthesizer = (*Synthesizer)(nil)

// ---- constants ----

const (
	defaultLanguage        = "en"
	ttsEndpoint            = "/tts_to_audio/"
	studioSpeakersEndpoint = "/studio_speakers"
	cloneSpeakerEndpoint   = "/clone_speaker"

	// errBodyLimit bounds how much of an error response body is read into
	// the returned error message.
	errBodyLimit = 512
)

// ---- options ----

// Option is a functional option for configuring an XTTS Synthesizer.
type Option func(*Synthesizer)

// WithLanguage sets the BCP-47 language code sent to the server (e.g., "en",
// "de", "fr"). Defaults to "en" if not set.
func WithLanguage(lang string) Option {
	return func(s *Synthesizer) {
		s.language = lang
	}
}

// WithTimeout sets the per-request HTTP timeout for calls to the server.
// Defaults to no timeout: on CPU the model may legitimately take minutes to
// render a long utterance, and an expired timeout would abandon work the
// server has already paid for.
func WithTimeout(d time.Duration) Option {
	return func(s *Synthesizer) {
		s.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the default HTTP client. Options that adjust the
// client, such as WithTimeout, must come after this one.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Synthesizer) {
		s.httpClient = c
	}
}

// WithOutputSampleRate configures the synthesizer to resample returned audio
// to the given sample rate. When set to 0 (default), audio is returned at
// the model's native rate.
func WithOutputSampleRate(rate int) Option {
	return func(s *Synthesizer) {
		s.outputRate = rate
	}
}

// ---- Synthesizer ----

// Synthesizer implements synth.Synthesizer backed by an XTTS v2 API server.
// It is safe for concurrent use; multiple Synthesize calls may run in parallel.
type Synthesizer struct {
	serverURL  string
	language   string
	httpClient *http.Client
	outputRate int // target sample rate; 0 = native
}

// New creates a Synthesizer that targets the XTTS v2 API server at serverURL
// (e.g., "http://localhost:8002"). serverURL must be non-empty. Functional
// options may override the language, HTTP client, per-request timeout, and
// output sample rate.
func New(serverURL string, opts ...Option) (*Synthesizer, error) {
	if serverURL == "" {
		return nil, errors.New("xtts: serverURL must not be empty")
	}
	s := &Synthesizer{
		serverURL:  strings.TrimRight(serverURL, "/"),
		language:   defaultLanguage,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Name returns "xtts".
func (s *Synthesizer) Name() string { return "xtts" }

// ---- internal request/response types ----

// ttsRequest is the JSON body sent to POST /tts_to_audio/.
type ttsRequest struct {
	Text       string `json:"text"`
	SpeakerWav string `json:"speaker_wav"`
	Language   string `json:"language"`
}

// studioSpeakersResponse represents the raw map returned by GET /studio_speakers.
// Only the keys (voice names) matter, so the values are left as json.RawMessage.
type studioSpeakersResponse map[string]json.RawMessage

// cloneSpeakerResponse is the JSON body returned by POST /clone_speaker.
type cloneSpeakerResponse struct {
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

// ---- Synthesize ----

// Synthesize performs a single POST /tts_to_audio/ call and returns the
// complete WAV response. The text is sent whole; the server handles internal
// chunking for long inputs.
//
// The speaker_wav field is filled from ref: a SamplePath is resolved to an
// absolute path so the server process finds the file regardless of its own
// working directory, while a SpeakerID is passed through verbatim.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, ref synth.VoiceRef) ([]byte, error) {
	speaker, err := resolveSpeaker(ref)
	if err != nil {
		return nil, err
	}

	body := ttsRequest{
		Text:       text,
		SpeakerWav: speaker,
		Language:   s.language,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("xtts: marshal tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.serverURL+ttsEndpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("xtts: create tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/wav")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("xtts: POST %s: %w", ttsEndpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(http.MethodPost, ttsEndpoint, resp)
	}

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("xtts: read WAV response: %w", err)
	}
	if _, err := audio.DecodeInfo(wav); err != nil {
		return nil, fmt.Errorf("xtts: response is not playable audio: %w", err)
	}

	if s.outputRate > 0 {
		wav, err = audio.Resample(wav, s.outputRate)
		if err != nil {
			return nil, fmt.Errorf("xtts: resample response: %w", err)
		}
	}
	return wav, nil
}

// resolveSpeaker maps a VoiceRef to the speaker_wav value the server expects.
func resolveSpeaker(ref synth.VoiceRef) (string, error) {
	switch {
	case ref.SamplePath != "":
		abs, err := filepath.Abs(ref.SamplePath)
		if err != nil {
			return "", fmt.Errorf("xtts: resolve sample path %q: %w", ref.SamplePath, err)
		}
		return abs, nil
	case ref.SpeakerID != "":
		return ref.SpeakerID, nil
	default:
		return "", fmt.Errorf("xtts: %w", synth.ErrNoReference)
	}
}

// ---- ListVoices ----

// ListVoices retrieves the studio speaker catalogue via GET /studio_speakers
// and returns one Voice per entry, sorted by name for deterministic output.
func (s *Synthesizer) ListVoices(ctx context.Context) ([]synth.Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.serverURL+studioSpeakersEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("xtts: create list-voices request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("xtts: GET %s: %w", studioSpeakersEndpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(http.MethodGet, studioSpeakersEndpoint, resp)
	}

	var raw studioSpeakersResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("xtts: decode studio speakers: %w", err)
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	voices := make([]synth.Voice, 0, len(names))
	for _, name := range names {
		voices = append(voices, synth.Voice{ID: name, Name: name})
	}
	return voices, nil
}

// ---- CloneVoice ----

// CloneVoice registers a new speaker by uploading WAV samples to the server
// via POST /clone_speaker. Each element of samples must be a complete WAV
// file. The server may normalise the requested name; the name in the response
// is authoritative.
func (s *Synthesizer) CloneVoice(ctx context.Context, name string, samples [][]byte) (*synth.Voice, error) {
	if name == "" {
		return nil, errors.New("xtts: CloneVoice requires a voice name")
	}
	if len(samples) == 0 {
		return nil, errors.New("xtts: CloneVoice requires at least one audio sample")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("name", name); err != nil {
		return nil, fmt.Errorf("xtts: write name field: %w", err)
	}
	for i, sample := range samples {
		filename := fmt.Sprintf("sample_%02d.wav", i)
		fw, err := mw.CreateFormFile("wav_files", filename)
		if err != nil {
			return nil, fmt.Errorf("xtts: create form file %s: %w", filename, err)
		}
		if _, err := fw.Write(sample); err != nil {
			return nil, fmt.Errorf("xtts: write form file %s: %w", filename, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("xtts: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.serverURL+cloneSpeakerEndpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("xtts: create clone-speaker request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("xtts: POST %s: %w", cloneSpeakerEndpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(http.MethodPost, cloneSpeakerEndpoint, resp)
	}

	var cloneResp cloneSpeakerResponse
	if err := json.NewDecoder(resp.Body).Decode(&cloneResp); err != nil {
		return nil, fmt.Errorf("xtts: decode clone-speaker response: %w", err)
	}
	if cloneResp.Name == "" {
		return nil, errors.New("xtts: clone-speaker response missing name")
	}

	return &synth.Voice{ID: cloneResp.Name, Name: cloneResp.Name}, nil
}

// ---- helpers ----

// statusError builds the error for a non-200 response, including a bounded
// excerpt of the response body when the server sent one.
func statusError(method, endpoint string, resp *http.Response) error {
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
	msg := strings.TrimSpace(string(excerpt))
	if msg == "" {
		return fmt.Errorf("xtts: %s %s returned status %d", method, endpoint, resp.StatusCode)
	}
	return fmt.Errorf("xtts: %s %s returned status %d: %s", method, endpoint, resp.StatusCode, msg)
}
