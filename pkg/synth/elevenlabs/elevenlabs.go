// Package elevenlabs provides a synth.Synthesizer backed by the ElevenLabs
// HTTP API. Zero-shot cloning from a local sample is emulated with an
// instant-clone bracket: the sample is uploaded via POST /v1/voices/add, the
// utterance is rendered with the new voice, and the voice is deleted again so
// one-shot runs leave no residue in the account.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/HawaiianTea/kentbot-2.0/pkg/audio"
	"github.com/HawaiianTea/kentbot-2.0/pkg/synth"
)

// Compile-time interface assertion.
var _ synth.Synthesizer = (*Synthesizer)(nil)

// ---- constants ----

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	defaultModel   = "eleven_multilingual_v2"

	voicesPath    = "/v1/voices"
	voicesAddPath = "/v1/voices/add"
	ttsPathFmt    = "/v1/text-to-speech/%s"

	// outputFormat requests raw 16-bit PCM at 22050 Hz, which pkg/audio wraps
	// into a WAV container. The API's default MP3 output would need a decoder.
	outputFormat  = "pcm_22050"
	pcmSampleRate = 22050

	errBodyLimit = 512
)

// ---- options ----

// Option is a functional option for configuring an ElevenLabs Synthesizer.
type Option func(*Synthesizer)

// WithModel sets the ElevenLabs model ID (e.g., "eleven_multilingual_v2",
// "eleven_flash_v2_5"). Defaults to "eleven_multilingual_v2".
func WithModel(model string) Option {
	return func(s *Synthesizer) {
		s.model = model
	}
}

// WithBaseURL overrides the API base URL. Used by tests to point the client
// at a local server.
func WithBaseURL(baseURL string) Option {
	return func(s *Synthesizer) {
		s.baseURL = baseURL
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to no timeout.
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
// 22050 Hz, the rate the API renders at.
func WithOutputSampleRate(rate int) Option {
	return func(s *Synthesizer) {
		s.outputRate = rate
	}
}

// ---- Synthesizer ----

// Synthesizer implements synth.Synthesizer backed by the ElevenLabs HTTP API.
// It is safe for concurrent use.
type Synthesizer struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	outputRate int // target sample rate; 0 = native 22050 Hz
}

// New creates an ElevenLabs Synthesizer. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Synthesizer, error) {
	if apiKey == "" {
		return nil, errors.New("elevenlabs: apiKey must not be empty")
	}
	s := &Synthesizer{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(s)
	}
	s.baseURL = strings.TrimRight(s.baseURL, "/")
	return s, nil
}

// Name returns "elevenlabs".
func (s *Synthesizer) Name() string { return "elevenlabs" }

// ---- API response types ----

// voicesResponse is the top-level response from GET /v1/voices.
type voicesResponse struct {
	Voices []voiceEntry `json:"voices"`
}

// voiceEntry is a single voice entry from the ElevenLabs API.
type voiceEntry struct {
	VoiceID  string `json:"voice_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// addVoiceResponse is the JSON body returned by POST /v1/voices/add.
type addVoiceResponse struct {
	VoiceID string `json:"voice_id"`
}

// ttsRequest is the JSON body sent to POST /v1/text-to-speech/{voice_id}.
type ttsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// ---- Synthesize ----

// Synthesize renders text in the referenced voice and returns a complete WAV
// file at 22050 Hz mono.
//
// A SamplePath triggers the instant-clone bracket: the sample is uploaded as
// a temporary voice, used for the one synthesis call, and deleted afterwards
// on a best-effort basis. A SpeakerID is used directly and never deleted.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, ref synth.VoiceRef) ([]byte, error) {
	voiceID := ref.SpeakerID

	if ref.SamplePath != "" {
		sample, err := os.ReadFile(ref.SamplePath)
		if err != nil {
			return nil, fmt.Errorf("elevenlabs: read sample %q: %w", ref.SamplePath, err)
		}
		tmpName := fmt.Sprintf("kentbot_tmp_%d", time.Now().UnixNano())
		voiceID, err = s.addVoice(ctx, tmpName, [][]byte{sample})
		if err != nil {
			return nil, err
		}
		// The synthesis result is already in hand when this runs, so a failed
		// delete costs nothing but a leftover voice entry.
		defer func() { _ = s.deleteVoice(ctx, voiceID) }()
	}

	if voiceID == "" {
		return nil, fmt.Errorf("elevenlabs: %w", synth.ErrNoReference)
	}

	body, err := json.Marshal(ttsRequest{Text: text, ModelID: s.model})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: marshal tts request: %w", err)
	}

	reqURL := s.baseURL + fmt.Sprintf(ttsPathFmt, url.PathEscape(voiceID)) + "?output_format=" + outputFormat
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: create tts request: %w", err)
	}
	req.Header.Set("xi-api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: POST text-to-speech: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("POST text-to-speech", resp)
	}

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: read PCM response: %w", err)
	}
	if len(pcm) == 0 {
		return nil, errors.New("elevenlabs: empty PCM response")
	}

	wav := audio.EncodeWAV(pcm, pcmSampleRate, 1)
	if s.outputRate > 0 {
		wav, err = audio.Resample(wav, s.outputRate)
		if err != nil {
			return nil, fmt.Errorf("elevenlabs: resample response: %w", err)
		}
	}
	return wav, nil
}

// ---- ListVoices ----

// ListVoices returns all voices available to the configured API key.
func (s *Synthesizer) ListVoices(ctx context.Context) ([]synth.Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+voicesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: create list-voices request: %w", err)
	}
	req.Header.Set("xi-api-key", s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: GET %s: %w", voicesPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("GET "+voicesPath, resp)
	}

	var vr voicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("elevenlabs: decode voices response: %w", err)
	}

	voices := make([]synth.Voice, 0, len(vr.Voices))
	for _, v := range vr.Voices {
		voices = append(voices, synth.Voice{ID: v.VoiceID, Name: v.Name})
	}
	return voices, nil
}

// ---- CloneVoice ----

// CloneVoice registers a persistent voice from the supplied WAV samples via
// POST /v1/voices/add.
func (s *Synthesizer) CloneVoice(ctx context.Context, name string, samples [][]byte) (*synth.Voice, error) {
	if name == "" {
		return nil, errors.New("elevenlabs: CloneVoice requires a voice name")
	}
	if len(samples) == 0 {
		return nil, errors.New("elevenlabs: CloneVoice requires at least one audio sample")
	}
	voiceID, err := s.addVoice(ctx, name, samples)
	if err != nil {
		return nil, err
	}
	return &synth.Voice{ID: voiceID, Name: name}, nil
}

// ---- internal API calls ----

// addVoice uploads samples as a new voice and returns its ID.
func (s *Synthesizer) addVoice(ctx context.Context, name string, samples [][]byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("name", name); err != nil {
		return "", fmt.Errorf("elevenlabs: write name field: %w", err)
	}
	for i, sample := range samples {
		filename := fmt.Sprintf("sample_%02d.wav", i)
		fw, err := mw.CreateFormFile("files", filename)
		if err != nil {
			return "", fmt.Errorf("elevenlabs: create form file %s: %w", filename, err)
		}
		if _, err := fw.Write(sample); err != nil {
			return "", fmt.Errorf("elevenlabs: write form file %s: %w", filename, err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("elevenlabs: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+voicesAddPath, &body)
	if err != nil {
		return "", fmt.Errorf("elevenlabs: create add-voice request: %w", err)
	}
	req.Header.Set("xi-api-key", s.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("elevenlabs: POST %s: %w", voicesAddPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError("POST "+voicesAddPath, resp)
	}

	var addResp addVoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&addResp); err != nil {
		return "", fmt.Errorf("elevenlabs: decode add-voice response: %w", err)
	}
	if addResp.VoiceID == "" {
		return "", errors.New("elevenlabs: add-voice response missing voice_id")
	}
	return addResp.VoiceID, nil
}

// deleteVoice removes a voice from the account.
func (s *Synthesizer) deleteVoice(ctx context.Context, voiceID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.baseURL+voicesPath+"/"+url.PathEscape(voiceID), nil)
	if err != nil {
		return fmt.Errorf("elevenlabs: create delete-voice request: %w", err)
	}
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("elevenlabs: DELETE voice %s: %w", voiceID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError("DELETE voice", resp)
	}
	return nil
}

// ---- helpers ----

// statusError builds the error for a non-200 response, including a bounded
// excerpt of the response body when the API sent one.
func statusError(op string, resp *http.Response) error {
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
	msg := strings.TrimSpace(string(excerpt))
	if msg == "" {
		return fmt.Errorf("elevenlabs: %s returned status %d", op, resp.StatusCode)
	}
	return fmt.Errorf("elevenlabs: %s returned status %d: %s", op, resp.StatusCode, msg)
}
