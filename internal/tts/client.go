// Package tts provides adapters for the external Tortoise text-to-speech engine.
//
// HTTPClient talks to a Tortoise HTTP server; CommandEngine runs the Tortoise
// command-line script. Both implement core.Synthesizer and return WAV
// candidates; decoding and file layout live in other packages.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/book-expert/marathi-tts/internal/core"
)

// API endpoints and paths.
const (
	apiGenerateSpeech = "/v1/generate/speech"
	apiHealth         = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
	contentTypeWAV    = "audio/wav"
	acceptCandidates  = "audio/wav, application/json"
)

// Default values.
const (
	defaultCandidates = 1
	marathiLanguage   = "mr"
)

// Error messages.
const (
	errFmtUnexpectedContentType = "%w: got %q"
	errFmtServiceErrorWithCode  = "%w (%s): %s (code: %s)"
	errFmtServiceNonOKStatus    = "%w: %s, body: %s"
)

// Static errors.
var (
	ErrTextEmpty             = errors.New("text cannot be empty")
	ErrUnexpectedContentType = errors.New("unexpected content type: expected audio/wav or application/json")
	ErrEmptyAudio            = errors.New("received empty audio data")
	ErrNoCandidates          = errors.New("engine returned no candidates")
	ErrServiceError          = errors.New("TTS service error")
)

// HTTPClient is a client for a Tortoise HTTP server.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	options    core.EngineOptions
}

// WireVoiceSample is a reference recording as sent to the server.
type WireVoiceSample struct {
	Name  string `json:"name"`
	Audio []byte `json:"audio"`
}

// TTSRequest defines the JSON payload of a generation request. Byte fields
// travel base64 encoded.
type TTSRequest struct {
	Text                string            `json:"text"`
	Voice               string            `json:"voice"`
	VoiceSamples        []WireVoiceSample `json:"voice_samples,omitempty"`
	ConditioningLatents []byte            `json:"conditioning_latents,omitempty"`
	Preset              string            `json:"preset"`
	Candidates          int               `json:"candidates"`
	Language            string            `json:"language"`
	KVCache             bool              `json:"kv_cache"`
	Half                bool              `json:"half"`
	UseDeepSpeed        bool              `json:"use_deepspeed"`
}

// CandidatesResponse is returned when the server produced several clips.
type CandidatesResponse struct {
	Candidates [][]byte `json:"candidates"`
	SampleRate int      `json:"sample_rate"`
}

// TTSErrorResponse represents a structured error response from the TTS service.
type TTSErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// NewHTTPClient creates a client for the server at baseURL
// (e.g. "http://localhost:8000"). The timeout applies to every request.
func NewHTTPClient(baseURL string, timeout time.Duration, options core.EngineOptions) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		options: options,
	}
}

// Synthesize sends one generation request and returns the WAV candidates.
func (c *HTTPClient) Synthesize(ctx context.Context, req core.SynthesisRequest) ([]core.Candidate, error) {
	if req.Text == "" {
		return nil, ErrTextEmpty
	}

	candidates := req.Candidates
	if candidates < 1 {
		candidates = defaultCandidates
	}

	samples := make([]WireVoiceSample, 0, len(req.Samples))
	for _, sample := range req.Samples {
		samples = append(samples, WireVoiceSample{Name: sample.Name, Audio: sample.Data})
	}

	payload := TTSRequest{
		Text:                req.Text,
		Voice:               req.Voice,
		VoiceSamples:        samples,
		ConditioningLatents: req.Latents,
		Preset:              req.Preset,
		Candidates:          candidates,
		Language:            marathiLanguage,
		KVCache:             c.options.KVCache,
		Half:                c.options.Half,
		UseDeepSpeed:        c.options.UseDeepSpeed,
	}

	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiGenerateSpeech,
		bytes.NewReader(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, acceptCandidates)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to TTS service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get(headerContentType))

	switch mediaType {
	case contentTypeWAV:
		return c.readSingleCandidate(resp.Body)
	case contentTypeJSON:
		return c.readCandidateList(resp.Body)
	default:
		return nil, fmt.Errorf(errFmtUnexpectedContentType, ErrUnexpectedContentType, mediaType)
	}
}

// HealthCheck verifies that the TTS service is running and operational.
func (c *HTTPClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiHealth, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed for service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health check returned %s", ErrServiceError, resp.Status)
	}

	return nil
}

func (c *HTTPClient) readSingleCandidate(body io.Reader) ([]core.Candidate, error) {
	audioData, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	return []core.Candidate{{WAV: audioData}}, nil
}

func (c *HTTPClient) readCandidateList(body io.Reader) ([]core.Candidate, error) {
	var list CandidatesResponse

	err := json.NewDecoder(body).Decode(&list)
	if err != nil {
		return nil, fmt.Errorf("failed to decode candidates: %w", err)
	}

	if len(list.Candidates) == 0 {
		return nil, ErrNoCandidates
	}

	candidates := make([]core.Candidate, 0, len(list.Candidates))

	for index, audioData := range list.Candidates {
		if len(audioData) == 0 {
			return nil, fmt.Errorf("candidate %d: %w", index, ErrEmptyAudio)
		}

		candidates = append(candidates, core.Candidate{WAV: audioData})
	}

	return candidates, nil
}

// parseErrorResponse decodes a structured JSON error from the service, falling
// back to the raw body.
func (c *HTTPClient) parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errorResp TTSErrorResponse

	err := json.Unmarshal(body, &errorResp)
	if err == nil && errorResp.Detail != "" {
		return fmt.Errorf(errFmtServiceErrorWithCode,
			ErrServiceError, resp.Status, errorResp.Detail, errorResp.ErrorCode)
	}

	return fmt.Errorf(errFmtServiceNonOKStatus, ErrServiceError, resp.Status, string(body))
}
