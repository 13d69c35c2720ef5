// Package piper provides a neural TTS provider backed by a running Piper
// HTTP server (python -m piper.http_server --model <voice.onnx>).
//
// Piper is the preferred voice: a local neural model with low latency and
// the most natural output of the configured backends. Synthesis is one POST
// per utterance with a JSON body; the server answers with a complete WAV
// file.
package piper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/audio"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/tts"
)

// DefaultBaseURL is the default address of a locally running Piper server.
const DefaultBaseURL = "http://localhost:5000"

const defaultTimeout = 30 * time.Second

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

// Provider implements tts.Provider against a Piper HTTP server.
// It is safe for concurrent use.
type Provider struct {
	baseURL    string
	httpClient *http.Client

	// Synthesis tuning, matching the voice settings the robot has always
	// shipped with. Zero values are omitted from the request.
	lengthScale float64
	noiseScale  float64
	noiseWScale float64
	volume      float64
}

// Option is a functional option for Provider.
type Option func(*Provider)

// WithTimeout sets the per-request HTTP timeout. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// WithLengthScale stretches phoneme durations; values above 1.0 slow the
// voice down. The deployed default is 1.4.
func WithLengthScale(s float64) Option {
	return func(p *Provider) {
		p.lengthScale = s
	}
}

// WithNoiseScales sets the noise and noise-W synthesis parameters.
func WithNoiseScales(noise, noiseW float64) Option {
	return func(p *Provider) {
		p.noiseScale = noise
		p.noiseWScale = noiseW
	}
}

// WithVolume sets the output volume multiplier.
func WithVolume(v float64) Option {
	return func(p *Provider) {
		p.volume = v
	}
}

// New constructs a Provider targeting the Piper server at baseURL.
// If baseURL is empty, DefaultBaseURL is used.
func New(baseURL string, opts ...Option) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	p := &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// synthesisRequest is the JSON body accepted by Piper's HTTP server.
type synthesisRequest struct {
	Text        string  `json:"text"`
	LengthScale float64 `json:"length_scale,omitempty"`
	NoiseScale  float64 `json:"noise_scale,omitempty"`
	NoiseWScale float64 `json:"noise_w_scale,omitempty"`
	Volume      float64 `json:"volume,omitempty"`
}

// Synthesize implements tts.Provider.
func (p *Provider) Synthesize(ctx context.Context, text string) (*tts.Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("piper: empty text")
	}

	body, err := json.Marshal(synthesisRequest{
		Text:        text,
		LengthScale: p.lengthScale,
		NoiseScale:  p.noiseScale,
		NoiseWScale: p.noiseWScale,
		Volume:      p.volume,
	})
	if err != nil {
		return nil, fmt.Errorf("piper: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("piper: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("piper: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("piper: server returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("piper: read response: %w", err)
	}

	_, info, err := audio.DecodeWAV(wav)
	if err != nil {
		return nil, fmt.Errorf("piper: invalid WAV from server: %w", err)
	}

	return &tts.Result{
		WAV:        wav,
		SampleRate: info.SampleRate,
		Channels:   info.Channels,
	}, nil
}

// Name implements tts.Provider.
func (p *Provider) Name() string { return "piper" }

// Healthy implements tts.Provider by probing the server root. Any HTTP
// response means the process is up; a connection error means it isn't.
func (p *Provider) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("piper: create probe request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("piper: server unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
