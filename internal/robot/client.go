package robot

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultClientTimeout = 60 * time.Second

// Answer is one decoded server response, with the synthesized audio already
// hex-decoded back to WAV bytes. Audio is nil when the server had no voice
// available.
type Answer struct {
	Transcription     string
	Response          string
	FormattedResponse string
	ResponseRaw       string
	Audio             []byte
}

// Client talks to the question-answering server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a [Client].
type ClientOption func(*Client)

// WithClientTimeout sets the per-request timeout. The default of 60s covers
// transcription plus generation on modest hardware.
func WithClientTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a client for the server at baseURL
// (e.g. "http://192.168.1.100:5000").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultClientTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Healthy reports whether the server is up with its models loaded.
func (c *Client) Healthy(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("robot: health check: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK, nil
}

// wireAnswer is the server's envelope.
type wireAnswer struct {
	Transcription     string  `json:"transcription"`
	Response          string  `json:"response"`
	FormattedResponse string  `json:"formatted_response"`
	ResponseRaw       string  `json:"response_raw"`
	Audio             *string `json:"audio"`
	Message           string  `json:"message"`
	Error             string  `json:"error"`
}

// Ask posts raw int16 PCM to /process_audio and returns the decoded answer.
func (c *Client) Ask(ctx context.Context, pcm []byte) (*Answer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/process_audio", bytes.NewReader(pcm))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	return c.do(req)
}

// Greet fetches the server's greeting.
func (c *Client) Greet(ctx context.Context) (*Answer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/greet", nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Answer, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("robot: contact server: %w", err)
	}
	defer resp.Body.Close()

	var wire wireAnswer
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("robot: decode server response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if wire.Error != "" {
			return nil, fmt.Errorf("robot: server error (%d): %s", resp.StatusCode, wire.Error)
		}
		return nil, fmt.Errorf("robot: server error (%d)", resp.StatusCode)
	}

	answer := &Answer{
		Transcription:     wire.Transcription,
		Response:          wire.Response,
		FormattedResponse: wire.FormattedResponse,
		ResponseRaw:       wire.ResponseRaw,
	}
	if answer.Response == "" {
		answer.Response = wire.Message
	}
	if wire.Audio != nil {
		wav, err := hex.DecodeString(*wire.Audio)
		if err != nil {
			return nil, fmt.Errorf("robot: decode audio hex: %w", err)
		}
		answer.Audio = wav
	}
	return answer, nil
}
