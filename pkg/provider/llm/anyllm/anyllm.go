// Package anyllm provides a universal generation provider backed by
// github.com/mozilla-ai/any-llm-go, a unified multi-provider interface that
// supports OpenAI, Ollama, Anthropic, Gemini, and more.
//
// The pipeline's default configuration uses two instances of this package:
// an Ollama-backed primary (local inference, matching the original
// deployment) and an OpenAI-backed secondary.
//
// Usage:
//
//	p, err := anyllm.NewOllama("gemma3:1b")
//	p, err := anyllm.NewOpenAI("gpt-4o-mini", anyllmlib.WithAPIKey("sk-..."))
package anyllm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/llm"
)

// ollamaDefaultURL is where a local Ollama daemon listens.
const ollamaDefaultURL = "http://localhost:11434"

// Compile-time interface assertion.
var _ llm.Provider = (*Provider)(nil)

// Provider implements llm.Provider by wrapping any-llm-go.
type Provider struct {
	backend anyllmlib.Provider
	model   string

	// probe, when non-nil, implements Healthy. Backends without a cheap
	// liveness endpoint leave it nil and are assumed reachable.
	probe func(ctx context.Context) error
}

// New creates a Provider backed by the named any-llm-go backend
// ("ollama" or "openai"), with the given model.
func New(providerName, model string, opts ...anyllmlib.Option) (*Provider, error) {
	if providerName == "" {
		return nil, fmt.Errorf("anyllm: providerName must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("anyllm: model must not be empty")
	}

	backend, err := createBackend(providerName, opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", providerName, err)
	}
	return &Provider{backend: backend, model: model}, nil
}

// NewOllama creates a Provider backed by a local Ollama daemon. Without
// options it connects to http://localhost:11434; the Healthy probe checks
// the daemon's /api/tags endpoint so a stopped daemon is skipped by the
// fallback chain without waiting out a full completion timeout.
func NewOllama(model string, opts ...anyllmlib.Option) (*Provider, error) {
	p, err := New("ollama", model, opts...)
	if err != nil {
		return nil, err
	}
	p.probe = httpProbe(ollamaDefaultURL + "/api/tags")
	return p, nil
}

// NewOpenAI creates a Provider backed by OpenAI. Without options it reads
// the OPENAI_API_KEY environment variable.
func NewOpenAI(model string, opts ...anyllmlib.Option) (*Provider, error) {
	return New("openai", model, opts...)
}

// WithProbe replaces the Healthy implementation, e.g. to point the Ollama
// probe at a non-default host.
func (p *Provider) WithProbe(probe func(ctx context.Context) error) *Provider {
	p.probe = probe
	return p
}

func createBackend(providerName string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(providerName) {
	case "openai":
		return anyllmoai.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q; supported: openai, ollama", providerName)
	}
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.Request) (string, error) {
	var messages []anyllmlib.Message
	if req.SystemPrompt != "" {
		messages = append(messages, anyllmlib.Message{
			Role:    anyllmlib.RoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, anyllmlib.Message{
		Role:    anyllmlib.RoleUser,
		Content: req.UserPrompt,
	})

	params := anyllmlib.CompletionParams{
		Model:    p.model,
		Messages: messages,
	}
	if req.Temperature != 0 {
		t := req.Temperature
		params.Temperature = &t
	}
	if req.MaxTokens > 0 {
		mt := req.MaxTokens
		params.MaxTokens = &mt
	}

	resp, err := p.backend.Completion(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anyllm: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("anyllm: empty choices in response")
	}
	content := resp.Choices[0].Message.ContentString()
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("anyllm: blank completion from model %q", p.model)
	}
	return content, nil
}

// ModelID implements llm.Provider.
func (p *Provider) ModelID() string {
	return p.model
}

// Healthy implements llm.Provider. Backends without a configured probe are
// assumed reachable; the fallback chain still demotes them when the actual
// completion fails.
func (p *Provider) Healthy(ctx context.Context) error {
	if p.probe == nil {
		return nil
	}
	return p.probe(ctx)
}

// httpProbe returns a probe that considers the backend healthy when the
// given URL answers 200 within a short deadline.
func httpProbe(url string) func(ctx context.Context) error {
	client := &http.Client{Timeout: 3 * time.Second}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("anyllm: backend unreachable: %w", err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("anyllm: probe returned HTTP %d", resp.StatusCode)
		}
		return nil
	}
}
