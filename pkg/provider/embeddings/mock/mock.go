// Package mock provides a deterministic test double for embeddings.Provider.
package mock

import (
	"context"
	"sync"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/embeddings"
)

// Compile-time assertion.
var _ embeddings.Provider = (*Provider)(nil)

// Provider is a mock embeddings.Provider. When Fn is nil, every text embeds
// to a zero vector of length Dims.
type Provider struct {
	mu sync.Mutex

	// Dims is the reported dimensionality. Defaults to 4 when zero.
	Dims int

	// Fn maps a text to its vector. Optional.
	Fn func(text string) []float32

	// EmbedErr, if non-nil, is returned by Embed and EmbedBatch.
	EmbedErr error

	// HealthyErr, if non-nil, is returned by Healthy.
	HealthyErr error

	// Texts records every text passed to Embed or EmbedBatch.
	Texts []string
}

func (p *Provider) dims() int {
	if p.Dims == 0 {
		return 4
	}
	return p.Dims
}

func (p *Provider) vector(text string) []float32 {
	if p.Fn != nil {
		return p.Fn(text)
	}
	return make([]float32, p.dims())
}

// Embed implements embeddings.Provider.
func (p *Provider) Embed(_ context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Texts = append(p.Texts, text)
	if p.EmbedErr != nil {
		return nil, p.EmbedErr
	}
	return p.vector(text), nil
}

// EmbedBatch implements embeddings.Provider.
func (p *Provider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Texts = append(p.Texts, texts...)
	if p.EmbedErr != nil {
		return nil, p.EmbedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = p.vector(t)
	}
	return out, nil
}

// Dimensions implements embeddings.Provider.
func (p *Provider) Dimensions() int { return p.dims() }

// ModelID implements embeddings.Provider.
func (p *Provider) ModelID() string { return "mock" }

// Healthy implements embeddings.Provider.
func (p *Provider) Healthy(context.Context) error { return p.HealthyErr }
