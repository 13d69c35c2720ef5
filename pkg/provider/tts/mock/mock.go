// Package mock provides a test double for tts.Provider.
package mock

import (
	"context"
	"sync"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/tts"
)

// Compile-time assertion.
var _ tts.Provider = (*Provider)(nil)

// Provider is a mock tts.Provider.
type Provider struct {
	mu sync.Mutex

	// ID is returned by Name. Defaults to "mock".
	ID string

	// Result is returned by Synthesize on success.
	Result *tts.Result

	// SynthesizeErr, if non-nil, is returned by Synthesize.
	SynthesizeErr error

	// HealthyErr, if non-nil, is returned by Healthy.
	HealthyErr error

	// Texts records every text passed to Synthesize.
	Texts []string
}

// Synthesize records the text and returns Result, SynthesizeErr.
func (p *Provider) Synthesize(_ context.Context, text string) (*tts.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Texts = append(p.Texts, text)
	if p.SynthesizeErr != nil {
		return nil, p.SynthesizeErr
	}
	return p.Result, nil
}

// Name implements tts.Provider.
func (p *Provider) Name() string {
	if p.ID == "" {
		return "mock"
	}
	return p.ID
}

// Healthy implements tts.Provider.
func (p *Provider) Healthy(context.Context) error { return p.HealthyErr }

// Calls returns the number of Synthesize invocations so far.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Texts)
}
