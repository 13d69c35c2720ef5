// Package mock provides a test double for the asr package interfaces.
package mock

import (
	"context"
	"sync"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/audio"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/asr"
)

// Compile-time assertion.
var _ asr.Provider = (*Provider)(nil)

// Provider is a mock implementation of asr.Provider.
type Provider struct {
	mu sync.Mutex

	// Text is the transcript returned by Transcribe.
	Text string

	// TranscribeErr, if non-nil, is returned by Transcribe.
	TranscribeErr error

	// HealthyErr, if non-nil, is returned by Healthy.
	HealthyErr error

	// Frames records every frame passed to Transcribe.
	Frames []audio.Frame
}

// Transcribe records the frame and returns Text, TranscribeErr.
func (p *Provider) Transcribe(_ context.Context, frame audio.Frame) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Frames = append(p.Frames, frame)
	return p.Text, p.TranscribeErr
}

// Healthy returns HealthyErr.
func (p *Provider) Healthy(context.Context) error {
	return p.HealthyErr
}

// Calls returns the number of Transcribe invocations so far.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Frames)
}
