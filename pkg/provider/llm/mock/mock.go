// Package mock provides a test double for llm.Provider.
package mock

import (
	"context"
	"sync"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/llm"
)

// Compile-time assertion.
var _ llm.Provider = (*Provider)(nil)

// Provider is a mock llm.Provider.
type Provider struct {
	mu sync.Mutex

	// ID is returned by ModelID. Defaults to "mock".
	ID string

	// Response is returned by Complete.
	Response string

	// CompleteErr, if non-nil, is returned by Complete.
	CompleteErr error

	// HealthyErr, if non-nil, is returned by Healthy.
	HealthyErr error

	// Requests records every request passed to Complete.
	Requests []llm.Request
}

// Complete records the request and returns Response, CompleteErr.
func (p *Provider) Complete(_ context.Context, req llm.Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Requests = append(p.Requests, req)
	if p.CompleteErr != nil {
		return "", p.CompleteErr
	}
	return p.Response, nil
}

// ModelID implements llm.Provider.
func (p *Provider) ModelID() string {
	if p.ID == "" {
		return "mock"
	}
	return p.ID
}

// Healthy implements llm.Provider.
func (p *Provider) Healthy(context.Context) error { return p.HealthyErr }

// Calls returns the number of Complete invocations so far.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Requests)
}
