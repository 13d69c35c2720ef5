// Package canned provides the last-resort generation provider. It never
// fails and never touches the network: when every model backend is down the
// user still gets a spoken apology instead of a raw error.
package canned

import (
	"context"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/llm"
)

// DefaultResponse is returned when no reply text is configured.
const DefaultResponse = "I'm sorry — the language model is currently unavailable. Please try again in a moment."

// Compile-time interface assertion.
var _ llm.Provider = (*Provider)(nil)

// Provider implements llm.Provider with a fixed response.
type Provider struct {
	response string
}

// New creates a canned Provider. An empty response selects DefaultResponse.
func New(response string) *Provider {
	if response == "" {
		response = DefaultResponse
	}
	return &Provider{response: response}
}

// Complete implements llm.Provider. It only fails when ctx is already
// cancelled, which the coordinator treats as a request timeout rather than a
// provider fault.
func (p *Provider) Complete(ctx context.Context, _ llm.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.response, nil
}

// ModelID implements llm.Provider.
func (p *Provider) ModelID() string { return "canned" }

// Healthy implements llm.Provider. Always usable.
func (p *Provider) Healthy(context.Context) error { return nil }
