// Package llm defines the Provider interface for text generation backends.
//
// The question pipeline is single-turn: one grounded prompt in, one answer
// out. Providers wrap a remote or local model API (a local Ollama daemon, the
// OpenAI API, or the canned last-resort responder) behind this minimal
// surface so the generation fallback chain can treat them interchangeably.
//
// Implementations must be safe for concurrent use.
package llm

import "context"

// Request carries everything a generation backend needs for one completion.
type Request struct {
	// SystemPrompt is the high-priority instruction injected before the user
	// prompt. Providers without native system-role support prepend it.
	SystemPrompt string

	// UserPrompt is the grounded prompt: instruction block, retrieved verse
	// context, and the transcribed question.
	UserPrompt string

	// Temperature controls output randomness. Zero means provider default.
	Temperature float64

	// MaxTokens caps completion length. Zero means provider default.
	MaxTokens int
}

// Provider is the abstraction over any text generation backend.
type Provider interface {
	// Complete sends the request and waits for the full response text.
	// Returns an error if the backend fails or ctx is cancelled.
	Complete(ctx context.Context, req Request) (string, error)

	// ModelID returns the backend-specific model identifier for logging.
	ModelID() string

	// Healthy is the capability probe consulted by the fallback chain before
	// each invocation and by the readiness gate at startup. It must be cheap
	// and respect ctx cancellation.
	Healthy(ctx context.Context) error
}
