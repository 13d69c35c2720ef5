// Package tts defines the Provider interface for speech synthesis backends.
//
// A TTS provider renders response text to a WAV-contained audio clip in one
// batch call. Unlike generation, there is no guaranteed-success provider:
// when the synthesis fallback chain is exhausted the pipeline returns a
// text-only answer rather than failing the request.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// Result is a synthesized audio clip.
type Result struct {
	// WAV holds a complete RIFF/WAVE file (16-bit PCM).
	WAV []byte

	// SampleRate and Channels duplicate the container metadata so callers
	// don't need to re-parse the header.
	SampleRate int
	Channels   int
}

// Provider is the abstraction over any speech synthesis backend.
type Provider interface {
	// Synthesize renders text to audio. Implementations must return a
	// non-nil Result on success; an error on any failure (the fallback
	// chain moves on to the next backend).
	Synthesize(ctx context.Context, text string) (*Result, error)

	// Name identifies the backend in logs and chain failure reports.
	Name() string

	// Healthy is the capability probe consulted by the fallback chain
	// before each invocation.
	Healthy(ctx context.Context) error
}
