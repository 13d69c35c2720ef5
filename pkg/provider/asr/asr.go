// Package asr defines the Provider interface for speech recognition backends.
//
// An ASR provider wraps a transcription engine (e.g. a local whisper-server
// instance) and exposes a uniform batch interface: one normalized audio frame
// in, one transcript out. The question pipeline records complete utterances
// before submitting them, so no streaming session handling is needed.
//
// Implementations must be safe for concurrent use.
package asr

import (
	"context"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/audio"
)

// Provider is the abstraction over any speech recognition backend.
//
// Implementations must be safe for concurrent use; multiple requests may be
// transcribed in parallel.
type Provider interface {
	// Transcribe converts the frame to text. The frame is mono, normalized
	// float32 at the pipeline sample rate; implementations convert to their
	// engine's wire format internally.
	//
	// An empty string with a nil error is a legitimate result for silent or
	// unintelligible audio — the caller decides whether that fails the
	// request. A non-nil error means the engine itself could not be reached
	// or rejected the audio.
	Transcribe(ctx context.Context, frame audio.Frame) (string, error)

	// Healthy probes whether the backend is currently usable. It is called
	// by the readiness gate at startup and must respect ctx cancellation.
	Healthy(ctx context.Context) error
}
