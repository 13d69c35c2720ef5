// Package embeddings defines the Provider interface for vector embedding
// backends.
//
// An embeddings provider maps text to dense float32 vectors. The retrieval
// stage uses one vector per incoming question, and the index builder uses
// batch embedding to encode the whole verse corpus at startup.
//
// Implementations must be safe for concurrent use.
package embeddings

import "context"

// Provider is the abstraction over any text-embedding backend.
//
// All vectors returned by one Provider instance share the same dimensionality
// (Dimensions). Vectors from different providers or models must never be
// mixed in one similarity computation — a cached index snapshot built with a
// different model is invalid and has to be rebuilt.
type Provider interface {
	// Embed computes the embedding vector for a single text string. Returns
	// a float32 slice of length Dimensions() or an error if the request
	// fails or ctx is cancelled.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch computes embedding vectors for a slice of texts in a single
	// backend call. The returned slice has the same length and order as
	// texts. Partial results are not returned — on error the slice is nil.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed length of every vector produced by this
	// provider.
	Dimensions() int

	// ModelID returns the backend-specific model identifier, recorded in
	// index snapshots so a model switch invalidates the cache.
	ModelID() string

	// Healthy probes whether the backend is currently usable.
	Healthy(ctx context.Context) error
}
