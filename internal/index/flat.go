package index

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/corpus"
)

// Compile-time interface check.
var _ Searcher = (*Flat)(nil)

// Flat is an exact brute-force index over L2-normalized entry embeddings.
// With normalized vectors the inner product equals cosine similarity, so
// Search is a single pass of dot products followed by a stable sort.
//
// Flat is immutable after [Build] and safe for concurrent use.
type Flat struct {
	entries []corpus.Entry
	vectors [][]float32 // normalized, parallel to entries
	modelID string
}

// Build creates a [Flat] index from entries, every one of which must carry
// an embedding of the same dimension. modelID records which embedding model
// produced the vectors so snapshots from a different model are rejected.
func Build(entries []corpus.Entry, modelID string) (*Flat, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyIndex
	}

	dims := len(entries[0].Embedding)
	if dims == 0 {
		return nil, fmt.Errorf("index: entry %d has no embedding", entries[0].ID)
	}

	vectors := make([][]float32, len(entries))
	for i, e := range entries {
		if len(e.Embedding) != dims {
			return nil, fmt.Errorf("index: entry %d has %d dimensions, want %d",
				e.ID, len(e.Embedding), dims)
		}
		vectors[i] = normalize(e.Embedding)
	}

	return &Flat{entries: entries, vectors: vectors, modelID: modelID}, nil
}

// Len returns the number of indexed entries.
func (f *Flat) Len() int { return len(f.entries) }

// ModelID returns the embedding model that produced the index vectors.
func (f *Flat) ModelID() string { return f.modelID }

// Search implements [Searcher]. It never fails for a non-empty index; k is
// clamped to the index size and k <= 0 yields no matches.
func (f *Flat) Search(_ context.Context, embedding []float32, k int) ([]Match, error) {
	if len(embedding) != len(f.vectors[0]) {
		return nil, fmt.Errorf("index: query has %d dimensions, want %d",
			len(embedding), len(f.vectors[0]))
	}
	if k <= 0 {
		return nil, nil
	}
	if k > len(f.entries) {
		k = len(f.entries)
	}

	query := normalize(embedding)
	matches := make([]Match, len(f.entries))
	for i, vec := range f.vectors {
		matches[i] = Match{Entry: f.entries[i], Score: dot(query, vec)}
	}

	// Stable: equal scores keep corpus order.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches[:k], nil
}

// normalize returns v scaled to unit length. A zero vector is returned
// unchanged so it scores zero against everything instead of producing NaNs.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1 / math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x * inv
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
