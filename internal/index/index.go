// Package index provides semantic retrieval over the verse corpus. Two
// implementations satisfy [Searcher]: [Flat], an exact in-memory index over
// L2-normalized embeddings, and [PG], which delegates nearest-neighbour
// search to a pgvector-enabled PostgreSQL database.
package index

import (
	"context"
	"errors"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/corpus"
)

// ErrEmptyIndex is returned when an index is built from, or loaded with,
// zero entries.
var ErrEmptyIndex = errors.New("index has no entries")

// Match is one retrieval hit: the matched entry plus its cosine similarity
// to the query, in [-1, 1].
type Match struct {
	Entry corpus.Entry
	Score float32
}

// Searcher finds the corpus entries most similar to a query embedding.
//
// Results are ordered by descending score; ties keep corpus order. At most k
// matches are returned, fewer when the index holds fewer entries.
type Searcher interface {
	Search(ctx context.Context, embedding []float32, k int) ([]Match, error)
}
