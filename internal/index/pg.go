package index

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/corpus"
)

// Compile-time interface check.
var _ Searcher = (*PG)(nil)

// PG is a [Searcher] backed by the pgvector HNSW index over the entries
// table. Use it against the pool of a [corpus.Store] so search and storage
// share one database. Safe for concurrent use.
type PG struct {
	pool *pgxpool.Pool
}

// NewPG wraps pool in a pgvector-backed searcher.
func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

// Search implements [Searcher]. Cosine distance d maps to score 1-d, so
// results land in the same [-1, 1] range as the in-memory index.
func (p *PG) Search(ctx context.Context, embedding []float32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}

	const q = `
		SELECT id, chapter, verse, text, translation,
		       embedding <=> $1 AS distance
		FROM   entries
		ORDER  BY distance, id
		LIMIT  $2`

	rows, err := p.pool.Query(ctx, q, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("pg index: search: %w", err)
	}

	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Match, error) {
		var (
			m        Match
			distance float32
		)
		if err := row.Scan(&m.Entry.ID, &m.Entry.Chapter, &m.Entry.Verse,
			&m.Entry.Text, &m.Entry.Translation, &distance); err != nil {
			return Match{}, err
		}
		m.Score = 1 - distance
		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("pg index: scan rows: %w", err)
	}
	return matches, nil
}

// EnsurePopulated verifies the entries table is non-empty, returning
// [ErrEmptyIndex] otherwise. Called at startup so an unseeded database fails
// fast instead of answering every question ungrounded.
func (p *PG) EnsurePopulated(ctx context.Context) error {
	var n int
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM entries`).Scan(&n); err != nil {
		return fmt.Errorf("pg index: count: %w", err)
	}
	if n == 0 {
		return ErrEmptyIndex
	}
	return nil
}

// Seed fills an empty entries table from the CSV-loaded corpus using store.
// A non-empty table is left untouched.
func Seed(ctx context.Context, store *corpus.Store, entries []corpus.Entry) error {
	n, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return store.Upsert(ctx, entries)
}
