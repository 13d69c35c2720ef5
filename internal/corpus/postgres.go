package corpus

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

const ddlEntries = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS entries (
    id           INTEGER      PRIMARY KEY,
    chapter      INTEGER      NOT NULL DEFAULT 0,
    verse        TEXT         NOT NULL DEFAULT '',
    text         TEXT         NOT NULL DEFAULT '',
    translation  TEXT         NOT NULL,
    embedding    VECTOR(%d)   NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_embedding
    ON entries USING hnsw (embedding vector_cosine_ops);
`

// Store is the PostgreSQL-backed corpus store. It holds a single
// [pgxpool.Pool] shared with the pgvector retrieval index. All methods are
// safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to the database at dsn, registers pgvector types on
// every connection, and ensures the entries table and its HNSW index exist.
//
// embeddingDimensions must match the output dimension of the embedding model
// used to fill entry embeddings. Changing it after the first migration
// requires a manual schema change.
func NewStore(ctx context.Context, dsn string, embeddingDimensions int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("corpus store: parse dsn: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("corpus store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("corpus store: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, fmt.Sprintf(ddlEntries, embeddingDimensions)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("corpus store: migrate: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Pool exposes the underlying connection pool so the retrieval index can run
// nearest-neighbour queries against the same database.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Upsert writes entries into the entries table, replacing rows that share an
// ID. Every entry must carry its embedding.
func (s *Store) Upsert(ctx context.Context, entries []Entry) error {
	const q = `
		INSERT INTO entries (id, chapter, verse, text, translation, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
		    chapter     = EXCLUDED.chapter,
		    verse       = EXCLUDED.verse,
		    text        = EXCLUDED.text,
		    translation = EXCLUDED.translation,
		    embedding   = EXCLUDED.embedding`

	batch := &pgx.Batch{}
	for _, e := range entries {
		if len(e.Embedding) == 0 {
			return fmt.Errorf("corpus store: entry %d has no embedding", e.ID)
		}
		batch.Queue(q, e.ID, e.Chapter, e.Verse, e.Text, e.Translation,
			pgvector.NewVector(e.Embedding))
	}

	res := s.pool.SendBatch(ctx, batch)
	defer res.Close()
	for range entries {
		if _, err := res.Exec(); err != nil {
			return fmt.Errorf("corpus store: upsert: %w", err)
		}
	}
	return nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("corpus store: count: %w", err)
	}
	return n, nil
}

// LoadAll reads every entry ordered by ID, embeddings included.
func (s *Store) LoadAll(ctx context.Context) ([]Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, chapter, verse, text, translation, embedding FROM entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("corpus store: load: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var (
			e   Entry
			vec pgvector.Vector
		)
		if err := row.Scan(&e.ID, &e.Chapter, &e.Verse, &e.Text, &e.Translation, &vec); err != nil {
			return Entry{}, err
		}
		e.Embedding = vec.Slice()
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("corpus store: scan rows: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrEmptyCorpus
	}
	return entries, nil
}

// Close releases all connections held by the pool.
func (s *Store) Close() {
	s.pool.Close()
}
