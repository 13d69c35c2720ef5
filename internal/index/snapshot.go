package index

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/corpus"
	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/embeddings"
)

// snapshot is the on-disk gob form of a [Flat] index. Embeddings are stored
// raw (not normalized) so the snapshot round-trips through Build.
type snapshot struct {
	ModelID string
	Entries []corpus.Entry
}

// Save writes the index to path as a gob snapshot, creating parent
// directories as needed. The write goes through a temp file and rename so a
// crash never leaves a truncated snapshot behind.
func (f *Flat) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("index snapshot: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("index snapshot: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	snap := snapshot{ModelID: f.modelID, Entries: f.entries}
	if err := gob.NewEncoder(tmp).Encode(snap); err != nil {
		tmp.Close()
		return fmt.Errorf("index snapshot: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("index snapshot: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("index snapshot: rename: %w", err)
	}
	return nil
}

// LoadSnapshot reads a gob snapshot from path and rebuilds the [Flat] index
// from it.
func LoadSnapshot(path string) (*Flat, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("index snapshot: open: %w", err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("index snapshot: decode: %w", err)
	}
	return Build(snap.Entries, snap.ModelID)
}

// LoadOrBuild returns a [Flat] index over entries, reusing the snapshot at
// snapshotPath when it matches the live corpus (same entry count and same
// embedding model). Otherwise every translation is embedded via provider and
// a fresh snapshot is written. An empty snapshotPath disables caching.
//
// The ctx governs the batch embedding call, which for a full corpus can take
// a while against a local backend.
func LoadOrBuild(ctx context.Context, entries []corpus.Entry, provider embeddings.Provider, snapshotPath string) (*Flat, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyIndex
	}

	if snapshotPath != "" {
		cached, err := LoadSnapshot(snapshotPath)
		switch {
		case err == nil && cached.Len() == len(entries) && cached.ModelID() == provider.ModelID():
			slog.Info("reusing index snapshot",
				"path", snapshotPath, "entries", cached.Len(), "model", cached.ModelID())
			return cached, nil
		case err == nil:
			slog.Info("index snapshot is stale, rebuilding",
				"path", snapshotPath,
				"snapshot_entries", cached.Len(), "corpus_entries", len(entries),
				"snapshot_model", cached.ModelID(), "model", provider.ModelID())
		case !errors.Is(err, fs.ErrNotExist):
			slog.Warn("index snapshot unreadable, rebuilding", "path", snapshotPath, "error", err)
		}
	}

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Translation
	}

	slog.Info("embedding corpus for index build",
		"entries", len(entries), "model", provider.ModelID())
	vectors, err := provider.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("index: embed corpus: %w", err)
	}
	if len(vectors) != len(entries) {
		return nil, fmt.Errorf("index: embed corpus: got %d vectors for %d entries",
			len(vectors), len(entries))
	}

	built := make([]corpus.Entry, len(entries))
	copy(built, entries)
	for i := range built {
		built[i].Embedding = vectors[i]
	}

	idx, err := Build(built, provider.ModelID())
	if err != nil {
		return nil, err
	}

	if snapshotPath != "" {
		if err := idx.Save(snapshotPath); err != nil {
			slog.Warn("failed to write index snapshot", "path", snapshotPath, "error", err)
		}
	}
	return idx, nil
}
