package index

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Raghuram-sekar/Amrita-Humanoid-Robot/internal/corpus"
	embmock "github.com/Raghuram-sekar/Amrita-Humanoid-Robot/pkg/provider/embeddings/mock"
)

func testEntries() []corpus.Entry {
	return []corpus.Entry{
		{ID: 0, Translation: "duty without attachment", Embedding: []float32{1, 0, 0}},
		{ID: 1, Translation: "the eternal soul", Embedding: []float32{0, 1, 0}},
		{ID: 2, Translation: "surrender and fearlessness", Embedding: []float32{0, 0, 1}},
		{ID: 3, Translation: "duty, restated", Embedding: []float32{2, 0, 0}},
	}
}

func TestFlat_SearchOrdering(t *testing.T) {
	idx, err := Build(testEntries(), "test-model")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	matches, err := idx.Search(context.Background(), []float32{1, 0.1, 0}, 4)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 4 {
		t.Fatalf("len = %d, want 4", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Fatalf("scores not descending: %v then %v", matches[i-1].Score, matches[i].Score)
		}
	}
	// Entries 0 and 3 normalize to the same vector; the tie keeps corpus order.
	if matches[0].Entry.ID != 0 || matches[1].Entry.ID != 3 {
		t.Fatalf("tie order = %d, %d, want 0, 3", matches[0].Entry.ID, matches[1].Entry.ID)
	}
}

func TestFlat_SearchClampsK(t *testing.T) {
	idx, err := Build(testEntries(), "test-model")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	matches, err := idx.Search(context.Background(), []float32{0, 1, 0}, 100)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != idx.Len() {
		t.Fatalf("len = %d, want %d", len(matches), idx.Len())
	}

	matches, err = idx.Search(context.Background(), []float32{0, 1, 0}, 0)
	if err != nil || len(matches) != 0 {
		t.Fatalf("k=0: matches=%v err=%v", matches, err)
	}
}

func TestFlat_SearchDimensionMismatch(t *testing.T) {
	idx, err := Build(testEntries(), "test-model")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := idx.Search(context.Background(), []float32{1, 0}, 1); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestBuild_Empty(t *testing.T) {
	if _, err := Build(nil, "m"); !errors.Is(err, ErrEmptyIndex) {
		t.Fatalf("err = %v, want ErrEmptyIndex", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "index.gob")

	idx, err := Build(testEntries(), "test-model")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if loaded.Len() != idx.Len() || loaded.ModelID() != "test-model" {
		t.Fatalf("loaded = %d entries, model %q", loaded.Len(), loaded.ModelID())
	}

	want, _ := idx.Search(context.Background(), []float32{1, 0, 0}, 2)
	got, err := loaded.Search(context.Background(), []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for i := range want {
		if got[i].Entry.ID != want[i].Entry.ID {
			t.Fatalf("result %d: got ID %d, want %d", i, got[i].Entry.ID, want[i].Entry.ID)
		}
	}
}

func TestLoadOrBuild(t *testing.T) {
	entries := []corpus.Entry{
		{ID: 0, Translation: "alpha"},
		{ID: 1, Translation: "beta"},
	}
	provider := &embmock.Provider{Dims: 3, Fn: func(text string) []float32 {
		return []float32{float32(len(text)), 1, 0}
	}}
	path := filepath.Join(t.TempDir(), "index.gob")

	idx, err := LoadOrBuild(context.Background(), entries, provider, path)
	if err != nil {
		t.Fatalf("LoadOrBuild (build): %v", err)
	}
	if idx.Len() != 2 {
		t.Fatalf("Len = %d, want 2", idx.Len())
	}
	firstCalls := len(provider.Texts)

	// Second call reuses the snapshot without re-embedding.
	idx2, err := LoadOrBuild(context.Background(), entries, provider, path)
	if err != nil {
		t.Fatalf("LoadOrBuild (cached): %v", err)
	}
	if idx2.Len() != 2 {
		t.Fatalf("cached Len = %d, want 2", idx2.Len())
	}
	if len(provider.Texts) != firstCalls {
		t.Fatal("cached load re-embedded the corpus")
	}

	// A grown corpus invalidates the snapshot.
	grown := append(entries, corpus.Entry{ID: 2, Translation: "gamma"})
	idx3, err := LoadOrBuild(context.Background(), grown, provider, path)
	if err != nil {
		t.Fatalf("LoadOrBuild (stale): %v", err)
	}
	if idx3.Len() != 3 {
		t.Fatalf("rebuilt Len = %d, want 3", idx3.Len())
	}
	if len(provider.Texts) == firstCalls {
		t.Fatal("stale snapshot was not rebuilt")
	}
}
