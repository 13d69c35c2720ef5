// Package corpus holds the Bhagavad Gita verse corpus: the [Entry] record,
// the CSV loader used for the default file-backed deployment, and a
// PostgreSQL store for deployments that keep verses and embeddings in a
// pgvector-enabled database.
//
// Entries are immutable after load. The ID of an entry is its zero-based
// position in the source CSV, which is also the ID cited by the language
// model in generated answers.
package corpus

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyCorpus is returned when a load produces zero entries. An empty
// corpus cannot back a retrieval index, so callers treat this as fatal.
var ErrEmptyCorpus = errors.New("corpus contains no entries")

// Entry is a single verse of the corpus.
type Entry struct {
	// ID is the zero-based corpus position, stable across restarts as long
	// as the source CSV does not change.
	ID int

	// Chapter is the chapter number, zero when the source lacks the column.
	Chapter int

	// Verse is the verse reference within the chapter, e.g. "47" or "7-8".
	Verse string

	// Text is the verse in the source language, may be empty.
	Text string

	// Translation is the English translation. This is the text that gets
	// embedded and shown to the language model.
	Translation string

	// Embedding is the translation's embedding vector. Empty until an index
	// build or a database load fills it in.
	Embedding []float32
}

// Reference renders the human-readable chapter/verse reference, or an empty
// string when the entry has no chapter information.
func (e Entry) Reference() string {
	if e.Chapter == 0 {
		return ""
	}
	return fmt.Sprintf("Chapter %d, Verse %s", e.Chapter, e.Verse)
}

// Validate checks that every entry has a non-blank translation and IDs match
// corpus positions.
func Validate(entries []Entry) error {
	if len(entries) == 0 {
		return ErrEmptyCorpus
	}
	var errs []error
	for i, e := range entries {
		if e.ID != i {
			errs = append(errs, fmt.Errorf("entry %d: ID %d does not match position", i, e.ID))
		}
		if strings.TrimSpace(e.Translation) == "" {
			errs = append(errs, fmt.Errorf("entry %d: blank translation", i))
		}
	}
	return errors.Join(errs...)
}
