package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Column names recognised in the verse CSV header. The translation column is
// required in spirit: when absent, the last column is used instead so that
// corpora exported with different headers still load.
const (
	colTranslation = "translation"
	colChapter     = "chapter_number"
	colVerse       = "chapter_verse"
	colText        = "verse_in_sanskrit"
)

// LoadCSV reads the verse corpus from the CSV file at path. The first row is
// treated as a header. Rows with a blank translation are skipped; entry IDs
// are assigned from the resulting order.
func LoadCSV(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: open %s: %w", path, err)
	}
	defer f.Close()

	entries, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("corpus: read %s: %w", path, err)
	}
	return entries, nil
}

// ReadCSV parses verse entries from r. See [LoadCSV] for the format rules.
func ReadCSV(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // tolerate ragged rows, missing cells read as ""

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	translationIdx, ok := col[colTranslation]
	if !ok {
		// No translation column: fall back to the last column.
		translationIdx = len(header) - 1
	}

	field := func(row []string, idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}
	optional := func(name string) int {
		if i, ok := col[name]; ok {
			return i
		}
		return -1
	}
	chapterIdx := optional(colChapter)
	verseIdx := optional(colVerse)
	textIdx := optional(colText)

	var entries []Entry
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(entries)+1, err)
		}

		translation := field(row, translationIdx)
		if translation == "" {
			continue
		}

		chapter := 0
		if s := field(row, chapterIdx); s != "" {
			if n, err := strconv.Atoi(s); err == nil {
				chapter = n
			}
		}

		entries = append(entries, Entry{
			ID:          len(entries),
			Chapter:     chapter,
			Verse:       field(row, verseIdx),
			Text:        field(row, textIdx),
			Translation: translation,
		})
	}

	if len(entries) == 0 {
		return nil, ErrEmptyCorpus
	}
	return entries, nil
}
