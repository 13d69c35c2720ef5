package pipeline

import (
	"regexp"
	"strconv"
	"strings"
)

// Citation markers the language model is instructed to emit, plus the
// variants it emits anyway: [id=123], (id=123), (id=123, score=0.9234) and
// bare id=123.
var (
	reBracketCitation = regexp.MustCompile(`\[id=\s*(\d+)\s*\]`)
	reParenCitation   = regexp.MustCompile(`(?i)\(id=\s*(\d+)(?:\s*,\s*score\s*=\s*[-+]?\d*\.?\d+)?\s*\)`)
	reBareCitation    = regexp.MustCompile(`\bid\s*=\s*(\d+)\b`)

	reAnyCitation = regexp.MustCompile(`(?i)\[id=\s*\d+\s*\]|\(id=\s*\d+(?:\s*,\s*score\s*=\s*[-+]?\d*\.?\d+)?\s*\)|\bid\s*=\s*\d+\b`)

	reEmptyBrackets = regexp.MustCompile(`\[\s*\]|\(\s*\)`)
	reManyNewlines  = regexp.MustCompile(`\n{3,}`)
	reManySpaces    = regexp.MustCompile(`[ \t]{2,}`)
	reLeakedPrompt  = regexp.MustCompile(`(?is)CONTEXT:.*USER QUERY:.*Answer:`)
)

// Segment is one piece of generated text: either plain prose or a citation
// marker referencing a corpus entry.
type Segment struct {
	// Text is the raw substring this segment covers.
	Text string

	// EntryID is the cited corpus entry when Citation is true.
	EntryID int

	// Citation marks the segment as a citation marker rather than prose.
	Citation bool
}

// ParseSegments splits generated text into plain and citation segments. The
// concatenation of all segment texts reproduces the input exactly.
func ParseSegments(text string) []Segment {
	var segments []Segment
	rest := text

	for rest != "" {
		loc := reAnyCitation.FindStringIndex(rest)
		if loc == nil {
			segments = append(segments, Segment{Text: rest})
			break
		}
		if loc[0] > 0 {
			segments = append(segments, Segment{Text: rest[:loc[0]]})
		}
		marker := rest[loc[0]:loc[1]]
		segments = append(segments, Segment{
			Text:     marker,
			EntryID:  citedEntry(marker),
			Citation: true,
		})
		rest = rest[loc[1]:]
	}
	return segments
}

// citedEntry extracts the entry ID from a single citation marker.
func citedEntry(marker string) int {
	for _, re := range []*regexp.Regexp{reBracketCitation, reParenCitation, reBareCitation} {
		if m := re.FindStringSubmatch(marker); m != nil {
			id, _ := strconv.Atoi(m[1])
			return id
		}
	}
	return -1
}

// CitedEntries returns the distinct entry IDs cited in text, in order of
// first appearance.
func CitedEntries(text string) []int {
	var ids []int
	seen := map[int]struct{}{}
	for _, seg := range ParseSegments(text) {
		if !seg.Citation || seg.EntryID < 0 {
			continue
		}
		if _, ok := seen[seg.EntryID]; ok {
			continue
		}
		seen[seg.EntryID] = struct{}{}
		ids = append(ids, seg.EntryID)
	}
	return ids
}

// Strip removes citation markers from generated text so the result reads as
// natural speech. Markers are replaced with a space, stray empty brackets are
// dropped, asterisks become spaces, runs of blank lines and spaces collapse,
// and a leaked prompt context block is cut. Strip is idempotent.
func Strip(text string) string {
	if text == "" {
		return text
	}

	var b strings.Builder
	for _, seg := range ParseSegments(text) {
		if seg.Citation {
			b.WriteString(" ")
			continue
		}
		b.WriteString(seg.Text)
	}
	cleaned := b.String()

	cleaned = reEmptyBrackets.ReplaceAllString(cleaned, " ")
	cleaned = strings.ReplaceAll(cleaned, "*", " ")
	cleaned = reManyNewlines.ReplaceAllString(cleaned, "\n\n")
	cleaned = reManySpaces.ReplaceAllString(cleaned, " ")
	cleaned = reLeakedPrompt.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}
