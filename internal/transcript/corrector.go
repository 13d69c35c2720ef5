package transcript

import (
	"strings"
	"unicode"
)

// DefaultVocabulary lists the Sanskrit and scripture terms that appear in
// questions about the Gita and that speech recognition most often mangles.
var DefaultVocabulary = []string{
	"Bhagavad Gita",
	"Krishna",
	"Arjuna",
	"dharma",
	"karma",
	"moksha",
	"atman",
	"yoga",
	"Kurukshetra",
	"samsara",
	"Vedas",
}

// Correction records one replacement the corrector made.
type Correction struct {
	Original   string
	Corrected  string
	Confidence float64
}

// Corrector rewrites mangled vocabulary terms in a transcript. Safe for
// concurrent use.
type Corrector struct {
	matcher    *Matcher
	vocabulary []string
	maxNGram   int
}

// NewCorrector builds a [Corrector] over vocabulary. A nil or empty
// vocabulary falls back to [DefaultVocabulary]. The matcher may be nil, in
// which case default thresholds apply.
func NewCorrector(matcher *Matcher, vocabulary []string) *Corrector {
	if matcher == nil {
		matcher = NewMatcher()
	}
	if len(vocabulary) == 0 {
		vocabulary = DefaultVocabulary
	}

	maxNGram := 1
	for _, term := range vocabulary {
		if n := len(strings.Fields(term)); n > maxNGram {
			maxNGram = n
		}
	}
	return &Corrector{matcher: matcher, vocabulary: vocabulary, maxNGram: maxNGram}
}

// Correct replaces mangled vocabulary terms in text and reports what was
// changed. Longer n-gram windows are tried first so "bugger what geeta"
// becomes "Bhagavad Gita" rather than three single-word fixes. Punctuation
// attached to a window survives the replacement.
func (c *Corrector) Correct(text string) (string, []Correction) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return text, nil
	}

	out := make([]string, 0, len(tokens))
	var corrections []Correction

	for i := 0; i < len(tokens); {
		replaced := false

		for n := min(c.maxNGram, len(tokens)-i); n >= 1 && !replaced; n-- {
			span := strings.Join(tokens[i:i+n], " ")
			core, prefix, suffix := trimPunct(span)
			if core == "" {
				continue
			}

			term, confidence, matched := c.matcher.Match(core, c.vocabulary)
			if !matched {
				continue
			}

			out = append(out, prefix+term+suffix)
			corrections = append(corrections, Correction{
				Original:   core,
				Corrected:  term,
				Confidence: confidence,
			})
			i += n
			replaced = true
		}

		if !replaced {
			out = append(out, tokens[i])
			i++
		}
	}

	return strings.Join(out, " "), corrections
}

// trimPunct splits leading and trailing punctuation off s so the matcher
// sees bare words and the replacement keeps the punctuation.
func trimPunct(s string) (core, prefix, suffix string) {
	start := 0
	for start < len(s) && isPunct(rune(s[start])) {
		start++
	}
	end := len(s)
	for end > start && isPunct(rune(s[end-1])) {
		end--
	}
	return s[start:end], s[:start], s[end:]
}

func isPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
