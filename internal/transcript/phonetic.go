// Package transcript corrects speech-recognition output before retrieval.
//
// Whisper models reliably mangle Sanskrit vocabulary ("dharma" becomes
// "drama", "Arjuna" becomes "a junior"). The corrector aligns transcript
// tokens against a known vocabulary using Double Metaphone phonetic codes
// for candidate filtering and Jaro-Winkler similarity for ranking, so the
// retrieval stage sees the terms the corpus actually contains.
package transcript

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// MatcherOption configures a [Matcher].
type MatcherOption func(*Matcher)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for a
// phonetically-matched term to be accepted. Default: 0.70.
func WithPhoneticThreshold(threshold float64) MatcherOption {
	return func(m *Matcher) { m.phoneticThreshold = threshold }
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required when no
// phonetic candidate exists and the matcher falls back to pure string
// similarity. Default: 0.85.
func WithFuzzyThreshold(threshold float64) MatcherOption {
	return func(m *Matcher) { m.fuzzyThreshold = threshold }
}

// Matcher aligns a spoken word (or short phrase) against a vocabulary of
// known terms. Read-only after construction, safe for concurrent use.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// NewMatcher returns a [Matcher] with the supplied options applied.
func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match finds the vocabulary term most phonetically similar to word.
//
// A term becomes a candidate when any of its Double Metaphone codes overlaps
// the codes of the input tokens; candidates are ranked by Jaro-Winkler
// similarity and accepted above the phonetic threshold. Without a phonetic
// candidate, a stricter pure-similarity pass runs. When matched is false,
// corrected equals word unchanged and confidence is 0.
func (m *Matcher) Match(word string, vocabulary []string) (corrected string, confidence float64, matched bool) {
	if len(vocabulary) == 0 || strings.TrimSpace(word) == "" {
		return word, 0, false
	}

	wordLower := strings.ToLower(strings.TrimSpace(word))
	wordTokens := strings.Fields(wordLower)
	inputCodes := codesForTokens(wordTokens)

	type candidate struct {
		term     string
		score    float64
		phonetic bool
	}
	var best candidate

	for _, term := range vocabulary {
		termLower := strings.ToLower(strings.TrimSpace(term))
		if termLower == "" {
			continue
		}
		if termLower == wordLower {
			// Already correct, nothing to do.
			return word, 0, false
		}
		termTokens := strings.Fields(termLower)

		// A multi-token input only matches a term of the same token count,
		// aligned position by position. Without this, one strong token would
		// drag unrelated neighbours into the replacement.
		var score float64
		if len(wordTokens) > 1 {
			if len(termTokens) != len(wordTokens) {
				continue
			}
			score = alignedSimilarity(wordTokens, termTokens)
		} else {
			score = bestSimilarity(wordTokens, termTokens, wordLower, termLower)
		}

		phoneticMatch := codesOverlap(inputCodes, codesForTokens(termTokens))

		if phoneticMatch {
			if score >= m.phoneticThreshold && (!best.phonetic || score > best.score) {
				best = candidate{term: term, score: score, phonetic: true}
			}
		} else if !best.phonetic && score >= m.fuzzyThreshold && score > best.score {
			best = candidate{term: term, score: score, phonetic: false}
		}
	}

	if best.term != "" {
		return best.term, best.score, true
	}
	return word, 0, false
}

// codesForTokens returns the union of the Double Metaphone codes of tokens.
// Empty codes are excluded.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// alignedSimilarity scores two equal-length token sequences by their worst
// positional Jaro-Winkler pair, so every spoken token must resemble its
// counterpart in the term.
func alignedSimilarity(inputTokens, termTokens []string) float64 {
	score := 1.0
	for i := range inputTokens {
		if s := matchr.JaroWinkler(inputTokens[i], termTokens[i], false); s < score {
			score = s
		}
	}
	return score
}

// bestSimilarity takes the highest Jaro-Winkler score across full strings,
// space-stripped strings, and all token pairs, so "a junior" can still land
// on "Arjuna" and "bugger what geeta" on "Bhagavad Gita".
func bestSimilarity(inputTokens, termTokens []string, inputFull, termFull string) float64 {
	score := matchr.JaroWinkler(inputFull, termFull, false)

	if len(inputTokens) > 1 || len(termTokens) > 1 {
		joined := matchr.JaroWinkler(strings.Join(inputTokens, ""), strings.Join(termTokens, ""), false)
		if joined > score {
			score = joined
		}
	}

	for _, it := range inputTokens {
		for _, tt := range termTokens {
			if s := matchr.JaroWinkler(it, tt, false); s > score {
				score = s
			}
		}
	}
	return score
}
