package analyzer

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
)

const (
	DefaultMinTermLength = 2
	DefaultMaxTermLength = 25
)

// Normalizer reduces raw text to indexable terms: lowercase, split on
// non-alphanumeric runes, drop out-of-bounds tokens and stopwords, stem.
// Length bounds apply to the token before stemming.
type Normalizer struct {
	stopwords map[string]struct{}
	minLen    int
	maxLen    int
	useStem   bool
}

// NewNormalizer creates a Normalizer. Non-positive length bounds fall back
// to the defaults.
func NewNormalizer(minLen, maxLen int, useStemming bool) *Normalizer {
	if minLen <= 0 {
		minLen = DefaultMinTermLength
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxTermLength
	}
	return &Normalizer{
		stopwords: defaultStopwords(),
		minLen:    minLen,
		maxLen:    maxLen,
		useStem:   useStemming,
	}
}

// Normalize returns the canonical term sequence for text, in order of
// appearance. Unusable input yields an empty slice, never an error.
func (n *Normalizer) Normalize(text string) []string {
	words := splitWords(text)
	terms := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(word)
		if len(word) < n.minLen || len(word) > n.maxLen {
			continue
		}
		if _, isStop := n.stopwords[word]; isStop {
			continue
		}
		if n.useStem {
			word = english.Stem(word, true)
		}
		terms = append(terms, word)
	}

	return terms
}

// IsStopword reports whether the lowercased word is in the stopword set.
func (n *Normalizer) IsStopword(word string) bool {
	_, ok := n.stopwords[strings.ToLower(word)]
	return ok
}

// splitWords splits text into maximal runs of letters and digits.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

// defaultStopwords returns a set of common English stopwords.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "you", "your", "we", "our",
		"they", "their", "she", "her", "his", "if", "or", "so",
		"no", "can", "do", "does", "did", "been", "being", "would",
		"could", "should", "may", "might", "must", "shall", "which",
		"who", "whom", "what", "when", "where", "why", "how", "all",
		"each", "every", "both", "few", "more", "most", "other",
		"some", "such", "than", "too", "very", "just", "also",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
