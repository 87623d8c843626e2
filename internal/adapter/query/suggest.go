package query

import (
	"sort"
	"strings"

	"scour/internal/domain"
)

// Suggestion scores by source. Vocabulary completions outrank curated
// common queries, which outrank history recalls and spelling guesses.
const (
	scoreVocabulary = 0.9
	scoreCommon     = 0.8
	scoreHistory    = 0.7
	scoreSpelling   = 0.6
)

const DefaultMaxSuggestions = 5

// Suggester completes partial queries from four sources: the indexed
// vocabulary, configured common queries, recent query history, and the
// spell checker as a last resort.
type Suggester struct {
	vocabulary []string
	common     []string
	history    *History
	speller    *SpellChecker
}

// NewSuggester copies and sorts vocabulary for prefix scanning. common is
// kept in its configured order.
func NewSuggester(vocabulary, common []string, history *History, speller *SpellChecker) *Suggester {
	vocab := make([]string, len(vocabulary))
	copy(vocab, vocabulary)
	sort.Strings(vocab)
	return &Suggester{
		vocabulary: vocab,
		common:     common,
		history:    history,
		speller:    speller,
	}
}

// Suggest returns up to limit suggestions for the partial input, ordered by
// score descending. Inputs shorter than two characters yield nothing.
func (s *Suggester) Suggest(input string, limit int) []domain.Suggestion {
	input = strings.ToLower(strings.TrimSpace(input))
	if len(input) < 2 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultMaxSuggestions
	}

	var out []domain.Suggestion
	seen := make(map[string]struct{})
	add := func(text string, score float64, source string) {
		text = strings.TrimSpace(text)
		if text == "" || text == input {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		out = append(out, domain.Suggestion{Text: text, Score: score, Source: source})
	}

	// Sorted vocabulary makes the prefix range contiguous.
	start := sort.SearchStrings(s.vocabulary, input)
	for i := start; i < len(s.vocabulary) && strings.HasPrefix(s.vocabulary[i], input); i++ {
		add(s.vocabulary[i], scoreVocabulary, "vocabulary")
	}

	for _, c := range s.common {
		if strings.Contains(strings.ToLower(c), input) {
			add(strings.ToLower(c), scoreCommon, "common")
		}
	}

	if s.history != nil {
		for _, h := range s.history.Recent() {
			if strings.Contains(h, input) {
				add(h, scoreHistory, "history")
			}
		}
	}

	if s.speller != nil && !strings.Contains(input, " ") && !s.speller.Known(input) {
		if cand, sim, ok := s.speller.Best(input); ok && sim > s.speller.threshold {
			add(cand, scoreSpelling, "spelling")
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
