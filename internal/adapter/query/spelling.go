package query

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"

	"scour/internal/adapter/analyzer"
	"scour/internal/domain"
)

const DefaultSpellThreshold = 0.6

// SpellChecker corrects query tokens against the indexed vocabulary plus a
// list of trusted common words. A token is only corrected when no form of
// it, including its stem, is already known.
type SpellChecker struct {
	candidates []string
	known      map[string]struct{}
	normalizer *analyzer.Normalizer
	threshold  float64
}

// NewSpellChecker builds a checker over the index vocabulary and extra
// common words. Candidates are kept sorted so equal-similarity ties always
// resolve the same way.
func NewSpellChecker(vocabulary, commonWords []string, normalizer *analyzer.Normalizer, threshold float64) *SpellChecker {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultSpellThreshold
	}

	known := make(map[string]struct{}, len(vocabulary)+len(commonWords))
	candidates := make([]string, 0, len(vocabulary)+len(commonWords))
	add := func(w string) {
		w = strings.ToLower(w)
		if w == "" {
			return
		}
		if _, dup := known[w]; dup {
			return
		}
		known[w] = struct{}{}
		candidates = append(candidates, w)
	}
	for _, w := range vocabulary {
		add(w)
	}
	for _, w := range commonWords {
		add(w)
	}
	sort.Strings(candidates)

	return &SpellChecker{
		candidates: candidates,
		known:      known,
		normalizer: normalizer,
		threshold:  threshold,
	}
}

// Known reports whether token needs no correction: stopwords, numbers and
// words the index has seen (directly or via their stem) pass as-is.
func (s *SpellChecker) Known(token string) bool {
	if token == "" || isNumeric(token) {
		return true
	}
	if s.normalizer != nil && s.normalizer.IsStopword(token) {
		return true
	}
	token = strings.ToLower(token)
	if _, ok := s.known[token]; ok {
		return true
	}
	_, ok := s.known[english.Stem(token, true)]
	return ok
}

// Best returns the closest candidate to token and its similarity, without
// applying the acceptance threshold. ok is false when there are no
// candidates at all.
func (s *SpellChecker) Best(token string) (string, float64, bool) {
	token = strings.ToLower(token)
	best := ""
	bestSim := -1.0
	for _, cand := range s.candidates {
		// A length gap alone can push similarity under the best seen so far.
		gap := len(cand) - len(token)
		if gap < 0 {
			gap = -gap
		}
		longest := len(cand)
		if len(token) > longest {
			longest = len(token)
		}
		if longest == 0 || 1-float64(gap)/float64(longest) <= bestSim {
			continue
		}

		sim := 1 - float64(levenshtein(token, cand))/float64(longest)
		if sim > bestSim {
			best, bestSim = cand, sim
		}
	}
	if bestSim < 0 {
		return "", 0, false
	}
	return best, bestSim, true
}

// Check corrects a single token. The second return is false when the token
// is already known or no candidate clears the similarity threshold.
// Confidence scales with similarity, discounted for very short tokens.
func (s *SpellChecker) Check(token string) (domain.Correction, bool) {
	if s.Known(token) {
		return domain.Correction{}, false
	}

	cand, sim, ok := s.Best(token)
	if !ok || sim <= s.threshold {
		return domain.Correction{}, false
	}

	lengthTrust := float64(len(token)) / 10
	if lengthTrust > 1 {
		lengthTrust = 1
	}
	return domain.Correction{
		Original:   token,
		Corrected:  cand,
		Confidence: sim * lengthTrust,
	}, true
}

// CorrectQuery applies Check to each whitespace-separated token of a
// cleaned query and returns the corrected query with the corrections made.
func (s *SpellChecker) CorrectQuery(cleaned string) (string, []domain.Correction) {
	tokens := strings.Fields(cleaned)
	var corrections []domain.Correction
	for i, token := range tokens {
		if corr, ok := s.Check(token); ok {
			tokens[i] = corr.Corrected
			corrections = append(corrections, corr)
		}
	}
	return strings.Join(tokens, " "), corrections
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// levenshtein is the classic two-row edit distance with unit costs for
// insert, delete and substitute.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost

			min := del
			if ins < min {
				min = ins
			}
			if sub < min {
				min = sub
			}
			curr[j] = min
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
