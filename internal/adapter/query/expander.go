package query

import (
	"strings"

	"scour/internal/adapter/analyzer"
	"scour/internal/domain"
	"scour/internal/port"
)

const (
	DefaultMaxSynonyms = 3
	DefaultMaxRelated  = 3
)

// Expander widens a cleaned query with lexical neighbors of its terms.
// Expansion terms are appended after the original query, never interleaved,
// so the original terms keep their positions.
type Expander struct {
	lexicon     port.Lexicon
	normalizer  *analyzer.Normalizer
	maxSynonyms int
	maxRelated  int
}

func NewExpander(lexicon port.Lexicon, normalizer *analyzer.Normalizer, maxSynonyms, maxRelated int) *Expander {
	if maxSynonyms <= 0 {
		maxSynonyms = DefaultMaxSynonyms
	}
	if maxRelated <= 0 {
		maxRelated = DefaultMaxRelated
	}
	return &Expander{
		lexicon:     lexicon,
		normalizer:  normalizer,
		maxSynonyms: maxSynonyms,
		maxRelated:  maxRelated,
	}
}

// Expand returns the expanded query, the per-term expansion records, and
// the growth factor (expanded term count over original term count). Terms
// already present in the query are not appended twice.
func (e *Expander) Expand(cleaned string) (string, []domain.Expansion, float64) {
	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return cleaned, nil, 0
	}

	present := make(map[string]struct{}, len(words))
	for _, w := range words {
		present[w] = struct{}{}
	}

	var expansions []domain.Expansion
	var added []string
	for _, word := range words {
		if e.normalizer.IsStopword(word) {
			continue
		}

		exp := domain.Expansion{Term: word}
		for _, syn := range e.lexicon.Synonyms(word) {
			if len(exp.Synonyms) >= e.maxSynonyms {
				break
			}
			if !usableExpansion(syn, word, e.normalizer) {
				continue
			}
			exp.Synonyms = append(exp.Synonyms, syn)
			if _, dup := present[syn]; !dup {
				present[syn] = struct{}{}
				added = append(added, syn)
			}
		}
		for _, rel := range e.lexicon.Related(word) {
			if len(exp.Related) >= e.maxRelated {
				break
			}
			if !usableExpansion(rel, word, e.normalizer) {
				continue
			}
			exp.Related = append(exp.Related, rel)
			if _, dup := present[rel]; !dup {
				present[rel] = struct{}{}
				added = append(added, rel)
			}
		}

		if len(exp.Synonyms) > 0 || len(exp.Related) > 0 {
			expansions = append(expansions, exp)
		}
	}

	expanded := cleaned
	if len(added) > 0 {
		expanded = cleaned + " " + strings.Join(added, " ")
	}
	factor := float64(len(words)+len(added)) / float64(len(words))
	return expanded, expansions, factor
}

// usableExpansion keeps expansion terms to single lowercase words that add
// signal: multiword phrases, near-empty strings, stopwords and the term
// itself are rejected.
func usableExpansion(candidate, original string, normalizer *analyzer.Normalizer) bool {
	candidate = strings.TrimSpace(candidate)
	if len(candidate) <= 2 {
		return false
	}
	if strings.ContainsAny(candidate, " \t") {
		return false
	}
	if candidate == original {
		return false
	}
	return !normalizer.IsStopword(candidate)
}
