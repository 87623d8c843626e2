package ranker

import (
	"sort"
	"strings"

	"scour/internal/adapter/vector"
	"scour/internal/domain"
)

// Weights distributes the composite score across its factors. They are
// expected to sum to at most 1 so the cap only absorbs rounding.
type Weights struct {
	Similarity float64 `yaml:"similarity"`
	Length     float64 `yaml:"length"`
	Title      float64 `yaml:"title"`
	Authority  float64 `yaml:"authority"`
}

func DefaultWeights() Weights {
	return Weights{Similarity: 0.7, Length: 0.1, Title: 0.15, Authority: 0.05}
}

// DefaultAuthority maps host fragments to source trust scores. Matching is
// by substring of the lowercased URL; overlapping matches take the highest
// score.
func DefaultAuthority() map[string]float64 {
	return map[string]float64{
		"wikipedia.org":         0.9,
		"arxiv.org":             0.9,
		"ieee.org":              0.9,
		"acm.org":               0.9,
		"docs.python.org":       0.9,
		"github.com":            0.8,
		"stackoverflow.com":     0.8,
		"realpython.com":        0.8,
		"developer.mozilla.org": 0.8,
		"medium.com":            0.6,
	}
}

const defaultAuthorityScore = 0.5

type Ranked struct {
	DocID   string
	Score   float64
	Factors domain.RankFactors
}

// Composite blends cosine similarity with document-quality signals: length,
// title overlap with the query, and source authority.
type Composite struct {
	weights   Weights
	authority map[string]float64
}

func New(weights Weights, authority map[string]float64) *Composite {
	if authority == nil {
		authority = DefaultAuthority()
	}
	return &Composite{weights: weights, authority: authority}
}

// Score combines one document's similarity with its metadata signals.
// queryWords are the cleaned query's whitespace-separated words.
func (c *Composite) Score(similarity float64, meta domain.DocumentMeta, queryWords []string) (float64, domain.RankFactors) {
	factors := domain.RankFactors{
		Similarity:    similarity,
		LengthQuality: lengthQuality(meta.WordCount),
		TitleMatch:    titleOverlap(meta.Title, queryWords),
		Authority:     c.authorityScore(meta.URL),
	}

	score := factors.Similarity*c.weights.Similarity +
		factors.LengthQuality*c.weights.Length +
		factors.TitleMatch*c.weights.Title +
		factors.Authority*c.weights.Authority
	if score > 1 {
		score = 1
	}
	return score, factors
}

// Rank rescores similarity-ranked documents with the composite and reorders
// by composite descending, ties by document id ascending.
func (c *Composite) Rank(sims []vector.Scored, metaOf func(string) (domain.DocumentMeta, bool), queryWords []string, topK int) []Ranked {
	results := make([]Ranked, 0, len(sims))
	for _, s := range sims {
		meta, _ := metaOf(s.DocID)
		score, factors := c.Score(s.Similarity, meta, queryWords)
		results = append(results, Ranked{DocID: s.DocID, Score: score, Factors: factors})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

// lengthQuality peaks at 1.0 for thousand-word documents and falls off for
// both stubs and doorstops.
func lengthQuality(wordCount int) float64 {
	if wordCount <= 0 {
		return 0
	}
	wc := float64(wordCount)
	q := wc / 1000
	if inv := 1000 / wc; inv < q {
		q = inv
	}
	return q
}

func titleOverlap(title string, queryWords []string) float64 {
	if len(queryWords) == 0 || title == "" {
		return 0
	}

	titleWords := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(title)) {
		titleWords[w] = struct{}{}
	}

	overlap := 0
	seen := make(map[string]struct{}, len(queryWords))
	for _, w := range queryWords {
		w = strings.ToLower(w)
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := titleWords[w]; ok {
			overlap++
		}
	}

	score := 2 * float64(overlap) / float64(len(seen))
	if score > 1 {
		score = 1
	}
	return score
}

func (c *Composite) authorityScore(url string) float64 {
	if url == "" {
		return defaultAuthorityScore
	}

	url = strings.ToLower(url)
	best := -1.0
	for host, score := range c.authority {
		if strings.Contains(url, host) && score > best {
			best = score
		}
	}
	if best < 0 {
		return defaultAuthorityScore
	}
	return best
}
