package vector

import (
	"math"
	"sort"
)

type Scored struct {
	DocID      string
	Similarity float64
}

// Cosine returns the cosine similarity of two equal-length vectors. Either
// vector having zero magnitude yields exactly 0, and the result is clamped
// to [0, 1].
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// Rank scores every document vector against the query vector and returns
// the topK most similar, ordered by similarity descending with ties broken
// by document id ascending.
func Rank(queryVec []float64, docs map[string][]float64, topK int) []Scored {
	results := make([]Scored, 0, len(docs))
	for docID, vec := range docs {
		results = append(results, Scored{
			DocID:      docID,
			Similarity: Cosine(queryVec, vec),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].DocID < results[j].DocID
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}
