package vector

import (
	"errors"
	"fmt"
	"math"

	"scour/internal/adapter/index"
	"scour/internal/domain"
)

var ErrBadSnapshot = errors.New("corrupt vector snapshot")

// WeightedTerm is one query term occurrence with its contribution weight.
// Original query terms carry weight 1; expansion terms are down-weighted.
type WeightedTerm struct {
	Term   string
	Weight float64
}

// Model is a TF-IDF vector space over a frozen index. Dimensions are
// assigned from the sorted vocabulary, so building twice from the same index
// yields identical vectors. The model does not track index changes; rebuild
// it after the index is rebuilt.
type Model struct {
	dims map[string]int
	idf  []float64
	docs map[string][]float64
}

// Build derives the vector space from the index: one dimension per
// vocabulary term, IDF = ln((N+1)/(df+1)) + 1, document components
// tf/wordCount * idf.
func Build(idx *index.Inverted) *Model {
	vocab := idx.Vocabulary()
	m := &Model{
		dims: make(map[string]int, len(vocab)),
		idf:  make([]float64, len(vocab)),
		docs: make(map[string][]float64, idx.TotalDocuments()),
	}

	n := float64(idx.TotalDocuments())
	for dim, term := range vocab {
		m.dims[term] = dim
		df := float64(idx.DocumentFrequency(term))
		m.idf[dim] = math.Log((n+1)/(df+1)) + 1
	}

	for term, dim := range m.dims {
		for docID, positions := range idx.Postings(term) {
			vec, ok := m.docs[docID]
			if !ok {
				vec = make([]float64, len(vocab))
				m.docs[docID] = vec
			}
			meta, _ := idx.DocumentMeta(docID)
			wordCount := meta.WordCount
			if wordCount < 1 {
				wordCount = 1
			}
			tf := float64(len(positions)) / float64(wordCount)
			vec[dim] = tf * m.idf[dim]
		}
	}

	return m
}

// FromSnapshot reconstructs a model persisted by Snapshot.
func FromSnapshot(snap domain.VectorSnapshot) (*Model, error) {
	if snap.Dimensions == nil || snap.Documents == nil {
		return nil, fmt.Errorf("%w: missing section", ErrBadSnapshot)
	}
	if len(snap.IDF) != len(snap.Dimensions) {
		return nil, fmt.Errorf("%w: %d idf weights for %d dimensions",
			ErrBadSnapshot, len(snap.IDF), len(snap.Dimensions))
	}
	for docID, vec := range snap.Documents {
		if len(vec) != len(snap.Dimensions) {
			return nil, fmt.Errorf("%w: document %q vector has length %d, want %d",
				ErrBadSnapshot, docID, len(vec), len(snap.Dimensions))
		}
	}
	return &Model{dims: snap.Dimensions, idf: snap.IDF, docs: snap.Documents}, nil
}

func (m *Model) Snapshot() domain.VectorSnapshot {
	return domain.VectorSnapshot{
		Dimensions: m.dims,
		IDF:        m.idf,
		Documents:  m.docs,
	}
}

func (m *Model) Dimensions() int {
	return len(m.dims)
}

func (m *Model) DocumentCount() int {
	return len(m.docs)
}

// DocVector returns the stored vector for a document, nil if unknown.
func (m *Model) DocVector(docID string) []float64 {
	return m.docs[docID]
}

// DocVectors exposes all document vectors for ranking. Read-only.
func (m *Model) DocVectors() map[string][]float64 {
	return m.docs
}

// QueryVector maps normalized query terms into the model space. Term
// frequency is occurrences over total query length; terms outside the
// vocabulary contribute nothing.
func (m *Model) QueryVector(terms []string) []float64 {
	weighted := make([]WeightedTerm, len(terms))
	for i, t := range terms {
		weighted[i] = WeightedTerm{Term: t, Weight: 1}
	}
	return m.WeightedQueryVector(weighted)
}

// WeightedQueryVector is QueryVector with a per-occurrence weight
// multiplier. The TF denominator counts every occurrence regardless of
// weight, so down-weighting expansion terms never inflates original ones.
func (m *Model) WeightedQueryVector(terms []WeightedTerm) []float64 {
	vec := make([]float64, len(m.dims))
	if len(terms) == 0 {
		return vec
	}

	total := float64(len(terms))
	for _, wt := range terms {
		dim, ok := m.dims[wt.Term]
		if !ok {
			continue
		}
		vec[dim] += wt.Weight / total * m.idf[dim]
	}
	return vec
}
