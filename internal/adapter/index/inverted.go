package index

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"scour/internal/domain"
	"scour/internal/port"
)

// ErrCorruptSnapshot marks a persisted index that cannot be restored. Errors
// wrapping it name the section that is missing or inconsistent.
var ErrCorruptSnapshot = errors.New("corrupt index snapshot")

type ScoredDoc struct {
	DocID string
	Score float64
}

// Inverted maps terms to per-document positions. A single writer populates
// it; once built it is shared read-only, so reads take no locks.
type Inverted struct {
	normalizer port.Normalizer
	logger     *slog.Logger

	postings map[string]map[string][]int
	docs     map[string]domain.DocumentMeta
	docTerms map[string][]string
}

func New(normalizer port.Normalizer, logger *slog.Logger) *Inverted {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inverted{
		normalizer: normalizer,
		logger:     logger,
		postings:   make(map[string]map[string][]int),
		docs:       make(map[string]domain.DocumentMeta),
		docTerms:   make(map[string][]string),
	}
}

// AddDocument normalizes text and records term positions for id. A document
// that normalizes to nothing is skipped without touching index state. Adding
// an id that already exists replaces its previous postings; the document
// count never double-counts an id.
func (idx *Inverted) AddDocument(id, text string, meta domain.DocumentMeta) bool {
	terms := idx.normalizer.Normalize(text)
	if len(terms) == 0 {
		idx.logger.Warn("document has no indexable terms, skipping", "doc_id", id)
		return false
	}

	if _, exists := idx.docs[id]; exists {
		idx.removeDocument(id)
	}

	distinct := make([]string, 0, len(terms))
	for pos, term := range terms {
		docPositions, ok := idx.postings[term]
		if !ok {
			docPositions = make(map[string][]int)
			idx.postings[term] = docPositions
		}
		if _, seen := docPositions[id]; !seen {
			distinct = append(distinct, term)
		}
		docPositions[id] = append(docPositions[id], pos)
	}

	meta.WordCount = len(terms)
	idx.docs[id] = meta
	idx.docTerms[id] = distinct
	return true
}

// removeDocument drops all postings for id. Terms left with no documents
// leave the vocabulary.
func (idx *Inverted) removeDocument(id string) {
	for _, term := range idx.docTerms[id] {
		docPositions := idx.postings[term]
		delete(docPositions, id)
		if len(docPositions) == 0 {
			delete(idx.postings, term)
		}
	}
	delete(idx.docTerms, id)
	delete(idx.docs, id)
}

// TermFrequency returns how many times term occurs in the document, 0 when
// either is unknown.
func (idx *Inverted) TermFrequency(term, docID string) int {
	return len(idx.postings[term][docID])
}

// DocumentFrequency returns how many documents contain term.
func (idx *Inverted) DocumentFrequency(term string) int {
	return len(idx.postings[term])
}

func (idx *Inverted) HasTerm(term string) bool {
	return len(idx.postings[term]) > 0
}

// Postings returns the docID to positions map for term. The map is the
// index's own; callers must treat it as read-only.
func (idx *Inverted) Postings(term string) map[string][]int {
	return idx.postings[term]
}

func (idx *Inverted) DocumentMeta(id string) (domain.DocumentMeta, bool) {
	meta, ok := idx.docs[id]
	return meta, ok
}

func (idx *Inverted) TotalDocuments() int {
	return len(idx.docs)
}

// Vocabulary returns all indexed terms in sorted order.
func (idx *Inverted) Vocabulary() []string {
	terms := make([]string, 0, len(idx.postings))
	for term := range idx.postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// BooleanSearch intersects the posting sets of the given normalized terms.
// Every term must match: a term absent from the vocabulary empties the
// result. Matches are scored by summed term frequency and ordered by score
// descending, then document id ascending.
func (idx *Inverted) BooleanSearch(terms []string, topK int) []ScoredDoc {
	if len(terms) == 0 {
		return nil
	}

	matching := make(map[string]struct{})
	for docID := range idx.postings[terms[0]] {
		matching[docID] = struct{}{}
	}
	for _, term := range terms[1:] {
		if len(matching) == 0 {
			return nil
		}
		docPositions := idx.postings[term]
		for docID := range matching {
			if _, ok := docPositions[docID]; !ok {
				delete(matching, docID)
			}
		}
	}
	if len(matching) == 0 {
		return nil
	}

	results := make([]ScoredDoc, 0, len(matching))
	for docID := range matching {
		score := 0.0
		for _, term := range terms {
			score += float64(len(idx.postings[term][docID]))
		}
		results = append(results, ScoredDoc{DocID: docID, Score: score})
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

// Statistics summarizes index state. Average document length is 0 for an
// empty index.
func (idx *Inverted) Statistics() domain.Stats {
	stats := domain.Stats{
		TotalDocuments: len(idx.docs),
		VocabularySize: len(idx.postings),
	}
	totalLen := 0
	for _, meta := range idx.docs {
		totalLen += meta.WordCount
	}
	for _, docPositions := range idx.postings {
		stats.TotalPostings += len(docPositions)
	}
	if stats.TotalDocuments > 0 {
		stats.AvgDocLength = float64(totalLen) / float64(stats.TotalDocuments)
	}
	return stats
}

// Snapshot captures the four persistent sections of the index. The returned
// maps are fresh copies and safe to hold across later mutations.
func (idx *Inverted) Snapshot() domain.IndexSnapshot {
	snap := domain.IndexSnapshot{
		Postings:       make(map[string]map[string][]int, len(idx.postings)),
		Documents:      make(map[string]domain.DocumentMeta, len(idx.docs)),
		Vocabulary:     idx.Vocabulary(),
		TotalDocuments: len(idx.docs),
	}
	for term, docPositions := range idx.postings {
		cp := make(map[string][]int, len(docPositions))
		for docID, positions := range docPositions {
			cp[docID] = append([]int(nil), positions...)
		}
		snap.Postings[term] = cp
	}
	for id, meta := range idx.docs {
		snap.Documents[id] = meta
	}
	return snap
}

// Restore replaces all index state with the snapshot. Snapshots missing a
// section, or whose sections disagree with each other, are rejected and the
// index is left unchanged.
func (idx *Inverted) Restore(snap domain.IndexSnapshot) error {
	if snap.Postings == nil {
		return fmt.Errorf("%w: missing postings section", ErrCorruptSnapshot)
	}
	if snap.Documents == nil {
		return fmt.Errorf("%w: missing documents section", ErrCorruptSnapshot)
	}
	if snap.Vocabulary == nil {
		return fmt.Errorf("%w: missing vocabulary section", ErrCorruptSnapshot)
	}
	if snap.TotalDocuments != len(snap.Documents) {
		return fmt.Errorf("%w: document count %d does not match metadata table size %d",
			ErrCorruptSnapshot, snap.TotalDocuments, len(snap.Documents))
	}
	if len(snap.Vocabulary) != len(snap.Postings) {
		return fmt.Errorf("%w: vocabulary size %d does not match postings size %d",
			ErrCorruptSnapshot, len(snap.Vocabulary), len(snap.Postings))
	}
	for term, docPositions := range snap.Postings {
		if len(docPositions) == 0 {
			return fmt.Errorf("%w: term %q has an empty posting list", ErrCorruptSnapshot, term)
		}
		for docID := range docPositions {
			if _, ok := snap.Documents[docID]; !ok {
				return fmt.Errorf("%w: posting for unknown document %q", ErrCorruptSnapshot, docID)
			}
		}
	}

	idx.postings = snap.Postings
	idx.docs = snap.Documents
	idx.docTerms = make(map[string][]string, len(snap.Documents))
	for term, docPositions := range snap.Postings {
		for docID := range docPositions {
			idx.docTerms[docID] = append(idx.docTerms[docID], term)
		}
	}
	return nil
}
