package port

// Lexicon is the external lexical knowledge base used for query expansion.
// Implementations must be safe for concurrent readers.
type Lexicon interface {
	// Synonyms returns same-meaning alternatives for term, best first.
	Synonyms(term string) []string

	// Related returns broader or narrower terms for term, best first.
	Related(term string) []string
}
