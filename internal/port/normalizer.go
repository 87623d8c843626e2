package port

// Normalizer turns raw text into the canonical term stream the index and
// the vector model share. The same pipeline must be used at build time and
// at query time or scores drift.
type Normalizer interface {
	Normalize(text string) []string
}
