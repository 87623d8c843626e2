package domain

// IndexSnapshot is the full serialized state of the inverted index. All four
// sections must be present for a snapshot to be restorable.
type IndexSnapshot struct {
	Postings       map[string]map[string][]int `json:"postings"`
	Documents      map[string]DocumentMeta     `json:"documents"`
	Vocabulary     []string                    `json:"vocabulary"`
	TotalDocuments int                         `json:"total_documents"`
}

// VectorSnapshot is the serialized vector space model: the term to dimension
// assignment, per-dimension IDF weights, and one vector per document.
type VectorSnapshot struct {
	Dimensions map[string]int       `json:"dimensions"`
	IDF        []float64            `json:"idf"`
	Documents  map[string][]float64 `json:"documents"`
}
