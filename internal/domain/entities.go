package domain

import "time"

type Document struct {
	ID      string
	Path    string
	Title   string
	URL     string
	Text    string
	ModTime time.Time
}

// DocumentMeta is the per-document record the index keeps. Text is the
// original content used for snippets; stores persist it separately from the
// JSON metadata.
type DocumentMeta struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	WordCount int    `json:"word_count"`
	Text      string `json:"-"`
}

type Query struct {
	Text string
}

type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Code     string   `json:"code,omitempty"`
	Message  string   `json:"message,omitempty"`
	BadChars []string `json:"invalid_characters,omitempty"`
}

type Correction struct {
	Original   string  `json:"original"`
	Corrected  string  `json:"corrected"`
	Confidence float64 `json:"confidence"`
}

type Expansion struct {
	Term     string   `json:"term"`
	Synonyms []string `json:"synonyms,omitempty"`
	Related  []string `json:"related,omitempty"`
}

// ProcessedQuery records every stage a raw query passed through so callers
// can report what was actually searched.
type ProcessedQuery struct {
	Raw             string       `json:"raw"`
	Cleaned         string       `json:"cleaned"`
	Final           string       `json:"final"`
	Terms           []string     `json:"terms"`
	Corrections     []Correction `json:"corrections,omitempty"`
	Expansions      []Expansion  `json:"expansions,omitempty"`
	ExpansionFactor float64      `json:"expansion_factor,omitempty"`
}

type Suggestion struct {
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

type RankFactors struct {
	Similarity    float64 `json:"similarity"`
	TitleMatch    float64 `json:"title_match"`
	LengthQuality float64 `json:"length_quality"`
	Authority     float64 `json:"source_authority"`
}

type SearchResult struct {
	DocID     string      `json:"doc_id"`
	Rank      int         `json:"rank"`
	Score     float64     `json:"score"`
	Title     string      `json:"title"`
	URL       string      `json:"url"`
	Snippet   string      `json:"snippet"`
	WordCount int         `json:"word_count"`
	Factors   RankFactors `json:"factors"`
}

type Stats struct {
	TotalDocuments int     `json:"total_documents"`
	VocabularySize int     `json:"vocabulary_size"`
	TotalPostings  int     `json:"total_postings"`
	AvgDocLength   float64 `json:"avg_doc_length"`
}
