package server

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"scour/internal/adapter/query"
	"scour/internal/domain"
	"scour/internal/usecase"
)

// searchResponse is the wire shape of one answered query.
type searchResponse struct {
	Query          string                `json:"query"`
	ProcessedQuery string                `json:"processed_query"`
	CleanedQuery   string                `json:"cleaned_query"`
	Results        []domain.SearchResult `json:"results"`
	TotalResults   int                   `json:"total_results"`
	Cached         bool                  `json:"cached"`
	TookMS         float64               `json:"took_ms"`
	SmartFeatures  smartFeatures         `json:"smart_features"`
}

// smartFeatures reports which query rewrites actually fired.
type smartFeatures struct {
	SpellCheckUsed     bool                `json:"spell_check_used"`
	QueryExpansionUsed bool                `json:"query_expansion_used"`
	CorrectionsApplied []domain.Correction `json:"corrections_applied"`
	ExpansionsApplied  []domain.Expansion  `json:"expansions_applied"`
}

type suggestResponse struct {
	Query       string              `json:"query"`
	Suggestions []string            `json:"suggestions"`
	Detailed    []domain.Suggestion `json:"detailed_suggestions"`
	Total       int                 `json:"total_suggestions"`
}

type spellCheckResponse struct {
	OriginalQuery  string              `json:"original_query"`
	CorrectedQuery string              `json:"corrected_query"`
	HasCorrections bool                `json:"has_corrections"`
	Corrections    []domain.Correction `json:"corrections"`
	Confidence     float64             `json:"confidence"`
}

type expandResponse struct {
	OriginalQuery   string             `json:"original_query"`
	ExpandedQuery   string             `json:"expanded_query"`
	NewTerms        []string           `json:"new_terms"`
	Details         []domain.Expansion `json:"expansion_details"`
	HasExpansion    bool               `json:"has_expansion"`
	ExpansionFactor float64            `json:"expansion_factor"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Index     string `json:"index"`
	Documents int    `json:"documents"`
}

type errorBody struct {
	Error      string                   `json:"error"`
	ErrorCode  string                   `json:"error_code,omitempty"`
	Validation *domain.ValidationResult `json:"validation,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, errorBody{Error: message, ErrorCode: code})
}

// writeQueryError maps pipeline failures onto HTTP statuses. A rejected
// query is the caller's fault, a missing index is ours.
func (s *Server) writeQueryError(w http.ResponseWriter, err error) {
	var verr *query.ValidationError
	switch {
	case errors.As(err, &verr):
		result := verr.Result()
		s.writeJSON(w, http.StatusBadRequest, errorBody{
			Error:      verr.Message,
			ErrorCode:  verr.Code,
			Validation: &result,
		})
	case errors.Is(err, usecase.ErrNotReady):
		s.writeError(w, http.StatusServiceUnavailable, "NOT_READY", "no index loaded")
	default:
		s.logger.Error("query failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

func intParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func boolParam(r *http.Request, name string, def bool) bool {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("q")
	if raw == "" {
		s.metrics.SearchQueriesTotal.WithLabelValues("invalid").Inc()
		s.writeError(w, http.StatusBadRequest, "MISSING_QUERY", "query parameter q is required")
		return
	}

	opts := usecase.SearchOptions{
		TopK:       intParam(r, "top_k", 0),
		SpellCheck: boolParam(r, "spell_check", true),
		Expand:     boolParam(r, "expansion", true),
	}

	start := time.Now()
	res, err := s.engine.Search(raw, opts)
	if err != nil {
		s.metrics.SearchQueriesTotal.WithLabelValues(searchFailureType(err)).Inc()
		s.writeQueryError(w, err)
		return
	}

	cacheStatus := "miss"
	if res.Cached {
		cacheStatus = "hit"
		s.metrics.CacheHitsTotal.Inc()
	} else {
		s.metrics.CacheMissesTotal.Inc()
	}
	s.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	s.metrics.SearchResultsCount.Observe(float64(len(res.Results)))

	resultType := "ok"
	if res.Total == 0 {
		resultType = "zero_results"
	}
	s.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()

	s.writeJSON(w, http.StatusOK, newSearchResponse(res))
}

func searchFailureType(err error) string {
	var verr *query.ValidationError
	switch {
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, usecase.ErrNotReady):
		return "not_ready"
	default:
		return "error"
	}
}

func newSearchResponse(res *usecase.SearchResponse) searchResponse {
	results := res.Results
	if results == nil {
		results = []domain.SearchResult{}
	}
	return searchResponse{
		Query:          res.Query.Raw,
		ProcessedQuery: res.Query.Final,
		CleanedQuery:   res.Query.Cleaned,
		Results:        results,
		TotalResults:   res.Total,
		Cached:         res.Cached,
		TookMS:         res.TookMS,
		SmartFeatures: smartFeatures{
			SpellCheckUsed:     len(res.Query.Corrections) > 0,
			QueryExpansionUsed: len(res.Query.Expansions) > 0,
			CorrectionsApplied: emptyIfNilCorrections(res.Query.Corrections),
			ExpansionsApplied:  emptyIfNilExpansions(res.Query.Expansions),
		},
	}
}

func emptyIfNilCorrections(c []domain.Correction) []domain.Correction {
	if c == nil {
		return []domain.Correction{}
	}
	return c
}

func emptyIfNilExpansions(e []domain.Expansion) []domain.Expansion {
	if e == nil {
		return []domain.Expansion{}
	}
	return e
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("q")
	if raw == "" {
		s.writeJSON(w, http.StatusOK, suggestResponse{
			Suggestions: []string{},
			Detailed:    []domain.Suggestion{},
		})
		return
	}

	limit := intParam(r, "max", 5)
	suggestions, err := s.engine.Suggest(raw, limit)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}

	texts := make([]string, 0, len(suggestions))
	for _, sg := range suggestions {
		texts = append(texts, sg.Text)
	}
	if suggestions == nil {
		suggestions = []domain.Suggestion{}
	}
	s.writeJSON(w, http.StatusOK, suggestResponse{
		Query:       raw,
		Suggestions: texts,
		Detailed:    suggestions,
		Total:       len(suggestions),
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON with a query field")
		return
	}
	if body.Query == "" {
		s.writeError(w, http.StatusBadRequest, "MISSING_QUERY", "query field is required")
		return
	}

	s.writeJSON(w, http.StatusOK, s.engine.Validate(body.Query))
}

func (s *Server) handleSpellCheck(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("q")
	if raw == "" {
		s.writeJSON(w, http.StatusOK, spellCheckResponse{
			Corrections: []domain.Correction{},
			Confidence:  1,
		})
		return
	}

	corrected, corrections, err := s.engine.SpellCheck(raw)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}

	confidence := 1.0
	for _, c := range corrections {
		if c.Confidence < confidence {
			confidence = c.Confidence
		}
	}
	if corrections == nil {
		corrections = []domain.Correction{}
	}
	s.writeJSON(w, http.StatusOK, spellCheckResponse{
		OriginalQuery:  raw,
		CorrectedQuery: corrected,
		HasCorrections: len(corrections) > 0,
		Corrections:    corrections,
		Confidence:     confidence,
	})
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("q")
	if raw == "" {
		s.writeJSON(w, http.StatusOK, expandResponse{
			NewTerms: []string{},
			Details:  []domain.Expansion{},
		})
		return
	}

	expanded, expansions, factor, err := s.engine.Expand(raw)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}

	var newTerms []string
	for _, e := range expansions {
		newTerms = append(newTerms, e.Synonyms...)
		newTerms = append(newTerms, e.Related...)
	}
	if newTerms == nil {
		newTerms = []string{}
	}
	if expansions == nil {
		expansions = []domain.Expansion{}
	}
	s.writeJSON(w, http.StatusOK, expandResponse{
		OriginalQuery:   raw,
		ExpandedQuery:   expanded,
		NewTerms:        newTerms,
		Details:         expansions,
		HasExpansion:    len(newTerms) > 0,
		ExpansionFactor: factor,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats()
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Index: "empty"}
	if stats, err := s.engine.Stats(); err == nil {
		resp.Index = "loaded"
		resp.Documents = stats.TotalDocuments
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// batchEntry is the outcome of one query from an uploaded batch.
type batchEntry struct {
	Query             string                `json:"query"`
	Status            string                `json:"status"`
	ProcessedQuery    string                `json:"processed_query,omitempty"`
	TotalResults      int                   `json:"total_results"`
	Results           []domain.SearchResult `json:"results"`
	SmartFeaturesUsed *smartFeaturesUsed    `json:"smart_features_used,omitempty"`
	Error             string                `json:"error,omitempty"`
	ErrorCode         string                `json:"error_code,omitempty"`
}

type smartFeaturesUsed struct {
	SpellCheck     bool `json:"spell_check"`
	QueryExpansion bool `json:"query_expansion"`
}

type batchStats struct {
	TotalQueries           int `json:"total_queries"`
	SuccessfulQueries      int `json:"successful_queries"`
	FailedQueries          int `json:"failed_queries"`
	TotalResults           int `json:"total_results"`
	QueriesWithCorrections int `json:"queries_with_corrections"`
	QueriesWithExpansion   int `json:"queries_with_expansion"`
}

type batchResponse struct {
	BatchResults []batchEntry `json:"batch_results"`
	Statistics   batchStats   `json:"statistics"`
}

// handleBatch runs every query from an uploaded CSV. Individual query
// failures become failed entries, not request failures.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if !s.engine.Ready() {
		s.writeError(w, http.StatusServiceUnavailable, "NOT_READY", "no index loaded")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "MISSING_FILE", "multipart file field is required")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		s.writeError(w, http.StatusBadRequest, "INVALID_FILE", "file must be in CSV format")
		return
	}

	queries, err := readQueryColumn(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_CSV", err.Error())
		return
	}

	entries := make([]batchEntry, len(queries))
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, q := range queries {
		g.Go(func() error {
			entries[i] = s.runBatchQuery(q)
			return nil
		})
	}
	_ = g.Wait()

	stats := batchStats{TotalQueries: len(queries)}
	for _, e := range entries {
		if e.Status == "success" {
			stats.SuccessfulQueries++
			stats.TotalResults += e.TotalResults
			if e.SmartFeaturesUsed.SpellCheck {
				stats.QueriesWithCorrections++
			}
			if e.SmartFeaturesUsed.QueryExpansion {
				stats.QueriesWithExpansion++
			}
		} else {
			stats.FailedQueries++
		}
	}

	s.writeJSON(w, http.StatusOK, batchResponse{BatchResults: entries, Statistics: stats})
}

func (s *Server) runBatchQuery(raw string) batchEntry {
	res, err := s.engine.Search(raw, usecase.DefaultSearchOptions())
	if err != nil {
		entry := batchEntry{
			Query:   raw,
			Status:  "failed",
			Results: []domain.SearchResult{},
			Error:   err.Error(),
		}
		var verr *query.ValidationError
		if errors.As(err, &verr) {
			entry.Error = verr.Message
			entry.ErrorCode = verr.Code
		}
		s.metrics.SearchQueriesTotal.WithLabelValues(searchFailureType(err)).Inc()
		return entry
	}

	resultType := "ok"
	if res.Total == 0 {
		resultType = "zero_results"
	}
	s.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	s.metrics.SearchResultsCount.Observe(float64(len(res.Results)))

	results := res.Results
	if results == nil {
		results = []domain.SearchResult{}
	}
	return batchEntry{
		Query:          raw,
		Status:         "success",
		ProcessedQuery: res.Query.Final,
		TotalResults:   res.Total,
		Results:        results,
		SmartFeaturesUsed: &smartFeaturesUsed{
			SpellCheck:     len(res.Query.Corrections) > 0,
			QueryExpansion: len(res.Query.Expansions) > 0,
		},
	}
}

// readQueryColumn extracts the query column from a CSV upload. The header
// row names the columns; rows with an empty query cell are skipped.
func readQueryColumn(f io.Reader) ([]string, error) {
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.New("CSV is empty or unreadable")
	}
	col := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "query") {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, errors.New("CSV must contain a query column")
	}

	var queries []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.New("CSV is malformed")
		}
		if col >= len(record) {
			continue
		}
		if q := strings.TrimSpace(record[col]); q != "" {
			queries = append(queries, q)
		}
	}
	return queries, nil
}
