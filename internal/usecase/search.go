package usecase

import (
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"scour/config"
	"scour/internal/adapter/analyzer"
	"scour/internal/adapter/cache"
	"scour/internal/adapter/index"
	"scour/internal/adapter/query"
	"scour/internal/adapter/ranker"
	"scour/internal/adapter/snippet"
	"scour/internal/adapter/vector"
	"scour/internal/domain"
	"scour/internal/port"
)

// ErrNotReady is returned when no index has been installed or loaded yet.
var ErrNotReady = errors.New("no index loaded")

// SearchOptions shape a single search call. A zero TopK falls back to the
// configured default.
type SearchOptions struct {
	TopK       int
	SpellCheck bool
	Expand     bool
}

// DefaultSearchOptions enables the full pipeline.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{SpellCheck: true, Expand: true}
}

// SearchResponse is the composed answer to one query: how the query was
// processed, the ranked results, and the match count before truncation.
type SearchResponse struct {
	Query   domain.ProcessedQuery `json:"query"`
	Results []domain.SearchResult `json:"results"`
	Total   int                   `json:"total"`
	Cached  bool                  `json:"cached"`
	TookMS  float64               `json:"took_ms"`
}

// searchState binds one index generation to the query components derived
// from its vocabulary. It is immutable once installed.
type searchState struct {
	index     *index.Inverted
	model     *vector.Model
	speller   *query.SpellChecker
	processor *query.Processor
	suggester *query.Suggester
}

// SearchUseCase runs the search pipeline against an atomically swappable
// index state. All methods are safe for concurrent use.
type SearchUseCase struct {
	store      port.SnapshotStore
	logger     *slog.Logger
	normalizer *analyzer.Normalizer
	validator  *query.Validator
	expander   *query.Expander
	history    *query.History
	cache      *cache.ResultCache
	ranker     *ranker.Composite
	snippets   *snippet.Extractor

	spellThreshold  float64
	expansionWeight float64
	defaultTopK     int
	commonQueries   []string
	commonWords     []string

	state atomic.Pointer[searchState]
}

// NewSearchUseCase wires the pipeline from configuration. The engine cannot
// search until Install or LoadFromStore succeeds. store may be nil when the
// caller installs states directly.
func NewSearchUseCase(cfg *config.Config, store port.SnapshotStore, lexicon port.Lexicon, logger *slog.Logger) *SearchUseCase {
	if logger == nil {
		logger = slog.Default()
	}

	normalizer := analyzer.NewNormalizer(cfg.Index.MinTermLength, cfg.Index.MaxTermLength, cfg.Index.Stemming)

	var rc *cache.ResultCache
	if cfg.Search.CacheSize > 0 {
		rc = cache.NewResultCache(cfg.Search.CacheSize, time.Duration(cfg.Search.CacheTTLSeconds)*time.Second)
	}

	var commonWords []string
	for _, q := range cfg.Query.CommonQueries {
		commonWords = append(commonWords, strings.Fields(strings.ToLower(q))...)
	}

	return &SearchUseCase{
		store:           store,
		logger:          logger,
		normalizer:      normalizer,
		validator:       query.NewValidator(cfg.Query.MaxLength),
		expander:        query.NewExpander(lexicon, normalizer, cfg.Query.MaxSynonyms, cfg.Query.MaxRelated),
		history:         query.NewHistory(cfg.Query.HistorySize),
		cache:           rc,
		ranker:          ranker.New(cfg.Search.Weights, cfg.Search.Authority),
		snippets:        snippet.New(cfg.Search.SnippetLength, cfg.Search.Highlight),
		spellThreshold:  cfg.Query.SpellThreshold,
		expansionWeight: cfg.Search.ExpansionWeight,
		defaultTopK:     cfg.Search.TopK,
		commonQueries:   cfg.Query.CommonQueries,
		commonWords:     commonWords,
	}
}

// Install swaps in a freshly built index and model. The spell checker and
// suggester are rebuilt from the new vocabulary; cached results from the
// previous generation are invalidated.
func (e *SearchUseCase) Install(idx *index.Inverted, model *vector.Model) {
	vocab := idx.Vocabulary()
	speller := query.NewSpellChecker(vocab, e.commonWords, e.normalizer, e.spellThreshold)
	processor := query.NewProcessor(e.validator, speller, e.expander, e.normalizer, e.logger)
	suggester := query.NewSuggester(vocab, e.commonQueries, e.history, speller)

	e.state.Store(&searchState{
		index:     idx,
		model:     model,
		speller:   speller,
		processor: processor,
		suggester: suggester,
	})
	if e.cache != nil {
		e.cache.Invalidate()
	}

	e.logger.Info("index installed",
		"documents", idx.TotalDocuments(),
		"vocabulary", len(vocab),
		"dimensions", model.Dimensions())
}

// LoadFromStore restores the persisted index and installs it. Vectors that
// are missing, stale, or unreadable are rebuilt from the restored index and
// written back.
func (e *SearchUseCase) LoadFromStore() error {
	if e.store == nil {
		return errors.New("no snapshot store configured")
	}

	snap, err := e.store.LoadIndex()
	if err != nil {
		return err
	}

	idx := index.New(e.normalizer, e.logger)
	if err := idx.Restore(snap); err != nil {
		return err
	}

	var model *vector.Model
	vsnap, verr := e.store.LoadVectors()
	if verr == nil {
		model, verr = vector.FromSnapshot(vsnap)
	}
	if verr != nil {
		e.logger.Warn("rebuilding vector model", "reason", verr)
		model = vector.Build(idx)
		if saveErr := e.store.SaveVectors(model.Snapshot()); saveErr != nil {
			e.logger.Warn("could not persist rebuilt vectors", "error", saveErr)
		}
	}

	e.Install(idx, model)
	return nil
}

// Ready reports whether an index is installed.
func (e *SearchUseCase) Ready() bool {
	return e.state.Load() != nil
}

// Search runs the full pipeline for one query. Validation failures come
// back as a *query.ValidationError; an index with no matching documents
// yields an empty result list, not an error.
func (e *SearchUseCase) Search(raw string, opts SearchOptions) (*SearchResponse, error) {
	st := e.state.Load()
	if st == nil {
		return nil, ErrNotReady
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = e.defaultTopK
	}

	start := time.Now()

	if e.cache != nil {
		if hit, ok := e.cache.Get(raw, topK, opts.SpellCheck, opts.Expand); ok {
			e.history.Record(query.Clean(raw))
			return &SearchResponse{
				Query:   hit.Query,
				Results: hit.Results,
				Total:   hit.Total,
				Cached:  true,
				TookMS:  msSince(start),
			}, nil
		}
	}

	processed, err := st.processor.Process(raw, query.Options{SpellCheck: opts.SpellCheck, Expand: opts.Expand})
	if err != nil {
		return nil, err
	}

	e.history.Record(processed.Cleaned)

	results, total := e.rank(st, processed, topK)

	if e.cache != nil {
		e.cache.Put(raw, topK, opts.SpellCheck, opts.Expand, cache.CachedSearch{
			Query:   processed.ProcessedQuery,
			Results: results,
			Total:   total,
		})
	}

	e.logger.Debug("search complete",
		"query", raw,
		"terms", len(processed.Terms),
		"matches", total,
		"took", time.Since(start))

	return &SearchResponse{
		Query:   processed.ProcessedQuery,
		Results: results,
		Total:   total,
		TookMS:  msSince(start),
	}, nil
}

// rank scores the processed query against every document and composes the
// final results. Base terms carry full weight, expansion terms the
// configured fraction. Only documents with positive similarity participate.
func (e *SearchUseCase) rank(st *searchState, processed query.Processed, topK int) ([]domain.SearchResult, int) {
	weighted := make([]vector.WeightedTerm, 0, len(processed.BaseTerms)+len(processed.AddedTerms))
	for _, t := range processed.BaseTerms {
		weighted = append(weighted, vector.WeightedTerm{Term: t, Weight: 1})
	}
	for _, t := range processed.AddedTerms {
		weighted = append(weighted, vector.WeightedTerm{Term: t, Weight: e.expansionWeight})
	}
	if len(weighted) == 0 {
		return []domain.SearchResult{}, 0
	}

	queryVec := st.model.WeightedQueryVector(weighted)
	sims := vector.Rank(queryVec, st.model.DocVectors(), 0)

	var matched []vector.Scored
	for _, s := range sims {
		if s.Similarity > 0 {
			matched = append(matched, s)
		}
	}
	if len(matched) == 0 {
		return []domain.SearchResult{}, 0
	}

	titleWords := strings.Fields(processed.Corrected)
	ranked := e.ranker.Rank(matched, st.index.DocumentMeta, titleWords, topK)

	snippetWords := strings.Fields(processed.Final)
	results := make([]domain.SearchResult, 0, len(ranked))
	for i, r := range ranked {
		meta, _ := st.index.DocumentMeta(r.DocID)
		results = append(results, domain.SearchResult{
			DocID:     r.DocID,
			Rank:      i + 1,
			Score:     r.Score,
			Title:     meta.Title,
			URL:       meta.URL,
			Snippet:   e.snippets.Extract(meta.Text, meta.Title, snippetWords),
			WordCount: meta.WordCount,
			Factors:   r.Factors,
		})
	}
	return results, len(matched)
}

// Suggest completes a partial query from vocabulary, common queries,
// history, and spelling.
func (e *SearchUseCase) Suggest(input string, limit int) ([]domain.Suggestion, error) {
	st := e.state.Load()
	if st == nil {
		return nil, ErrNotReady
	}
	return st.suggester.Suggest(input, limit), nil
}

// Validate checks a raw query without running it.
func (e *SearchUseCase) Validate(raw string) domain.ValidationResult {
	if verr := e.validator.Validate(raw); verr != nil {
		return verr.Result()
	}
	return domain.ValidationResult{Valid: true}
}

// SpellCheck validates and cleans the query, then corrects unknown tokens
// against the installed vocabulary.
func (e *SearchUseCase) SpellCheck(raw string) (string, []domain.Correction, error) {
	st := e.state.Load()
	if st == nil {
		return "", nil, ErrNotReady
	}
	if verr := e.validator.Validate(raw); verr != nil {
		return "", nil, verr
	}
	corrected, corrections := st.speller.CorrectQuery(query.Clean(raw))
	return corrected, corrections, nil
}

// Expand validates and cleans the query, then appends lexicon synonyms and
// related terms. Expansion needs no index state.
func (e *SearchUseCase) Expand(raw string) (string, []domain.Expansion, float64, error) {
	if verr := e.validator.Validate(raw); verr != nil {
		return "", nil, 0, verr
	}
	expanded, expansions, factor := e.expander.Expand(query.Clean(raw))
	return expanded, expansions, factor, nil
}

// Stats returns counts for the installed index.
func (e *SearchUseCase) Stats() (domain.Stats, error) {
	st := e.state.Load()
	if st == nil {
		return domain.Stats{}, ErrNotReady
	}
	return st.index.Statistics(), nil
}

// Dimensions returns the vector model's dimensionality, 0 when not ready.
func (e *SearchUseCase) Dimensions() int {
	if st := e.state.Load(); st != nil {
		return st.model.Dimensions()
	}
	return 0
}

// History returns recorded queries, newest first.
func (e *SearchUseCase) History() []string {
	return e.history.Recent()
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
