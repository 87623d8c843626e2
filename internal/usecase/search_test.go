package usecase

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"scour/config"
	"scour/internal/adapter/analyzer"
	"scour/internal/adapter/index"
	"scour/internal/adapter/lexicon"
	"scour/internal/adapter/query"
	"scour/internal/adapter/vector"
	"scour/internal/domain"
)

func addDoc(t *testing.T, idx *index.Inverted, id, title, url, text string) {
	t.Helper()
	meta := domain.DocumentMeta{Title: title, URL: url, Text: text}
	if !idx.AddDocument(id, text, meta) {
		t.Fatalf("document %s not added", id)
	}
}

// newTestEngine installs a small four-document index covering distinct
// topics so queries have one obvious best answer.
func newTestEngine(t *testing.T) *SearchUseCase {
	t.Helper()
	cfg := config.DefaultConfig()
	e := NewSearchUseCase(cfg, nil, lexicon.New(nil), discardLogger())

	norm := analyzer.NewNormalizer(cfg.Index.MinTermLength, cfg.Index.MaxTermLength, cfg.Index.Stemming)
	idx := index.New(norm, discardLogger())
	addDoc(t, idx, "go-concurrency", "Goroutines and Channels", "https://github.com/golang/go/wiki",
		"Goroutines run concurrently. Channels carry values between goroutines and keep them synchronized.")
	addDoc(t, idx, "python-basics", "Python Basics", "https://docs.python.org/3/tutorial",
		"Python variables, functions and loops for beginners. Python handles data structures cleanly.")
	addDoc(t, idx, "ml-data", "Machine Learning", "https://en.wikipedia.org/wiki/Machine_learning",
		"Machine learning models learn patterns from training data. Data quality drives model accuracy.")
	addDoc(t, idx, "quick-sort", "Quicksort", "https://example.com/quicksort",
		"Quick sorting algorithms partition data around a pivot element.")

	e.Install(idx, vector.Build(idx))
	return e
}

func TestSearch_RanksRelevantDocFirst(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Search("goroutines channels", DefaultSearchOptions())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(res.Results) == 0 {
		t.Fatal("no results")
	}
	top := res.Results[0]
	if top.DocID != "go-concurrency" {
		t.Errorf("top result = %s, want go-concurrency", top.DocID)
	}
	if top.Rank != 1 {
		t.Errorf("top rank = %d, want 1", top.Rank)
	}
	if top.Score <= 0 || top.Score > 1 {
		t.Errorf("top score = %f", top.Score)
	}
	if top.Factors.Similarity <= 0 {
		t.Errorf("top similarity = %f", top.Factors.Similarity)
	}
	if !strings.Contains(top.Snippet, "**goroutines**") {
		t.Errorf("snippet not highlighted: %q", top.Snippet)
	}
	if res.Cached {
		t.Error("first search must not be cached")
	}
}

func TestSearch_NotReady(t *testing.T) {
	e := NewSearchUseCase(config.DefaultConfig(), nil, lexicon.New(nil), discardLogger())
	if _, err := e.Search("anything", DefaultSearchOptions()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}
}

func TestSearch_ValidationFailure(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Search("   ", DefaultSearchOptions())
	var verr *query.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.Code != query.CodeEmptyQuery {
		t.Errorf("code = %s, want %s", verr.Code, query.CodeEmptyQuery)
	}

	_, err = e.Search("price > $100", DefaultSearchOptions())
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.Code != query.CodeInvalidChars {
		t.Errorf("code = %s, want %s", verr.Code, query.CodeInvalidChars)
	}
}

func TestSearch_StopwordOnlyQueryMatchesNothing(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Search("the and or", DefaultSearchOptions())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Results) != 0 || res.Total != 0 {
		t.Errorf("results = %d total = %d, want none", len(res.Results), res.Total)
	}
}

func TestSearch_TopKTruncation(t *testing.T) {
	e := newTestEngine(t)

	// "data" appears in python-basics, ml-data and quick-sort.
	res, err := e.Search("data", SearchOptions{TopK: 2, SpellCheck: true, Expand: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Results) != 2 {
		t.Errorf("results = %d, want 2", len(res.Results))
	}
	if res.Total != 3 {
		t.Errorf("total = %d, want 3", res.Total)
	}
	if res.Results[0].Rank != 1 || res.Results[1].Rank != 2 {
		t.Errorf("ranks = %d,%d", res.Results[0].Rank, res.Results[1].Rank)
	}
}

func TestSearch_SpellCorrection(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Search("gorutines channels", DefaultSearchOptions())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Query.Corrections) != 1 {
		t.Fatalf("corrections = %+v, want one", res.Query.Corrections)
	}
	c := res.Query.Corrections[0]
	if c.Original != "gorutines" {
		t.Errorf("corrected original = %q", c.Original)
	}
	if c.Confidence <= 0 || c.Confidence > 1 {
		t.Errorf("confidence = %f", c.Confidence)
	}
	if len(res.Results) == 0 || res.Results[0].DocID != "go-concurrency" {
		t.Errorf("corrected query should still find go-concurrency, got %+v", res.Results)
	}
}

func TestSearch_SpellCheckDisabled(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Search("gorutines", SearchOptions{SpellCheck: false, Expand: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Query.Corrections) != 0 {
		t.Errorf("corrections with spell check off: %+v", res.Query.Corrections)
	}
	if len(res.Results) != 0 {
		t.Errorf("misspelled term should match nothing, got %+v", res.Results)
	}
}

func TestSearch_ExpansionFindsSynonymOnlyDoc(t *testing.T) {
	e := newTestEngine(t)

	// No document contains "fast"; quick-sort contains the synonym.
	res, err := e.Search("fast", DefaultSearchOptions())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Query.Expansions) == 0 {
		t.Fatal("expected expansions for fast")
	}
	if len(res.Results) == 0 || res.Results[0].DocID != "quick-sort" {
		t.Errorf("expansion should surface quick-sort, got %+v", res.Results)
	}

	// The same query without expansion finds nothing.
	res, err = e.Search("fast", SearchOptions{SpellCheck: true, Expand: false})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Results) != 0 {
		t.Errorf("without expansion, results = %+v", res.Results)
	}
}

func TestSearch_CacheHit(t *testing.T) {
	e := newTestEngine(t)

	first, err := e.Search("python", DefaultSearchOptions())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	second, err := e.Search("python", DefaultSearchOptions())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if first.Cached {
		t.Error("first response marked cached")
	}
	if !second.Cached {
		t.Error("second response not cached")
	}
	if len(first.Results) != len(second.Results) ||
		first.Results[0].DocID != second.Results[0].DocID {
		t.Errorf("cached results differ: %+v vs %+v", first.Results, second.Results)
	}
}

func TestSearch_InstallInvalidatesCache(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.Search("python", DefaultSearchOptions()); err != nil {
		t.Fatalf("Search: %v", err)
	}

	cfg := config.DefaultConfig()
	norm := analyzer.NewNormalizer(cfg.Index.MinTermLength, cfg.Index.MaxTermLength, cfg.Index.Stemming)
	idx := index.New(norm, discardLogger())
	addDoc(t, idx, "only-doc", "Python Revisited", "https://example.com/py",
		"Python changed between releases. Python stays popular.")
	e.Install(idx, vector.Build(idx))

	res, err := e.Search("python", DefaultSearchOptions())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Cached {
		t.Error("cache survived index swap")
	}
	if len(res.Results) != 1 || res.Results[0].DocID != "only-doc" {
		t.Errorf("results from old index: %+v", res.Results)
	}
}

func TestSuggest(t *testing.T) {
	e := newTestEngine(t)

	sugs, err := e.Suggest("goro", 5)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(sugs) == 0 {
		t.Fatal("no suggestions for goro")
	}
	if sugs[0].Source != "vocabulary" || !strings.HasPrefix(sugs[0].Text, "goro") {
		t.Errorf("top suggestion = %+v", sugs[0])
	}

	if _, err := NewSearchUseCase(config.DefaultConfig(), nil, lexicon.New(nil), discardLogger()).Suggest("goro", 5); !errors.Is(err, ErrNotReady) {
		t.Error("Suggest on empty engine must fail")
	}
}

func TestValidateSpellCheckExpand(t *testing.T) {
	e := newTestEngine(t)

	if v := e.Validate("good query"); !v.Valid {
		t.Errorf("Validate = %+v", v)
	}
	if v := e.Validate(strings.Repeat("x", 300)); v.Valid || v.Code != query.CodeTooLong {
		t.Errorf("Validate long = %+v", v)
	}

	corrected, corrections, err := e.SpellCheck("pythn")
	if err != nil {
		t.Fatalf("SpellCheck: %v", err)
	}
	if len(corrections) != 1 || corrected == "pythn" {
		t.Errorf("SpellCheck = %q %+v", corrected, corrections)
	}

	expanded, expansions, factor, err := e.Expand("fast search")
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(expansions) == 0 || factor <= 1 {
		t.Errorf("Expand = %q %+v factor=%f", expanded, expansions, factor)
	}
}

func TestStatsAndHistory(t *testing.T) {
	e := newTestEngine(t)

	stats, err := e.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalDocuments != 4 {
		t.Errorf("TotalDocuments = %d, want 4", stats.TotalDocuments)
	}
	if stats.VocabularySize == 0 || e.Dimensions() != stats.VocabularySize {
		t.Errorf("vocabulary=%d dimensions=%d", stats.VocabularySize, e.Dimensions())
	}

	if _, err := e.Search("python basics", DefaultSearchOptions()); err != nil {
		t.Fatal(err)
	}
	hist := e.History()
	if len(hist) != 1 || hist[0] != "python basics" {
		t.Errorf("history = %v", hist)
	}
}

func TestLoadFromStore(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "corpus")
	writeCorpusFile(t, filepath.Join(corpus, "concurrency.txt"),
		"Goroutines and Channels\nGoroutines run concurrently and channels carry values between them.")
	writeCorpusFile(t, filepath.Join(corpus, "testing.txt"),
		"Testing in Go\nTable driven tests keep assertions close to their inputs.")

	st := newTestStore(t)
	if _, err := newBuilder(st).Build(corpus, nil); err != nil {
		t.Fatalf("Build: %v", err)
	}

	e := NewSearchUseCase(config.DefaultConfig(), st, lexicon.New(nil), discardLogger())
	if err := e.LoadFromStore(); err != nil {
		t.Fatalf("LoadFromStore: %v", err)
	}
	if !e.Ready() {
		t.Fatal("engine not ready after load")
	}

	res, err := e.Search("goroutines", DefaultSearchOptions())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Results) == 0 || res.Results[0].DocID != "concurrency" {
		t.Errorf("results = %+v", res.Results)
	}
}

func TestLoadFromStore_RebuildsStaleVectors(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "corpus")
	writeCorpusFile(t, filepath.Join(corpus, "doc.txt"), "Caching\nCaches trade memory for latency.")

	st := newTestStore(t)
	if _, err := newBuilder(st).Build(corpus, nil); err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Re-saving the index advances its stamp, so the saved vectors no
	// longer belong to it.
	snap, err := st.LoadIndex()
	if err != nil {
		t.Fatal(err)
	}
	if err := st.SaveIndex(snap); err != nil {
		t.Fatal(err)
	}
	if _, err := st.LoadVectors(); err == nil {
		t.Fatal("expected stale vectors before reload")
	}

	e := NewSearchUseCase(config.DefaultConfig(), st, lexicon.New(nil), discardLogger())
	if err := e.LoadFromStore(); err != nil {
		t.Fatalf("LoadFromStore: %v", err)
	}

	// The rebuilt vectors were written back.
	if _, err := st.LoadVectors(); err != nil {
		t.Errorf("LoadVectors after rebuild: %v", err)
	}

	res, err := e.Search("caches", DefaultSearchOptions())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Results) != 1 {
		t.Errorf("results = %+v", res.Results)
	}
}
