//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"scour/config"
	"scour/internal/adapter/analyzer"
	"scour/internal/adapter/index"
	"scour/internal/adapter/lexicon"
	"scour/internal/adapter/vector"
	"scour/internal/domain"
	"scour/internal/usecase"
)

var (
	cfg    *config.Config
	idx    *index.Inverted
	engine *usecase.SearchUseCase
)

func init() {
	cfg = config.DefaultConfig()
	engine = usecase.NewSearchUseCase(cfg, nil, lexicon.New(nil), nil)
	resetIndex()
}

func resetIndex() {
	normalizer := analyzer.NewNormalizer(cfg.Index.MinTermLength, cfg.Index.MaxTermLength, cfg.Index.Stemming)
	idx = index.New(normalizer, nil)
}

func main() {
	c := make(chan struct{})

	js.Global().Set("scourIndex", js.FuncOf(indexDocument))
	js.Global().Set("scourSearch", js.FuncOf(searchIndex))
	js.Global().Set("scourSuggest", js.FuncOf(suggest))
	js.Global().Set("scourClear", js.FuncOf(clearIndex))
	js.Global().Set("scourStats", js.FuncOf(getStats))

	<-c
}

func indexDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: scourIndex(id, text, [title], [url])")
	}

	id := args[0].String()
	text := args[1].String()
	meta := domain.DocumentMeta{Text: text}
	if len(args) > 2 {
		meta.Title = args[2].String()
	}
	if len(args) > 3 {
		meta.URL = args[3].String()
	}
	if meta.Title == "" {
		meta.Title = id
	}

	added := idx.AddDocument(id, text, meta)
	if !added {
		return makeError("no indexable terms in document: " + id)
	}

	engine.Install(idx, vector.Build(idx))

	stats := idx.Statistics()
	return makeResult(map[string]interface{}{
		"success":    true,
		"id":         id,
		"documents":  stats.TotalDocuments,
		"vocabulary": stats.VocabularySize,
	})
}

func searchIndex(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: scourSearch(query, [topK])")
	}

	query := args[0].String()
	opts := usecase.DefaultSearchOptions()
	if len(args) > 1 {
		opts.TopK = args[1].Int()
	}

	res, err := engine.Search(query, opts)
	if err != nil {
		return makeError("search failed: " + err.Error())
	}

	output := make([]map[string]interface{}, 0, len(res.Results))
	for _, r := range res.Results {
		output = append(output, map[string]interface{}{
			"id":      r.DocID,
			"rank":    r.Rank,
			"score":   r.Score,
			"title":   r.Title,
			"url":     r.URL,
			"snippet": r.Snippet,
		})
	}

	return makeResult(map[string]interface{}{
		"query":   res.Query.Final,
		"results": output,
		"total":   res.Total,
	})
}

func suggest(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: scourSuggest(prefix, [max])")
	}

	limit := 5
	if len(args) > 1 {
		limit = args[1].Int()
	}

	suggestions, err := engine.Suggest(args[0].String(), limit)
	if err != nil {
		return makeError("suggest failed: " + err.Error())
	}

	texts := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		texts = append(texts, s.Text)
	}
	return makeResult(map[string]interface{}{
		"suggestions": texts,
	})
}

func clearIndex(this js.Value, args []js.Value) interface{} {
	resetIndex()
	engine.Install(idx, vector.Build(idx))
	return makeResult(map[string]interface{}{
		"success": true,
	})
}

func getStats(this js.Value, args []js.Value) interface{} {
	stats, err := engine.Stats()
	if err != nil {
		return makeError("no index loaded")
	}

	return makeResult(map[string]interface{}{
		"documents":  stats.TotalDocuments,
		"vocabulary": stats.VocabularySize,
		"postings":   stats.TotalPostings,
		"avgLength":  stats.AvgDocLength,
	})
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
