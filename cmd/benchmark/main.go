package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"scour/config"
	"scour/internal/adapter/lexicon"
	"scour/internal/adapter/store"
	"scour/internal/usecase"
)

func main() {
	indexPath := flag.String("index", ".", "Path to indexed directory")
	query := flag.String("q", "", "Query to benchmark")
	topK := flag.Int("k", 10, "Number of results")
	runs := flag.Int("runs", 50, "Timed repetitions")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -index ./corpus -q \"query\"")
		fmt.Println("\nReports:")
		fmt.Println("  1. Ranked results with similarity ratings")
		fmt.Println("  2. Query latency (cold and cached)")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	dbPath := config.IndexDBPath(*indexPath)
	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	engine := usecase.NewSearchUseCase(cfg, st, lexicon.New(nil), nil)
	if err := engine.LoadFromStore(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading index: %v\n", err)
		os.Exit(1)
	}

	stats, _ := engine.Stats()

	fmt.Println("SEARCH BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Documents indexed: %d\n", stats.TotalDocuments)
	fmt.Printf("Vocabulary: %d terms, %d dimensions\n", stats.VocabularySize, engine.Dimensions())
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	res, err := engine.Search(*query, usecase.SearchOptions{TopK: *topK, SpellCheck: true, Expand: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	if len(res.Query.Corrections) > 0 {
		var fixed []string
		for _, c := range res.Query.Corrections {
			fixed = append(fixed, fmt.Sprintf("%s->%s", c.Original, c.Corrected))
		}
		fmt.Printf("Corrected: %s\n", strings.Join(fixed, " "))
	}
	if res.Query.ExpansionFactor > 1 {
		fmt.Printf("Expansion factor: %.2f\n", res.Query.ExpansionFactor)
	}
	fmt.Printf("\nTop %d matches:\n\n", len(res.Results))

	totalScore := 0.0
	for _, r := range res.Results {
		similarity := r.Factors.Similarity
		totalScore += similarity

		rating := "LOW"
		if similarity > 0.7 {
			rating = "HIGH"
		} else if similarity > 0.5 {
			rating = "GOOD"
		} else if similarity > 0.3 {
			rating = "OK"
		}

		fmt.Printf("%d. [%s %.3f] %s\n", r.Rank, rating, similarity, r.Title)
		fmt.Printf("   %s\n\n", r.URL)
	}

	if len(res.Results) > 0 {
		avgScore := totalScore / float64(len(res.Results))
		fmt.Println(strings.Repeat("=", 70))
		fmt.Printf("QUALITY METRICS:\n")
		fmt.Printf("  Average similarity: %.3f\n", avgScore)
		fmt.Printf("  Top-1 similarity:   %.3f\n", res.Results[0].Factors.Similarity)
	}

	fmt.Printf("\nLATENCY (%d runs):\n", *runs)
	fmt.Printf("  Cold:   %s\n", formatLatency(timeQuery(engine, *query, *topK, *runs, false)))
	fmt.Printf("  Cached: %s\n", formatLatency(timeQuery(engine, *query, *topK, *runs, true)))
}

// timeQuery measures one search repeatedly. With useCache false each run
// gets a distinct query string so the result cache never answers.
func timeQuery(engine *usecase.SearchUseCase, query string, topK, runs int, useCache bool) []time.Duration {
	durations := make([]time.Duration, 0, runs)
	for i := 0; i < runs; i++ {
		q := query
		if !useCache {
			q = fmt.Sprintf("%s run%d", query, i)
		}
		start := time.Now()
		_, _ = engine.Search(q, usecase.SearchOptions{TopK: topK, SpellCheck: false, Expand: false})
		durations = append(durations, time.Since(start))
	}
	return durations
}

func formatLatency(durations []time.Duration) string {
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	avg := total / time.Duration(len(durations))
	p50 := durations[len(durations)/2]
	p95 := durations[len(durations)*95/100]
	return fmt.Sprintf("avg %v  p50 %v  p95 %v", avg, p50, p95)
}
