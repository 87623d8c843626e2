package index

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"scour/internal/adapter/analyzer"
	"scour/internal/domain"
)

func testIndex() *Inverted {
	normalizer := analyzer.NewNormalizer(0, 0, false)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(normalizer, logger)
}

func TestInverted_AddAndFrequencies(t *testing.T) {
	idx := testIndex()

	if !idx.AddDocument("doc1", "go concurrency patterns make go code simpler", domain.DocumentMeta{Title: "Go"}) {
		t.Fatal("expected doc1 to be indexed")
	}
	if !idx.AddDocument("doc2", "python concurrency primitives", domain.DocumentMeta{Title: "Python"}) {
		t.Fatal("expected doc2 to be indexed")
	}

	if tf := idx.TermFrequency("go", "doc1"); tf != 2 {
		t.Errorf("TermFrequency(go, doc1) = %d, want 2", tf)
	}
	if tf := idx.TermFrequency("go", "doc2"); tf != 0 {
		t.Errorf("TermFrequency(go, doc2) = %d, want 0", tf)
	}
	if tf := idx.TermFrequency("missing", "doc1"); tf != 0 {
		t.Errorf("TermFrequency(missing, doc1) = %d, want 0", tf)
	}

	if df := idx.DocumentFrequency("concurrency"); df != 2 {
		t.Errorf("DocumentFrequency(concurrency) = %d, want 2", df)
	}
	if df := idx.DocumentFrequency("missing"); df != 0 {
		t.Errorf("DocumentFrequency(missing) = %d, want 0", df)
	}

	positions := idx.Postings("go")["doc1"]
	if len(positions) != 2 || positions[0] != 0 || positions[1] != 4 {
		t.Errorf("positions for go in doc1 = %v, want [0 4]", positions)
	}

	meta, ok := idx.DocumentMeta("doc1")
	if !ok {
		t.Fatal("expected metadata for doc1")
	}
	if meta.WordCount != 7 {
		t.Errorf("doc1 word count = %d, want 7", meta.WordCount)
	}
}

func TestInverted_SkipEmptyDocument(t *testing.T) {
	idx := testIndex()

	if idx.AddDocument("empty", "the and of to", domain.DocumentMeta{Title: "Stopwords"}) {
		t.Error("expected stopword-only document to be skipped")
	}
	if idx.AddDocument("blank", "   ", domain.DocumentMeta{}) {
		t.Error("expected blank document to be skipped")
	}

	if n := idx.TotalDocuments(); n != 0 {
		t.Errorf("TotalDocuments = %d after skipped adds, want 0", n)
	}
	if _, ok := idx.DocumentMeta("empty"); ok {
		t.Error("skipped document must not leave metadata behind")
	}
	if len(idx.Vocabulary()) != 0 {
		t.Errorf("skipped adds must not grow vocabulary, got %v", idx.Vocabulary())
	}
}

func TestInverted_ReAddOverwrites(t *testing.T) {
	idx := testIndex()

	idx.AddDocument("doc1", "rust ownership borrowing", domain.DocumentMeta{Title: "v1"})
	idx.AddDocument("doc1", "zig comptime allocators", domain.DocumentMeta{Title: "v2"})

	if n := idx.TotalDocuments(); n != 1 {
		t.Errorf("TotalDocuments = %d after re-add, want 1", n)
	}
	if df := idx.DocumentFrequency("rust"); df != 0 {
		t.Errorf("old term 'rust' still has document frequency %d", df)
	}
	if df := idx.DocumentFrequency("zig"); df != 1 {
		t.Errorf("new term 'zig' has document frequency %d, want 1", df)
	}
	meta, _ := idx.DocumentMeta("doc1")
	if meta.Title != "v2" {
		t.Errorf("metadata title = %q, want v2", meta.Title)
	}
}

func TestInverted_BooleanSearch(t *testing.T) {
	idx := testIndex()

	idx.AddDocument("doc1", "kernel scheduling fairness kernel preemption", domain.DocumentMeta{})
	idx.AddDocument("doc2", "kernel memory allocation", domain.DocumentMeta{})
	idx.AddDocument("doc3", "userspace scheduling tricks", domain.DocumentMeta{})

	results := idx.BooleanSearch([]string{"kernel"}, 10)
	if len(results) != 2 {
		t.Fatalf("expected 2 matches for kernel, got %d", len(results))
	}
	if results[0].DocID != "doc1" {
		t.Errorf("expected doc1 first (tf 2), got %s", results[0].DocID)
	}

	results = idx.BooleanSearch([]string{"kernel", "scheduling"}, 10)
	if len(results) != 1 || results[0].DocID != "doc1" {
		t.Errorf("intersection of kernel+scheduling should be exactly doc1, got %v", results)
	}

	// Every term must match: one unseen term empties the result even though
	// the other matches documents.
	results = idx.BooleanSearch([]string{"kernel", "quantum"}, 10)
	if len(results) != 0 {
		t.Errorf("expected empty result when a term is unseen, got %v", results)
	}

	if results := idx.BooleanSearch(nil, 10); len(results) != 0 {
		t.Errorf("expected empty result for no terms, got %v", results)
	}
}

func TestInverted_BooleanSearchTieBreak(t *testing.T) {
	idx := testIndex()

	idx.AddDocument("beta", "compilers", domain.DocumentMeta{})
	idx.AddDocument("alpha", "compilers", domain.DocumentMeta{})

	results := idx.BooleanSearch([]string{"compilers"}, 10)
	if len(results) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(results))
	}
	if results[0].DocID != "alpha" || results[1].DocID != "beta" {
		t.Errorf("equal scores must order by doc id ascending, got %s then %s",
			results[0].DocID, results[1].DocID)
	}
}

func TestInverted_BooleanSearchTopK(t *testing.T) {
	idx := testIndex()

	idx.AddDocument("doc1", "graphs", domain.DocumentMeta{})
	idx.AddDocument("doc2", "graphs graphs", domain.DocumentMeta{})
	idx.AddDocument("doc3", "graphs graphs graphs", domain.DocumentMeta{})

	results := idx.BooleanSearch([]string{"graphs"}, 2)
	if len(results) != 2 {
		t.Fatalf("expected topK to truncate to 2, got %d", len(results))
	}
	if results[0].DocID != "doc3" || results[1].DocID != "doc2" {
		t.Errorf("expected doc3 then doc2, got %s then %s", results[0].DocID, results[1].DocID)
	}
}

func TestInverted_Statistics(t *testing.T) {
	idx := testIndex()

	empty := idx.Statistics()
	if empty.TotalDocuments != 0 || empty.VocabularySize != 0 || empty.AvgDocLength != 0 {
		t.Errorf("empty index statistics = %+v, want zeros", empty)
	}

	idx.AddDocument("doc1", "storage engines", domain.DocumentMeta{})
	idx.AddDocument("doc2", "storage compaction tiers queues", domain.DocumentMeta{})

	stats := idx.Statistics()
	if stats.TotalDocuments != 2 {
		t.Errorf("TotalDocuments = %d, want 2", stats.TotalDocuments)
	}
	if stats.VocabularySize != 5 {
		t.Errorf("VocabularySize = %d, want 5", stats.VocabularySize)
	}
	if stats.TotalPostings != 6 {
		t.Errorf("TotalPostings = %d, want 6", stats.TotalPostings)
	}
	if stats.AvgDocLength != 3 {
		t.Errorf("AvgDocLength = %v, want 3", stats.AvgDocLength)
	}
}

func TestInverted_SnapshotRestore(t *testing.T) {
	idx := testIndex()
	idx.AddDocument("doc1", "raft consensus logs", domain.DocumentMeta{Title: "Raft", URL: "https://example.com/raft"})
	idx.AddDocument("doc2", "paxos consensus", domain.DocumentMeta{Title: "Paxos"})

	snap := idx.Snapshot()
	if snap.TotalDocuments != 2 || len(snap.Vocabulary) != 4 {
		t.Fatalf("snapshot = %d docs / %d terms, want 2 / 4", snap.TotalDocuments, len(snap.Vocabulary))
	}

	restored := testIndex()
	if err := restored.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if df := restored.DocumentFrequency("consensus"); df != 2 {
		t.Errorf("restored DocumentFrequency(consensus) = %d, want 2", df)
	}
	results := restored.BooleanSearch([]string{"raft", "consensus"}, 10)
	if len(results) != 1 || results[0].DocID != "doc1" {
		t.Errorf("restored index search = %v, want doc1 only", results)
	}
	meta, ok := restored.DocumentMeta("doc1")
	if !ok || meta.Title != "Raft" {
		t.Errorf("restored metadata = %+v, want title Raft", meta)
	}

	// Re-add after restore must still overwrite cleanly.
	restored.AddDocument("doc1", "viewstamped replication", domain.DocumentMeta{Title: "VR"})
	if df := restored.DocumentFrequency("raft"); df != 0 {
		t.Errorf("overwrite after restore left stale posting, df(raft) = %d", df)
	}
}

func TestInverted_RestoreRejectsCorrupt(t *testing.T) {
	base := testIndex()
	base.AddDocument("doc1", "valid document text", domain.DocumentMeta{})
	good := base.Snapshot()

	cases := []struct {
		name   string
		mutate func(s domain.IndexSnapshot) domain.IndexSnapshot
	}{
		{"missing postings", func(s domain.IndexSnapshot) domain.IndexSnapshot {
			s.Postings = nil
			return s
		}},
		{"missing documents", func(s domain.IndexSnapshot) domain.IndexSnapshot {
			s.Documents = nil
			return s
		}},
		{"missing vocabulary", func(s domain.IndexSnapshot) domain.IndexSnapshot {
			s.Vocabulary = nil
			return s
		}},
		{"count mismatch", func(s domain.IndexSnapshot) domain.IndexSnapshot {
			s.TotalDocuments = 7
			return s
		}},
		{"posting for unknown doc", func(s domain.IndexSnapshot) domain.IndexSnapshot {
			s.Postings["valid"] = map[string][]int{"ghost": {0}}
			return s
		}},
	}

	for _, tc := range cases {
		idx := testIndex()
		snap := tc.mutate(base.Snapshot())
		err := idx.Restore(snap)
		if err == nil {
			t.Errorf("%s: expected Restore to fail", tc.name)
			continue
		}
		if !errors.Is(err, ErrCorruptSnapshot) {
			t.Errorf("%s: error %v does not wrap ErrCorruptSnapshot", tc.name, err)
		}
		if idx.TotalDocuments() != 0 {
			t.Errorf("%s: failed restore must leave index unchanged", tc.name)
		}
	}

	idx := testIndex()
	if err := idx.Restore(good); err != nil {
		t.Errorf("valid snapshot rejected: %v", err)
	}
}

func TestInverted_VocabularySorted(t *testing.T) {
	idx := testIndex()
	idx.AddDocument("doc1", "zebra apple mango", domain.DocumentMeta{})

	vocab := idx.Vocabulary()
	for i := 1; i < len(vocab); i++ {
		if vocab[i-1] >= vocab[i] {
			t.Fatalf("vocabulary not sorted: %v", vocab)
		}
	}
}
