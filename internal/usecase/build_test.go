package usecase

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scour/internal/adapter/analyzer"
	"scour/internal/adapter/fs"
	"scour/internal/adapter/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeCorpusFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestStore(t *testing.T) *store.BoltStore {
	t.Helper()
	st, err := store.NewBoltStore(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func newBuilder(st *store.BoltStore) *BuildUseCase {
	norm := analyzer.NewNormalizer(2, 25, true)
	return NewBuildUseCase(st, fs.NewWalker(nil, nil), fs.NewLoader(), norm, discardLogger())
}

func TestBuild_IndexesCorpus(t *testing.T) {
	corpus := t.TempDir()
	writeCorpusFile(t, filepath.Join(corpus, "concurrency.html"),
		`<html><head><title>Goroutines and Channels</title></head>
<body><p>Goroutines run concurrently. Channels synchronize goroutines and carry values.</p></body></html>`)
	writeCorpusFile(t, filepath.Join(corpus, "python.txt"),
		"Python Basics\nPython variables and functions for beginners.")
	writeCorpusFile(t, filepath.Join(corpus, "ml.md"),
		"# Machine Learning\nModels learn patterns from training data.")
	writeCorpusFile(t, filepath.Join(corpus, "empty.txt"), "")

	st := newTestStore(t)
	result, err := newBuilder(st).Build(corpus, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if result.FilesFound != 4 {
		t.Errorf("FilesFound = %d, want 4", result.FilesFound)
	}
	if result.FilesIndexed != 3 {
		t.Errorf("FilesIndexed = %d, want 3", result.FilesIndexed)
	}
	if result.FilesSkipped != 1 {
		t.Errorf("FilesSkipped = %d, want 1", result.FilesSkipped)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "no indexable terms") {
		t.Errorf("Errors = %v", result.Errors)
	}
	if result.VocabularySize == 0 || result.Dimensions != result.VocabularySize {
		t.Errorf("vocabulary=%d dimensions=%d", result.VocabularySize, result.Dimensions)
	}

	snap, err := st.LoadIndex()
	if err != nil {
		t.Fatalf("LoadIndex after build: %v", err)
	}
	if snap.TotalDocuments != 3 {
		t.Errorf("persisted TotalDocuments = %d, want 3", snap.TotalDocuments)
	}
	if _, ok := snap.Documents["concurrency"]; !ok {
		t.Errorf("documents = %v, want concurrency present", snap.Documents)
	}
	if snap.Documents["concurrency"].Title != "Goroutines and Channels" {
		t.Errorf("html title = %q", snap.Documents["concurrency"].Title)
	}

	if _, err := st.LoadVectors(); err != nil {
		t.Errorf("LoadVectors after build: %v", err)
	}
}

func TestBuild_EmptyCorpus(t *testing.T) {
	st := newTestStore(t)
	if _, err := newBuilder(st).Build(t.TempDir(), nil); err == nil {
		t.Fatal("expected error for corpus without documents")
	}
}

func TestBuild_Progress(t *testing.T) {
	corpus := t.TempDir()
	writeCorpusFile(t, filepath.Join(corpus, "a.txt"), "alpha document text")
	writeCorpusFile(t, filepath.Join(corpus, "b.txt"), "beta document text")
	writeCorpusFile(t, filepath.Join(corpus, "c.txt"), "gamma document text")

	var calls int
	var lastDone, lastTotal int
	progress := func(done, total int, path string) {
		calls++
		lastDone, lastTotal = done, total
	}

	st := newTestStore(t)
	result, err := newBuilder(st).Build(corpus, progress)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if calls != result.FilesFound {
		t.Errorf("progress calls = %d, want %d", calls, result.FilesFound)
	}
	if lastDone != 3 || lastTotal != 3 {
		t.Errorf("final progress = %d/%d, want 3/3", lastDone, lastTotal)
	}
}

func TestBuild_DuplicateDocumentIDs(t *testing.T) {
	corpus := t.TempDir()
	writeCorpusFile(t, filepath.Join(corpus, "a", "intro.txt"), "first intro document body")
	writeCorpusFile(t, filepath.Join(corpus, "b", "intro.txt"), "second intro document body")

	st := newTestStore(t)
	result, err := newBuilder(st).Build(corpus, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	found := false
	for _, e := range result.Errors {
		if strings.Contains(e, "duplicate document id") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected duplicate id warning, got %v", result.Errors)
	}

	snap, err := st.LoadIndex()
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if snap.TotalDocuments != 1 {
		t.Errorf("TotalDocuments = %d, want 1 after overwrite", snap.TotalDocuments)
	}
}
