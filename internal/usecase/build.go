package usecase

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"scour/internal/adapter/index"
	"scour/internal/adapter/vector"
	"scour/internal/domain"
	"scour/internal/port"
)

// ProgressFunc reports corpus loading progress. It is called under a lock,
// in completion order.
type ProgressFunc func(done, total int, path string)

// BuildUseCase walks a corpus, builds the inverted index and the vector
// model from it, and persists both snapshots.
type BuildUseCase struct {
	store      port.SnapshotStore
	walker     port.FileWalker
	loader     port.DocumentLoader
	normalizer port.Normalizer
	logger     *slog.Logger
}

// NewBuildUseCase creates a new build use case.
func NewBuildUseCase(
	store port.SnapshotStore,
	walker port.FileWalker,
	loader port.DocumentLoader,
	normalizer port.Normalizer,
	logger *slog.Logger,
) *BuildUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &BuildUseCase{
		store:      store,
		walker:     walker,
		loader:     loader,
		normalizer: normalizer,
		logger:     logger,
	}
}

// BuildResult contains the results of a build operation.
type BuildResult struct {
	FilesFound     int
	FilesIndexed   int
	FilesSkipped   int
	VocabularySize int
	Dimensions     int
	Errors         []string
}

// Build indexes every corpus file under root and saves the index and vector
// snapshots. The previous snapshots are replaced wholesale; vector
// dimensions are assigned from the new vocabulary. progress may be nil.
func (u *BuildUseCase) Build(root string, progress ProgressFunc) (*BuildResult, error) {
	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk corpus: %w", err)
	}

	result := &BuildResult{FilesFound: len(files)}

	// Reads are parallel; each slot belongs to one goroutine.
	docs := make([]domain.Document, len(files))
	loadErrs := make([]error, len(files))

	var mu sync.Mutex
	done := 0

	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			docs[i], loadErrs[i] = u.loader.Load(f.Path)
			if progress != nil {
				mu.Lock()
				done++
				progress(done, len(files), f.Path)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	// Adds happen in walk order so a duplicate id always resolves the same
	// way regardless of read completion order.
	idx := index.New(u.normalizer, u.logger)
	for i := range files {
		if loadErrs[i] != nil {
			result.FilesSkipped++
			result.Errors = append(result.Errors, fmt.Sprintf("failed to load %s: %v", files[i].Path, loadErrs[i]))
			continue
		}
		doc := docs[i]
		if _, exists := idx.DocumentMeta(doc.ID); exists {
			result.Errors = append(result.Errors, fmt.Sprintf("duplicate document id %q: %s replaces an earlier file", doc.ID, doc.Path))
		}
		meta := domain.DocumentMeta{Title: doc.Title, URL: doc.URL, Text: doc.Text}
		if !idx.AddDocument(doc.ID, doc.Text, meta) {
			result.FilesSkipped++
			result.Errors = append(result.Errors, fmt.Sprintf("no indexable terms in %s", doc.Path))
			continue
		}
		result.FilesIndexed++
	}

	if idx.TotalDocuments() == 0 {
		return nil, fmt.Errorf("no indexable documents under %s", root)
	}

	model := vector.Build(idx)

	if err := u.store.SaveIndex(idx.Snapshot()); err != nil {
		return nil, fmt.Errorf("failed to save index: %w", err)
	}
	if err := u.store.SaveVectors(model.Snapshot()); err != nil {
		return nil, fmt.Errorf("failed to save vectors: %w", err)
	}

	result.VocabularySize = len(idx.Vocabulary())
	result.Dimensions = model.Dimensions()

	u.logger.Info("corpus indexed",
		"root", root,
		"documents", result.FilesIndexed,
		"skipped", result.FilesSkipped,
		"vocabulary", result.VocabularySize)

	return result, nil
}
