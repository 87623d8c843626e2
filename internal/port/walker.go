package port

import "scour/internal/domain"

type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}

// DocumentLoader reads one corpus file and extracts its text, title and
// metadata. Format handling (HTML vs plain text) lives behind this boundary.
type DocumentLoader interface {
	Load(path string) (domain.Document, error)
}
