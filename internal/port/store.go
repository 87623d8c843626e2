package port

import (
	"time"

	"scour/internal/domain"
)

// SnapshotStore persists index and vector snapshots. Vector snapshots are
// valid only against the index save they were built from; LoadVectors must
// fail when the index has been saved again since.
type SnapshotStore interface {
	SaveIndex(snap domain.IndexSnapshot) error

	LoadIndex() (domain.IndexSnapshot, error)

	// IndexSavedAt reports when the current index snapshot was written.
	IndexSavedAt() (time.Time, error)

	SaveVectors(snap domain.VectorSnapshot) error

	LoadVectors() (domain.VectorSnapshot, error)

	Close() error
}
