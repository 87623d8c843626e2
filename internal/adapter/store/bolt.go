package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"scour/internal/adapter/index"
	"scour/internal/domain"
)

var (
	bucketPostings   = []byte("postings")
	bucketDocs       = []byte("documents")
	bucketBlobs      = []byte("blobs")
	bucketVocab      = []byte("vocabulary")
	bucketStats      = []byte("stats")
	bucketVectorDims = []byte("vector_dims")
	bucketVectorDocs = []byte("vector_docs")
	bucketVectorMeta = []byte("vector_meta")

	keyVocabTerms = []byte("terms")
	keyTotalDocs  = []byte("total_documents")
	keySavedAt    = []byte("saved_at")
	keyDims       = []byte("dims")
	keyIDF        = []byte("idf")
	keyBuiltFrom  = []byte("built_from")
)

var (
	// ErrNoSnapshot means nothing has been saved yet; callers index first.
	ErrNoSnapshot = errors.New("no snapshot in store")

	// ErrStaleVectors means the vector snapshot predates the current index
	// snapshot and must be rebuilt from it.
	ErrStaleVectors = errors.New("vector snapshot is stale")
)

// BoltStore persists index and vector snapshots in one bbolt file. Each
// save happens in a single transaction, so readers see either the old
// snapshot or the new one, never a mix.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{
			bucketPostings, bucketDocs, bucketBlobs, bucketVocab,
			bucketStats, bucketVectorDims, bucketVectorDocs, bucketVectorMeta,
			bucketSchema,
		}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) DB() *bbolt.DB {
	return s.db
}

// SaveIndex replaces the persisted index snapshot: postings, document
// metadata (text going to the blob bucket), vocabulary and document count,
// plus a fresh save stamp. Previous contents are dropped in the same
// transaction.
func (s *BoltStore) SaveIndex(snap domain.IndexSnapshot) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		// The stamp must differ from the previous one or vector staleness
		// checks cannot tell the saves apart.
		now := time.Now().UTC()
		if stats := tx.Bucket(bucketStats); stats != nil {
			if data := stats.Get(keySavedAt); data != nil {
				if prev, err := time.Parse(time.RFC3339Nano, string(data)); err == nil && !now.After(prev) {
					now = prev.Add(time.Nanosecond)
				}
			}
		}

		postings, err := recreate(tx, bucketPostings)
		if err != nil {
			return err
		}
		for term, docPositions := range snap.Postings {
			data, err := json.Marshal(docPositions)
			if err != nil {
				return fmt.Errorf("marshal postings for %q: %w", term, err)
			}
			if err := postings.Put([]byte(term), data); err != nil {
				return err
			}
		}

		docs, err := recreate(tx, bucketDocs)
		if err != nil {
			return err
		}
		blobs, err := recreate(tx, bucketBlobs)
		if err != nil {
			return err
		}
		for id, meta := range snap.Documents {
			data, err := json.Marshal(meta)
			if err != nil {
				return fmt.Errorf("marshal metadata for %q: %w", id, err)
			}
			if err := docs.Put([]byte(id), data); err != nil {
				return err
			}
			if meta.Text != "" {
				if err := blobs.Put([]byte(id), []byte(meta.Text)); err != nil {
					return err
				}
			}
		}

		vocab, err := recreate(tx, bucketVocab)
		if err != nil {
			return err
		}
		vocabData, err := json.Marshal(snap.Vocabulary)
		if err != nil {
			return err
		}
		if err := vocab.Put(keyVocabTerms, vocabData); err != nil {
			return err
		}

		stats, err := recreate(tx, bucketStats)
		if err != nil {
			return err
		}
		countData, err := json.Marshal(snap.TotalDocuments)
		if err != nil {
			return err
		}
		if err := stats.Put(keyTotalDocs, countData); err != nil {
			return err
		}
		return stats.Put(keySavedAt, []byte(now.Format(time.RFC3339Nano)))
	})
}

// LoadIndex reads the full index snapshot back. A store that was never
// saved to returns ErrNoSnapshot; a saved store missing one of its sections
// reports which one is gone.
func (s *BoltStore) LoadIndex() (domain.IndexSnapshot, error) {
	var snap domain.IndexSnapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		stats := tx.Bucket(bucketStats)
		if stats == nil || stats.Get(keySavedAt) == nil {
			return ErrNoSnapshot
		}

		countData := stats.Get(keyTotalDocs)
		if countData == nil {
			return fmt.Errorf("%w: missing total_documents section", index.ErrCorruptSnapshot)
		}
		if err := json.Unmarshal(countData, &snap.TotalDocuments); err != nil {
			return fmt.Errorf("%w: unreadable total_documents: %v", index.ErrCorruptSnapshot, err)
		}

		postings := tx.Bucket(bucketPostings)
		if postings == nil {
			return fmt.Errorf("%w: missing postings section", index.ErrCorruptSnapshot)
		}
		snap.Postings = make(map[string]map[string][]int)
		err := postings.ForEach(func(k, v []byte) error {
			var docPositions map[string][]int
			if err := json.Unmarshal(v, &docPositions); err != nil {
				return fmt.Errorf("%w: unreadable postings for %q: %v", index.ErrCorruptSnapshot, k, err)
			}
			snap.Postings[string(k)] = docPositions
			return nil
		})
		if err != nil {
			return err
		}

		docs := tx.Bucket(bucketDocs)
		if docs == nil {
			return fmt.Errorf("%w: missing documents section", index.ErrCorruptSnapshot)
		}
		blobs := tx.Bucket(bucketBlobs)
		snap.Documents = make(map[string]domain.DocumentMeta)
		err = docs.ForEach(func(k, v []byte) error {
			var meta domain.DocumentMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return fmt.Errorf("%w: unreadable metadata for %q: %v", index.ErrCorruptSnapshot, k, err)
			}
			if blobs != nil {
				if text := blobs.Get(k); text != nil {
					meta.Text = string(text)
				}
			}
			snap.Documents[string(k)] = meta
			return nil
		})
		if err != nil {
			return err
		}

		vocab := tx.Bucket(bucketVocab)
		if vocab == nil || vocab.Get(keyVocabTerms) == nil {
			return fmt.Errorf("%w: missing vocabulary section", index.ErrCorruptSnapshot)
		}
		if err := json.Unmarshal(vocab.Get(keyVocabTerms), &snap.Vocabulary); err != nil {
			return fmt.Errorf("%w: unreadable vocabulary: %v", index.ErrCorruptSnapshot, err)
		}
		return nil
	})
	if err != nil {
		return domain.IndexSnapshot{}, err
	}
	return snap, nil
}

// IndexSavedAt reports the stamp of the current index snapshot.
func (s *BoltStore) IndexSavedAt() (time.Time, error) {
	var saved time.Time
	err := s.db.View(func(tx *bbolt.Tx) error {
		stats := tx.Bucket(bucketStats)
		if stats == nil {
			return ErrNoSnapshot
		}
		data := stats.Get(keySavedAt)
		if data == nil {
			return ErrNoSnapshot
		}
		t, err := time.Parse(time.RFC3339Nano, string(data))
		if err != nil {
			return fmt.Errorf("%w: unreadable save stamp: %v", index.ErrCorruptSnapshot, err)
		}
		saved = t
		return nil
	})
	return saved, err
}

// SaveVectors persists the vector snapshot bound to the current index save
// stamp. Saving vectors before any index save is an error.
func (s *BoltStore) SaveVectors(snap domain.VectorSnapshot) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		stats := tx.Bucket(bucketStats)
		if stats == nil || stats.Get(keySavedAt) == nil {
			return ErrNoSnapshot
		}
		stamp := append([]byte(nil), stats.Get(keySavedAt)...)

		dims, err := recreate(tx, bucketVectorDims)
		if err != nil {
			return err
		}
		dimsData, err := json.Marshal(snap.Dimensions)
		if err != nil {
			return err
		}
		if err := dims.Put(keyDims, dimsData); err != nil {
			return err
		}
		idfData, err := json.Marshal(snap.IDF)
		if err != nil {
			return err
		}
		if err := dims.Put(keyIDF, idfData); err != nil {
			return err
		}

		docs, err := recreate(tx, bucketVectorDocs)
		if err != nil {
			return err
		}
		for id, vec := range snap.Documents {
			data, err := json.Marshal(vec)
			if err != nil {
				return fmt.Errorf("marshal vector for %q: %w", id, err)
			}
			if err := docs.Put([]byte(id), data); err != nil {
				return err
			}
		}

		meta, err := recreate(tx, bucketVectorMeta)
		if err != nil {
			return err
		}
		return meta.Put(keyBuiltFrom, stamp)
	})
}

// LoadVectors reads the vector snapshot back, refusing one built from an
// older index save.
func (s *BoltStore) LoadVectors() (domain.VectorSnapshot, error) {
	var snap domain.VectorSnapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketVectorMeta)
		if meta == nil || meta.Get(keyBuiltFrom) == nil {
			return ErrNoSnapshot
		}
		stats := tx.Bucket(bucketStats)
		if stats == nil || stats.Get(keySavedAt) == nil {
			return ErrNoSnapshot
		}
		if string(meta.Get(keyBuiltFrom)) != string(stats.Get(keySavedAt)) {
			return ErrStaleVectors
		}

		dims := tx.Bucket(bucketVectorDims)
		if dims == nil || dims.Get(keyDims) == nil || dims.Get(keyIDF) == nil {
			return fmt.Errorf("%w: missing vector dimensions", index.ErrCorruptSnapshot)
		}
		if err := json.Unmarshal(dims.Get(keyDims), &snap.Dimensions); err != nil {
			return fmt.Errorf("%w: unreadable dimensions: %v", index.ErrCorruptSnapshot, err)
		}
		if err := json.Unmarshal(dims.Get(keyIDF), &snap.IDF); err != nil {
			return fmt.Errorf("%w: unreadable idf weights: %v", index.ErrCorruptSnapshot, err)
		}

		docs := tx.Bucket(bucketVectorDocs)
		if docs == nil {
			return fmt.Errorf("%w: missing vector documents", index.ErrCorruptSnapshot)
		}
		snap.Documents = make(map[string][]float64)
		return docs.ForEach(func(k, v []byte) error {
			var vec []float64
			if err := json.Unmarshal(v, &vec); err != nil {
				return fmt.Errorf("%w: unreadable vector for %q: %v", index.ErrCorruptSnapshot, k, err)
			}
			snap.Documents[string(k)] = vec
			return nil
		})
	})
	if err != nil {
		return domain.VectorSnapshot{}, err
	}
	return snap, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// recreate empties a bucket by dropping and recreating it inside tx.
func recreate(tx *bbolt.Tx, name []byte) (*bbolt.Bucket, error) {
	if tx.Bucket(name) != nil {
		if err := tx.DeleteBucket(name); err != nil {
			return nil, fmt.Errorf("failed to reset bucket %s: %w", name, err)
		}
	}
	b, err := tx.CreateBucket(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket %s: %w", name, err)
	}
	return b, nil
}
