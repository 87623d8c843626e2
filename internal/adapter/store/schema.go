package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"scour/config"
)

// CurrentSchemaVersion is the storage format version. Increment on breaking
// changes to the snapshot layout.
const CurrentSchemaVersion = 1

var (
	bucketSchema     = []byte("schema")
	keySchemaVersion = []byte("version")
	keyConfigHash    = []byte("config_hash")
)

// SchemaInfo records which format and normalization settings built the
// persisted snapshots.
type SchemaInfo struct {
	Version    int
	ConfigHash string
}

// SchemaStatus is the verdict of a schema check.
type SchemaStatus struct {
	NeedsRebuild bool
	Reason       string
}

// ConfigHash digests the settings that shape index contents. Terms are
// normalized at build time, so a snapshot built under different settings
// cannot answer queries normalized under the current ones.
func ConfigHash(cfg *config.Config) string {
	relevant := struct {
		Stemming      bool `json:"stemming"`
		MinTermLength int  `json:"min_term_length"`
		MaxTermLength int  `json:"max_term_length"`
	}{
		Stemming:      cfg.Index.Stemming,
		MinTermLength: cfg.Index.MinTermLength,
		MaxTermLength: cfg.Index.MaxTermLength,
	}

	data, _ := json.Marshal(relevant)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// SchemaInfo reads the stored schema record. A fresh store reports version 0.
func (s *BoltStore) SchemaInfo() (SchemaInfo, error) {
	var info SchemaInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSchema)
		if b == nil {
			return nil
		}
		if data := b.Get(keySchemaVersion); data != nil {
			if err := json.Unmarshal(data, &info.Version); err != nil {
				info.Version = 0
			}
		}
		if data := b.Get(keyConfigHash); data != nil {
			info.ConfigHash = string(data)
		}
		return nil
	})
	return info, err
}

// StampSchema records the current version and config hash. Called after a
// successful index save.
func (s *BoltStore) StampSchema(cfg *config.Config) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketSchema)
		if err != nil {
			return err
		}
		versionData, err := json.Marshal(CurrentSchemaVersion)
		if err != nil {
			return err
		}
		if err := b.Put(keySchemaVersion, versionData); err != nil {
			return err
		}
		return b.Put(keyConfigHash, []byte(ConfigHash(cfg)))
	})
}

// CheckSchema decides whether the persisted snapshots can serve under cfg.
// Snapshots rebuild from the corpus, so any mismatch means rebuild rather
// than a migration ladder.
func (s *BoltStore) CheckSchema(cfg *config.Config) (SchemaStatus, error) {
	info, err := s.SchemaInfo()
	if err != nil {
		return SchemaStatus{}, fmt.Errorf("failed to read schema info: %w", err)
	}

	if info.Version == 0 {
		return SchemaStatus{}, nil
	}
	if info.Version != CurrentSchemaVersion {
		return SchemaStatus{
			NeedsRebuild: true,
			Reason:       fmt.Sprintf("storage format changed (v%d, current v%d)", info.Version, CurrentSchemaVersion),
		}, nil
	}
	if info.ConfigHash != "" && info.ConfigHash != ConfigHash(cfg) {
		return SchemaStatus{
			NeedsRebuild: true,
			Reason:       "index normalization settings changed",
		}, nil
	}
	return SchemaStatus{}, nil
}

// Clear drops all persisted snapshots but keeps the schema record.
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{
			bucketPostings, bucketDocs, bucketBlobs, bucketVocab,
			bucketStats, bucketVectorDims, bucketVectorDocs, bucketVectorMeta,
		}
		for _, name := range buckets {
			if _, err := recreate(tx, name); err != nil {
				return err
			}
		}
		return nil
	})
}
