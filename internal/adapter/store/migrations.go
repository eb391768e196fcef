package store

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const CurrentSchemaVersion = 1

var keySchema = []byte("schema_info")

// SchemaInfo records which embedding model filled the cache.
type SchemaInfo struct {
	Version   int       `json:"version"`
	Model     string    `json:"model"`
	Dimension int       `json:"dimension"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MigrationResult struct {
	NeedsRebuild bool
	Reason       string
}

func (s *BoltStore) GetSchemaInfo() (*SchemaInfo, error) {
	var info *SchemaInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keySchema)
		if data == nil {
			return nil
		}
		info = &SchemaInfo{}
		return json.Unmarshal(data, info)
	})
	return info, err
}

func (s *BoltStore) SetSchemaInfo(info *SchemaInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keySchema, data)
	})
}

// CheckSchema reports whether cached vectors were produced under a different
// schema version or dimension than the current embedder.
func (s *BoltStore) CheckSchema(model string, dimension int) (*MigrationResult, error) {
	info, err := s.GetSchemaInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to read schema info: %w", err)
	}

	if info == nil {
		return &MigrationResult{}, nil
	}
	if info.Version != CurrentSchemaVersion {
		return &MigrationResult{
			NeedsRebuild: true,
			Reason:       fmt.Sprintf("schema version %d, expected %d", info.Version, CurrentSchemaVersion),
		}, nil
	}
	if info.Model == model && info.Dimension != dimension {
		return &MigrationResult{
			NeedsRebuild: true,
			Reason:       fmt.Sprintf("dimension changed from %d to %d for model %s", info.Dimension, dimension, model),
		}, nil
	}

	return &MigrationResult{}, nil
}

// Prepare clears stale vectors when needed and stamps the schema.
func (s *BoltStore) Prepare(model string, dimension int) (*MigrationResult, error) {
	result, err := s.CheckSchema(model, dimension)
	if err != nil {
		return nil, err
	}

	if result.NeedsRebuild {
		if err := s.Clear(); err != nil {
			return nil, fmt.Errorf("failed to clear embedding cache: %w", err)
		}
	}

	err = s.SetSchemaInfo(&SchemaInfo{
		Version:   CurrentSchemaVersion,
		Model:     model,
		Dimension: dimension,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write schema info: %w", err)
	}

	return result, nil
}

// Clear drops every cached vector.
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketEmbeddings); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(bucketEmbeddings)
		return err
	})
}
