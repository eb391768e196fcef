package store

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	"go.etcd.io/bbolt"
)

// GetMany implements port.EmbeddingCache. Entries that are missing or fail to
// decode come back as nil.
func (s *BoltStore) GetMany(model string, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		if b == nil {
			return nil
		}
		for i, text := range texts {
			data := b.Get(embeddingKey(model, text))
			if data == nil {
				continue
			}
			vectors[i] = decodeVector(data)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return vectors, nil
}

// PutMany implements port.EmbeddingCache.
func (s *BoltStore) PutMany(model string, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("got %d vectors for %d texts", len(vectors), len(texts))
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		if b == nil {
			return fmt.Errorf("embeddings bucket not found")
		}
		for i, text := range texts {
			if err := b.Put(embeddingKey(model, text), encodeVector(vectors[i])); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of cached vectors.
func (s *BoltStore) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketEmbeddings); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	return n, err
}

func embeddingKey(model, text string) []byte {
	hash := sha256.New()
	hash.Write([]byte(model))
	hash.Write([]byte{0})
	hash.Write([]byte(text))
	return hash.Sum(nil)
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(data []byte) []float32 {
	if len(data)%4 != 0 {
		return nil
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return v
}
