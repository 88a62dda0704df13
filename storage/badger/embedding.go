package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/storage"
)

// EmbeddingRepository implements storage.EmbeddingCache for BadgerDB.
type EmbeddingRepository struct {
	backend *Backend
}

var _ storage.EmbeddingCache = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates a new EmbeddingRepository.
func NewEmbeddingRepository(backend *Backend) (*EmbeddingRepository, error) {
	return &EmbeddingRepository{backend: backend}, nil
}

// Close releases resources. EmbeddingRepository has no resources to release.
func (r *EmbeddingRepository) Close() error {
	return nil
}

// EmbeddingOf returns the cached embedding for an entity.
func (r *EmbeddingRepository) EmbeddingOf(ctx context.Context, ref core.EntityRef) (core.Embedding, error) {
	var result core.Embedding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readEmbedding(tx, makeEmbeddingKey(ref))
		return err
	}, false)
	return result, err
}

// EmbeddingsOf returns the cached embeddings for several entities.
func (r *EmbeddingRepository) EmbeddingsOf(ctx context.Context, refs ...core.EntityRef) (map[core.EntityRef]core.Embedding, error) {
	results := make(map[core.EntityRef]core.Embedding, len(refs))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, ref := range refs {
			embedding, err := readEmbedding(tx, makeEmbeddingKey(ref))
			if err != nil {
				return err
			}
			if embedding.Present() {
				results[ref] = embedding
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Invalidate marks cached vectors stale.
func (r *EmbeddingRepository) Invalidate(ctx context.Context, refs ...core.EntityRef) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, ref := range refs {
			key := makeEmbeddingKey(ref)
			embedding, err := readEmbedding(tx, key)
			if err != nil {
				return err
			}
			if !embedding.Present() || embedding.Stale {
				continue
			}
			embedding.Stale = true
			if err := tx.Set(key, storage.MarshalEmbedding(embedding)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Store saves a freshly computed vector and clears the staleness flag.
func (r *EmbeddingRepository) Store(ctx context.Context, ref core.EntityRef, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector for %s %d", storage.ErrInvalidRecord, ref.Kind, ref.Id)
	}
	embedding := core.Embedding{
		Vector:     vector,
		ComputedAt: time.Now().UTC(),
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeEmbeddingKey(ref), storage.MarshalEmbedding(embedding)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readEmbedding reads an embedding from the transaction. A missing key is an
// absent embedding.
func readEmbedding(tx *badger.Txn, key []byte) (core.Embedding, error) {
	val, err := getValue(tx, key)
	if err != nil || val == nil {
		return core.Embedding{}, err
	}
	return storage.UnmarshalEmbedding(val)
}
