package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/storage"
)

// EmbeddingRepository implements storage.EmbeddingCache for PostgreSQL.
// Vectors are stored as REAL[] keyed by (entity kind, entity ID).
type EmbeddingRepository struct {
	pool *pgxpool.Pool
}

var _ storage.EmbeddingCache = (*EmbeddingRepository)(nil)

// Close is a no-op; the pool is owned by Repositories.
func (r *EmbeddingRepository) Close() error {
	return nil
}

func (r *EmbeddingRepository) EmbeddingOf(ctx context.Context, ref core.EntityRef) (core.Embedding, error) {
	var emb core.Embedding
	err := r.pool.QueryRow(ctx, `
		SELECT vector, stale, computed_at FROM embeddings
		WHERE kind = $1 AND entity_id = $2`,
		int16(ref.Kind), int64(ref.Id),
	).Scan(&emb.Vector, &emb.Stale, &emb.ComputedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Embedding{}, nil
	}
	if err != nil {
		return core.Embedding{}, err
	}
	emb.ComputedAt = emb.ComputedAt.UTC()
	return emb, nil
}

// EmbeddingsOf runs one query per entity kind present in refs.
func (r *EmbeddingRepository) EmbeddingsOf(ctx context.Context, refs ...core.EntityRef) (map[core.EntityRef]core.Embedding, error) {
	result := make(map[core.EntityRef]core.Embedding, len(refs))
	byKind := make(map[core.EntityKind][]int64)
	for _, ref := range refs {
		byKind[ref.Kind] = append(byKind[ref.Kind], int64(ref.Id))
	}

	for kind, ids := range byKind {
		rows, err := r.pool.Query(ctx, `
			SELECT entity_id, vector, stale, computed_at FROM embeddings
			WHERE kind = $1 AND entity_id = ANY($2)`,
			int16(kind), ids)
		if err != nil {
			return nil, err
		}

		var (
			id  int64
			emb core.Embedding
		)
		_, err = pgx.ForEachRow(rows, []any{&id, &emb.Vector, &emb.Stale, &emb.ComputedAt}, func() error {
			if len(emb.Vector) == 0 {
				return nil
			}
			result[core.EntityRef{Kind: kind, Id: core.ID(id)}] = core.Embedding{
				Vector:     emb.Vector,
				Stale:      emb.Stale,
				ComputedAt: emb.ComputedAt.UTC(),
			}
			emb.Vector = nil
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Invalidate sends one UPDATE per entity in a single batch round trip.
func (r *EmbeddingRepository) Invalidate(ctx context.Context, refs ...core.EntityRef) error {
	if len(refs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, ref := range refs {
		batch.Queue(`UPDATE embeddings SET stale = TRUE WHERE kind = $1 AND entity_id = $2`,
			int16(ref.Kind), int64(ref.Id))
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to invalidate embeddings: %w", err)
	}
	return nil
}

func (r *EmbeddingRepository) Store(ctx context.Context, ref core.EntityRef, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector", storage.ErrInvalidRecord)
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO embeddings (kind, entity_id, vector, stale, computed_at)
		VALUES ($1, $2, $3, FALSE, $4)
		ON CONFLICT (kind, entity_id) DO UPDATE
		SET vector = EXCLUDED.vector, stale = FALSE, computed_at = EXCLUDED.computed_at`,
		int16(ref.Kind), int64(ref.Id), vector, time.Now().UTC())
	return err
}
