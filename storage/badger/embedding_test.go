package badger

import (
	"context"
	"testing"

	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingLifecycle(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()
	ref := core.ProfileRef(7)

	embedding, err := repos.Embeddings.EmbeddingOf(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, core.EmbeddingAbsent, embedding.State())

	// Invalidating an absent embedding leaves it absent
	require.NoError(t, repos.Embeddings.Invalidate(ctx, ref))
	embedding, err = repos.Embeddings.EmbeddingOf(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, core.EmbeddingAbsent, embedding.State())

	require.NoError(t, repos.Embeddings.Store(ctx, ref, []float32{0.6, 0.8}))
	embedding, err = repos.Embeddings.EmbeddingOf(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, core.EmbeddingFresh, embedding.State())
	assert.Equal(t, []float32{0.6, 0.8}, embedding.Vector)
	assert.False(t, embedding.ComputedAt.IsZero())

	require.NoError(t, repos.Embeddings.Invalidate(ctx, ref))
	embedding, err = repos.Embeddings.EmbeddingOf(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, core.EmbeddingStale, embedding.State())
	assert.Equal(t, []float32{0.6, 0.8}, embedding.Vector, "stale vectors stay usable")

	require.NoError(t, repos.Embeddings.Store(ctx, ref, []float32{1, 0}))
	embedding, err = repos.Embeddings.EmbeddingOf(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, core.EmbeddingFresh, embedding.State())
}

func TestEmbeddingStore_RejectsEmptyVector(t *testing.T) {
	repos := newTestRepositories(t)

	err := repos.Embeddings.Store(context.Background(), core.ListingRef(1), nil)
	assert.ErrorIs(t, err, storage.ErrInvalidRecord)
}

func TestEmbeddingsOf_KindsDoNotCollide(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	require.NoError(t, repos.Embeddings.Store(ctx, core.ListingRef(1), []float32{1}))
	require.NoError(t, repos.Embeddings.Store(ctx, core.ProfileRef(1), []float32{2}))
	require.NoError(t, repos.Embeddings.Store(ctx, core.ListingRef(3), []float32{3}))

	got, err := repos.Embeddings.EmbeddingsOf(ctx, core.ListingRef(1), core.ListingRef(2), core.ListingRef(3), core.ProfileRef(1))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []float32{1}, got[core.ListingRef(1)].Vector)
	assert.Equal(t, []float32{3}, got[core.ListingRef(3)].Vector)
	assert.Equal(t, []float32{2}, got[core.ProfileRef(1)].Vector)
	_, ok := got[core.ListingRef(2)]
	assert.False(t, ok)
}
