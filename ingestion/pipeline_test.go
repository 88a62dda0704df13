package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/jobmatch/ai"
	"github.com/poiesic/jobmatch/ai/mock"
	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPipeline(t *testing.T, service ai.RecommenderService, opts ...Option) (*Pipeline, *badger.Repositories) {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	pipeline, err := NewPipeline(repos.Listings, repos.Embeddings, service, opts...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)
	return pipeline, repos
}

func addListing(t *testing.T, repos *badger.Repositories, title string) *core.Listing {
	t.Helper()
	added, err := repos.Listings.AddListings(context.Background(), &core.Listing{
		OwnerId:     1,
		Title:       title,
		Skills:      []string{"Go"},
		ApplyBefore: time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	return added[0]
}

func TestNewPipeline(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()
	service := mock.NewMockService()

	t.Run("valid configuration", func(t *testing.T) {
		pipeline, err := NewPipeline(repos.Listings, repos.Embeddings, service)
		require.NoError(t, err)
		pipeline.Release()
	})

	t.Run("with options", func(t *testing.T) {
		pipeline, err := NewPipeline(repos.Listings, repos.Embeddings, service,
			WithPoolSize(0), WithCallTimeout(time.Second), WithLogger(slog.Default()), WithLogger(nil))
		require.NoError(t, err)
		pipeline.Release()
	})

	t.Run("invalid timeout", func(t *testing.T) {
		_, err := NewPipeline(repos.Listings, repos.Embeddings, service, WithCallTimeout(0))
		assert.Error(t, err)
	})

	t.Run("nil dependencies", func(t *testing.T) {
		_, err := NewPipeline(nil, repos.Embeddings, service)
		assert.Equal(t, ErrListingRepositoryRequired, err)
		_, err = NewPipeline(repos.Listings, nil, service)
		assert.Equal(t, ErrEmbeddingCacheRequired, err)
		_, err = NewPipeline(repos.Listings, repos.Embeddings, nil)
		assert.Equal(t, ErrRecommenderRequired, err)
	})
}

func TestEmbedListing(t *testing.T) {
	service := mock.NewMockService()
	var document string
	service.IngestJobFunc = func(ctx context.Context, doc ai.JobDocument) ([]float32, error) {
		document = doc.Description
		return []float32{0.5, 0.5}, nil
	}
	pipeline, repos := setupPipeline(t, service)
	ctx := context.Background()

	listing := addListing(t, repos, "Go Engineer")
	require.NoError(t, pipeline.EmbedListing(ctx, listing.Id))

	assert.True(t, strings.HasPrefix(document, "title: Go Engineer\r\n"))
	embedding, err := repos.Embeddings.EmbeddingOf(ctx, core.ListingRef(listing.Id))
	require.NoError(t, err)
	assert.Equal(t, core.EmbeddingFresh, embedding.State())
	assert.Equal(t, []float32{0.5, 0.5}, embedding.Vector)
}

func TestEmbedListing_MissingListingIsSkipped(t *testing.T) {
	service := mock.NewMockService()
	pipeline, _ := setupPipeline(t, service)

	assert.NoError(t, pipeline.EmbedListing(context.Background(), 4242))
	assert.Equal(t, 0, service.IngestJobCalls())
}

func TestEmbedListing_FailureLeavesEmbeddingStale(t *testing.T) {
	service := mock.NewMockService()
	pipeline, repos := setupPipeline(t, service)
	ctx := context.Background()

	listing := addListing(t, repos, "Go Engineer")
	require.NoError(t, pipeline.EmbedListing(ctx, listing.Id))
	require.NoError(t, repos.Embeddings.Invalidate(ctx, core.ListingRef(listing.Id)))

	service.IngestJobFunc = func(ctx context.Context, doc ai.JobDocument) ([]float32, error) {
		return nil, errors.New("service unavailable")
	}
	assert.Error(t, pipeline.EmbedListing(ctx, listing.Id))

	embedding, err := repos.Embeddings.EmbeddingOf(ctx, core.ListingRef(listing.Id))
	require.NoError(t, err)
	assert.Equal(t, core.EmbeddingStale, embedding.State())
}

func TestEmbedListing_CallTimeout(t *testing.T) {
	service := mock.NewMockService()
	service.IngestJobFunc = func(ctx context.Context, doc ai.JobDocument) ([]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	pipeline, repos := setupPipeline(t, service, WithCallTimeout(20*time.Millisecond))

	listing := addListing(t, repos, "Go Engineer")
	err := pipeline.EmbedListing(context.Background(), listing.Id)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSubmitAndWait(t *testing.T) {
	service := mock.NewMockService()
	var calls atomic.Int32
	service.IngestJobFunc = func(ctx context.Context, doc ai.JobDocument) ([]float32, error) {
		calls.Add(1)
		return []float32{1, 0}, nil
	}
	pipeline, repos := setupPipeline(t, service, WithPoolSize(4))
	ctx := context.Background()

	var ids []core.ID
	for i := 0; i < 10; i++ {
		ids = append(ids, addListing(t, repos, "Listing").Id)
	}

	require.NoError(t, pipeline.Submit(ids...))
	pipeline.Wait()

	assert.Equal(t, int32(10), calls.Load())
	refs := make([]core.EntityRef, len(ids))
	for i, id := range ids {
		refs[i] = core.ListingRef(id)
	}
	embeddings, err := repos.Embeddings.EmbeddingsOf(ctx, refs...)
	require.NoError(t, err)
	assert.Len(t, embeddings, 10)
}

func TestListingChanged(t *testing.T) {
	service := mock.NewMockService()
	pipeline, repos := setupPipeline(t, service)
	ctx := context.Background()

	listing := addListing(t, repos, "Go Engineer")
	require.NoError(t, pipeline.EmbedListing(ctx, listing.Id))

	block := make(chan struct{})
	service.IngestJobFunc = func(ctx context.Context, doc ai.JobDocument) ([]float32, error) {
		<-block
		return []float32{0, 1}, nil
	}

	require.NoError(t, pipeline.ListingChanged(ctx, listing.Id))

	// Stale until the async recomputation finishes
	embedding, err := repos.Embeddings.EmbeddingOf(ctx, core.ListingRef(listing.Id))
	require.NoError(t, err)
	assert.Equal(t, core.EmbeddingStale, embedding.State())

	close(block)
	pipeline.Wait()

	embedding, err = repos.Embeddings.EmbeddingOf(ctx, core.ListingRef(listing.Id))
	require.NoError(t, err)
	assert.Equal(t, core.EmbeddingFresh, embedding.State())
	assert.Equal(t, []float32{0, 1}, embedding.Vector)
}

func TestSubmitAfterRelease(t *testing.T) {
	pipeline, _ := setupPipeline(t, mock.NewMockService())
	pipeline.Release()

	assert.ErrorIs(t, pipeline.Submit(1), ErrPipelineReleased)
}
