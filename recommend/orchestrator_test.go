package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/jobmatch/ai"
	"github.com/poiesic/jobmatch/ai/mock"
	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/storage"
	"github.com/poiesic/jobmatch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	repos        *badger.Repositories
	service      *mock.MockService
	orchestrator *Orchestrator
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	service := mock.NewMockService()
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	orchestrator, err := NewOrchestrator(repos.Listings, repos.Profiles, repos.Embeddings, service, opts...)
	require.NoError(t, err)

	return &fixture{repos: repos, service: service, orchestrator: orchestrator}
}

func (f *fixture) addListing(t *testing.T, title string, open bool, vector []float32) *core.Listing {
	t.Helper()
	applyBefore := testNow.Add(24 * time.Hour)
	if !open {
		applyBefore = testNow.Add(-24 * time.Hour)
	}
	added, err := f.repos.Listings.AddListings(context.Background(), &core.Listing{
		OwnerId:     99,
		Title:       title,
		ApplyBefore: applyBefore,
	})
	require.NoError(t, err)
	if vector != nil {
		require.NoError(t, f.repos.Embeddings.Store(context.Background(), core.ListingRef(added[0].Id), vector))
	}
	return added[0]
}

func (f *fixture) addProfile(t *testing.T, owner core.ID, skills ...string) *core.Profile {
	t.Helper()
	added, err := f.repos.Profiles.AddProfiles(context.Background(), &core.Profile{OwnerId: owner, Skills: skills})
	require.NoError(t, err)
	return added[0]
}

func ids(listings []*core.Listing) []core.ID {
	result := make([]core.ID, len(listings))
	for i, l := range listings {
		result[i] = l.Id
	}
	return result
}

func TestNewOrchestrator(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()
	service := mock.NewMockService()

	tests := []struct {
		name    string
		build   func() (*Orchestrator, error)
		wantErr error
	}{
		{"valid", func() (*Orchestrator, error) {
			return NewOrchestrator(repos.Listings, repos.Profiles, repos.Embeddings, service)
		}, nil},
		{"nil listings", func() (*Orchestrator, error) {
			return NewOrchestrator(nil, repos.Profiles, repos.Embeddings, service)
		}, ErrListingRepositoryRequired},
		{"nil profiles", func() (*Orchestrator, error) {
			return NewOrchestrator(repos.Listings, nil, repos.Embeddings, service)
		}, ErrProfileRepositoryRequired},
		{"nil cache", func() (*Orchestrator, error) {
			return NewOrchestrator(repos.Listings, repos.Profiles, nil, service)
		}, ErrEmbeddingCacheRequired},
		{"nil service", func() (*Orchestrator, error) {
			return NewOrchestrator(repos.Listings, repos.Profiles, repos.Embeddings, nil)
		}, ErrRecommenderRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := tt.build()
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				assert.Nil(t, o)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultTopK, o.topK)
			assert.Equal(t, DefaultCallTimeout, o.callTimeout)
		})
	}

	t.Run("invalid options", func(t *testing.T) {
		_, err := NewOrchestrator(repos.Listings, repos.Profiles, repos.Embeddings, service, WithTopK(0))
		assert.Error(t, err)
		_, err = NewOrchestrator(repos.Listings, repos.Profiles, repos.Embeddings, service, WithCallTimeout(-time.Second))
		assert.Error(t, err)
		_, err = NewOrchestrator(repos.Listings, repos.Profiles, repos.Embeddings, service, WithClock(nil))
		assert.Error(t, err)
	})
}

func TestRecommend_OrdersByServiceRanking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.addListing(t, "A", true, []float32{1, 0})
	b := f.addListing(t, "B", true, []float32{0, 1})
	c := f.addListing(t, "C", true, []float32{0.7, 0.7})
	f.addProfile(t, 7, "Go")

	f.service.IngestUserFunc = func(ctx context.Context, doc ai.UserDocument) ([]float32, error) {
		assert.Equal(t, core.ID(7), doc.ID)
		assert.Equal(t, []string{"Go"}, doc.Skills)
		return []float32{0, 1}, nil
	}

	got, err := f.orchestrator.Recommend(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{b.Id, c.Id, a.Id}, ids(got))

	req := f.service.LastRecommendRequest()
	require.NotNil(t, req)
	assert.Equal(t, core.ID(7), req.UserID)
	assert.Equal(t, DefaultTopK, req.TopK)
	assert.Equal(t, []core.ID{a.Id, b.Id, c.Id}, req.JobIDs)
}

func TestRecommend_ExcludesIneligibleAndUnembeddedCandidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	open := f.addListing(t, "Open", true, []float32{1, 0})
	f.addListing(t, "Expired", false, []float32{1, 0})
	f.addListing(t, "No vector", true, nil)
	stale := f.addListing(t, "Stale", true, []float32{0.5, 0.5})
	require.NoError(t, f.repos.Embeddings.Invalidate(ctx, core.ListingRef(stale.Id)))
	f.addProfile(t, 7, "Go")

	_, err := f.orchestrator.Recommend(ctx, 7)
	require.NoError(t, err)

	req := f.service.LastRecommendRequest()
	require.NotNil(t, req)
	assert.Equal(t, []core.ID{open.Id, stale.Id}, req.JobIDs)
	assert.Len(t, req.JobEmbeddings, 2)
	assert.Equal(t, 0, f.service.IngestJobCalls())
}

func TestRecommend_ProfileVectorLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addListing(t, "A", true, []float32{1, 0})
	profile := f.addProfile(t, 7, "Go")

	_, err := f.orchestrator.Recommend(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, f.service.IngestUserCalls())

	embedding, err := f.repos.Embeddings.EmbeddingOf(ctx, core.ProfileRef(profile.Id))
	require.NoError(t, err)
	assert.Equal(t, core.EmbeddingFresh, embedding.State())

	// Fresh vectors are reused
	_, err = f.orchestrator.Recommend(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, f.service.IngestUserCalls())

	// Stale vectors are recomputed
	require.NoError(t, f.repos.Embeddings.Invalidate(ctx, core.ProfileRef(profile.Id)))
	_, err = f.orchestrator.Recommend(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, f.service.IngestUserCalls())
}

func TestRecommend_StaleProfileFallsBackWhenServiceFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.addListing(t, "A", true, []float32{1, 0})
	profile := f.addProfile(t, 7, "Go")
	require.NoError(t, f.repos.Embeddings.Store(ctx, core.ProfileRef(profile.Id), []float32{1, 0}))
	require.NoError(t, f.repos.Embeddings.Invalidate(ctx, core.ProfileRef(profile.Id)))

	f.service.IngestUserFunc = func(ctx context.Context, doc ai.UserDocument) ([]float32, error) {
		return nil, errors.New("connection refused")
	}

	got, err := f.orchestrator.Recommend(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{a.Id}, ids(got))

	embedding, err := f.repos.Embeddings.EmbeddingOf(ctx, core.ProfileRef(profile.Id))
	require.NoError(t, err)
	assert.Equal(t, core.EmbeddingStale, embedding.State())
}

func TestRecommend_DegradesToEmpty(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{
			name: "embedding service unreachable",
			setup: func(f *fixture) {
				f.service.IngestUserFunc = func(ctx context.Context, doc ai.UserDocument) ([]float32, error) {
					return nil, errors.New("connection refused")
				}
			},
		},
		{
			name: "embedding service returns nothing",
			setup: func(f *fixture) {
				f.service.IngestUserFunc = func(ctx context.Context, doc ai.UserDocument) ([]float32, error) {
					return nil, nil
				}
			},
		},
		{
			name: "recommender fails",
			setup: func(f *fixture) {
				f.service.RecommendFunc = func(ctx context.Context, req ai.RecommendRequest) ([]ai.Recommendation, error) {
					return nil, ai.ErrServiceStatus
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.addListing(t, "A", true, []float32{1, 0})
			f.addProfile(t, 7, "Go")
			tt.setup(f)

			got, err := f.orchestrator.Recommend(context.Background(), 7)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestRecommend_NoCandidatesSkipsService(t *testing.T) {
	f := newFixture(t)
	f.addListing(t, "Expired", false, []float32{1, 0})
	f.addProfile(t, 7, "Go")

	got, err := f.orchestrator.Recommend(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, f.service.RecommendCalls())
}

func TestRecommend_UnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.orchestrator.Recommend(context.Background(), 404)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 0, f.service.CallCount())
}

func TestRecommend_HydrationSkipsUnknownDuplicateAndClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.addListing(t, "A", true, []float32{1, 0})
	b := f.addListing(t, "B", true, []float32{0, 1})
	closed := f.addListing(t, "Closed", false, nil)
	f.addProfile(t, 7, "Go")

	f.service.RecommendFunc = func(ctx context.Context, req ai.RecommendRequest) ([]ai.Recommendation, error) {
		return []ai.Recommendation{
			{JobID: b.Id, Score: 0.9},
			{JobID: 4242, Score: 0.8},
			{JobID: closed.Id, Score: 0.7},
			{JobID: b.Id, Score: 0.6},
			{JobID: a.Id, Score: 0.5},
		}, nil
	}

	got, err := f.orchestrator.Recommend(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{b.Id, a.Id}, ids(got))
}

func TestRecommend_TopK(t *testing.T) {
	f := newFixture(t, WithTopK(2))
	for i := 0; i < 5; i++ {
		f.addListing(t, "Listing", true, []float32{float32(i + 1), 1})
	}
	f.addProfile(t, 7, "Go")

	got, err := f.orchestrator.Recommend(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, f.service.LastRecommendRequest().TopK)
}

func TestRecommend_CallTimeout(t *testing.T) {
	f := newFixture(t, WithCallTimeout(20*time.Millisecond))
	f.addListing(t, "A", true, []float32{1, 0})
	f.addProfile(t, 7, "Go")

	f.service.RecommendFunc = func(ctx context.Context, req ai.RecommendRequest) ([]ai.Recommendation, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	start := time.Now()
	got, err := f.orchestrator.Recommend(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRefreshProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	profile := f.addProfile(t, 7, "Go")
	ref := core.ProfileRef(profile.Id)

	require.NoError(t, f.orchestrator.RefreshProfile(ctx, profile.Id))
	embedding, err := f.repos.Embeddings.EmbeddingOf(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, core.EmbeddingFresh, embedding.State())

	t.Run("failure leaves stale", func(t *testing.T) {
		f.service.IngestUserFunc = func(ctx context.Context, doc ai.UserDocument) ([]float32, error) {
			return nil, errors.New("timeout")
		}
		require.NoError(t, f.orchestrator.RefreshProfile(ctx, profile.Id))

		embedding, err := f.repos.Embeddings.EmbeddingOf(ctx, ref)
		require.NoError(t, err)
		assert.Equal(t, core.EmbeddingStale, embedding.State())
	})

	t.Run("unknown profile", func(t *testing.T) {
		err := f.orchestrator.RefreshProfile(ctx, 4242)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
