package openai

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/poiesic/jobmatch/ai"
	"github.com/poiesic/jobmatch/ai/mock"
	"github.com/poiesic/jobmatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithProvider(ai.ProviderOpenAI),
		ai.WithHost("http://localhost:11434"),
		ai.WithTopK(2),
	)
}

func TestNewServiceWithEmbedder(t *testing.T) {
	_, err := NewServiceWithEmbedder(testConfig(), nil)
	assert.Error(t, err)

	_, err = NewServiceWithEmbedder(ai.NewConfig(ai.WithProvider(ai.ProviderOpenAI), ai.WithEmbeddingModel("")), mock.NewMockEmbedder())
	assert.Error(t, err)

	service, err := NewServiceWithEmbedder(testConfig(), mock.NewMockEmbedder())
	require.NoError(t, err)
	assert.NoError(t, service.Close())
}

func TestIngestJob_CleansAndNormalizes(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	var seen string
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		seen = text
		return []float32{3, 4}, nil
	}
	service, err := newService(testConfig(), embedder)
	require.NoError(t, err)

	vector, err := service.IngestJob(context.Background(), ai.JobDocument{
		ID:          1,
		Description: "title: Go Engineer\r\ndescription: mail hr@acme.example",
	})
	require.NoError(t, err)
	assert.Equal(t, "title: Go Engineer description: mail", seen)
	assert.InDelta(t, 0.6, vector[0], 1e-6)
	assert.InDelta(t, 0.8, vector[1], 1e-6)
}

func TestIngestJob_Failures(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	service, err := newService(testConfig(), embedder)
	require.NoError(t, err)

	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("connection refused")
	}
	_, err = service.IngestJob(context.Background(), ai.JobDocument{ID: 1})
	assert.Error(t, err)

	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{0, 0}, nil
	}
	_, err = service.IngestJob(context.Background(), ai.JobDocument{ID: 1})
	assert.ErrorIs(t, err, ai.ErrEmptyEmbedding)
}

func TestIngestUser_MeanPooled(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		assert.Equal(t, []string{"Go", "SQL"}, texts)
		return [][]float32{{1, 0}, {0, 1}}, nil
	}
	service, err := newService(testConfig(), embedder)
	require.NoError(t, err)

	vector, err := service.IngestUser(context.Background(), ai.UserDocument{ID: 7, Skills: []string{"Go", " ", "SQL"}})
	require.NoError(t, err)
	assert.InDelta(t, 1/math.Sqrt2, vector[0], 1e-6)
	assert.InDelta(t, 1/math.Sqrt2, vector[1], 1e-6)
	assert.Equal(t, []string{"Go", "SQL"}, embedder.Texts())
}

func TestIngestUser_Failures(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	service, err := newService(testConfig(), embedder)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = service.IngestUser(ctx, ai.UserDocument{ID: 7})
	assert.ErrorIs(t, err, ai.ErrEmptyEmbedding)
	assert.Equal(t, 0, embedder.CallCount(), "no skills means no call")

	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	}
	_, err = service.IngestUser(ctx, ai.UserDocument{ID: 7, Skills: []string{"Go", "SQL"}})
	assert.ErrorIs(t, err, ai.ErrMalformedResponse)

	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0}, {1}}, nil
	}
	_, err = service.IngestUser(ctx, ai.UserDocument{ID: 7, Skills: []string{"Go", "SQL"}})
	assert.ErrorIs(t, err, ai.ErrMalformedResponse)
}

func TestRecommend_RanksByCosine(t *testing.T) {
	service, err := newService(testConfig(), mock.NewMockEmbedder())
	require.NoError(t, err)

	recs, err := service.Recommend(context.Background(), ai.RecommendRequest{
		UserID:        7,
		UserEmbedding: []float32{1, 0},
		JobIDs:        []core.ID{10, 11, 12, 13, 14},
		JobEmbeddings: [][]float32{
			{0, 1},    // orthogonal
			{1, 1},    // 0.707
			{1},       // wrong dimension
			{2, 2},    // ties with 11
			{-1, 0.1}, // negative
		},
	})
	require.NoError(t, err)

	require.Len(t, recs, 2, "config top-k applies when the request has none")
	assert.Equal(t, core.ID(11), recs[0].JobID)
	assert.Equal(t, core.ID(13), recs[1].JobID)
	assert.InDelta(t, 1/math.Sqrt2, recs[0].Score, 1e-6)
}

func TestRecommend_RequestTopK(t *testing.T) {
	service, err := newService(testConfig(), mock.NewMockEmbedder())
	require.NoError(t, err)

	recs, err := service.Recommend(context.Background(), ai.RecommendRequest{
		UserEmbedding: []float32{1, 0},
		JobIDs:        []core.ID{1, 2, 3},
		JobEmbeddings: [][]float32{{1, 0}, {0.5, 0.5}, {0, 1}},
		TopK:          3,
	})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []core.ID{1, 2, 3}, []core.ID{recs[0].JobID, recs[1].JobID, recs[2].JobID})

	_, err = service.Recommend(context.Background(), ai.RecommendRequest{JobIDs: []core.ID{1}})
	assert.ErrorIs(t, err, ai.ErrCandidateMismatch)
}
