package ingestion

import "errors"

var (
	// ErrListingRepositoryRequired is returned when a listing repository is not provided.
	ErrListingRepositoryRequired = errors.New("listing repository required")

	// ErrEmbeddingCacheRequired is returned when an embedding cache is not provided.
	ErrEmbeddingCacheRequired = errors.New("embedding cache required")

	// ErrRecommenderRequired is returned when a recommender service is not provided.
	ErrRecommenderRequired = errors.New("recommender service required")

	// ErrPipelineReleased is returned by Submit after Release.
	ErrPipelineReleased = errors.New("pipeline released")
)
