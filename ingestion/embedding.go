package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/jobmatch/ai"
	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/storage"
)

// processor computes and stores listing embeddings. A failure for one
// listing does not stop the others; the returned error joins every
// per-listing failure.
type processor interface {
	process(ctx context.Context, ids ...core.ID) error
}

type embeddingProcessor struct {
	listings storage.ListingRepository
	cache    storage.EmbeddingCache
	service  ai.RecommenderService
	timeout  time.Duration
	logger   *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(
	listings storage.ListingRepository,
	cache storage.EmbeddingCache,
	service ai.RecommenderService,
	timeout time.Duration,
	logger *slog.Logger,
) (processor, error) {
	if listings == nil {
		return nil, ErrListingRepositoryRequired
	}
	if cache == nil {
		return nil, ErrEmbeddingCacheRequired
	}
	if service == nil {
		return nil, ErrRecommenderRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		listings: listings,
		cache:    cache,
		service:  service,
		timeout:  timeout,
		logger:   logger.With("processor", "embeddings"),
	}, nil
}

// process requests a vector for every listing and stores the results.
func (ep *embeddingProcessor) process(ctx context.Context, ids ...core.ID) error {
	ep.logger.Debug("processing listings for embeddings", "listings", len(ids))

	ids = slices.Clone(ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	listings, err := ep.listings.GetListings(ctx, ids...)
	if err != nil {
		ep.logger.Error("error retrieving listings", "err", err)
		return err
	}
	if len(listings) < len(ids) {
		ep.logger.Debug("skipping listings that no longer exist", "missing", len(ids)-len(listings))
	}

	var errs []error
	for _, listing := range listings {
		if err := ep.embed(ctx, listing); err != nil {
			ep.logger.Warn("listing embedding failed", "listingID", listing.Id, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (ep *embeddingProcessor) embed(ctx context.Context, listing *core.Listing) error {
	callCtx, cancel := context.WithTimeout(ctx, ep.timeout)
	defer cancel()

	vector, err := ep.service.IngestJob(callCtx, ai.JobDocument{ID: listing.Id, Description: BuildDocument(listing)})
	if err != nil {
		return fmt.Errorf("listing %d: %w", listing.Id, err)
	}
	if len(vector) == 0 {
		return fmt.Errorf("listing %d: %w", listing.Id, ai.ErrEmptyEmbedding)
	}

	if err := ep.cache.Store(ctx, core.ListingRef(listing.Id), vector); err != nil {
		return fmt.Errorf("listing %d: failed to store embedding: %w", listing.Id, err)
	}
	return nil
}
