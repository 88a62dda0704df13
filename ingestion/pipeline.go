package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/jobmatch/ai"
	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/storage"
)

// DefaultCallTimeout bounds a single IngestJob call.
const DefaultCallTimeout = 10 * time.Second

// Pipeline runs the listing-ingest step. It computes listing embeddings
// through the recommender service and stores them in the embedding cache.
type Pipeline struct {
	cache         storage.EmbeddingCache
	embeddingPool *ants.Pool
	embeddingProc processor
	callTimeout   time.Duration
	pending       sync.WaitGroup
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}

		embeddingPool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.embeddingPool = embeddingPool
		return nil
	}
}

// WithCallTimeout bounds every call to the recommender service.
// Default is DefaultCallTimeout.
func WithCallTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) error {
		if timeout <= 0 {
			return fmt.Errorf("call timeout must be positive, got %v", timeout)
		}
		p.callTimeout = timeout
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	listings storage.ListingRepository,
	cache storage.EmbeddingCache,
	service ai.RecommenderService,
	opts ...Option,
) (*Pipeline, error) {
	if listings == nil {
		return nil, ErrListingRepositoryRequired
	}
	if cache == nil {
		return nil, ErrEmbeddingCacheRequired
	}
	if service == nil {
		return nil, ErrRecommenderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	embeddingPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cache:         cache,
		embeddingPool: embeddingPool,
		callTimeout:   DefaultCallTimeout,
		logger:        slog.Default().With("component", "ingestion"),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Create the processor after options are applied so it gets the final config
	embeddingProc, err := newEmbeddingProcessor(listings, cache, service, p.callTimeout, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.embeddingProc = embeddingProc

	return p, nil
}

// EmbedListing synchronously computes and stores the embedding of one listing.
// A listing that does not exist is skipped without error. On failure the
// cached embedding is left as it was.
func (p *Pipeline) EmbedListing(ctx context.Context, id core.ID) error {
	return p.embeddingProc.process(ctx, id)
}

// Submit queues listings for asynchronous embedding. Errors during async
// processing are logged but not returned.
func (p *Pipeline) Submit(ids ...core.ID) error {
	for _, id := range ids {
		p.pending.Add(1)
		err := p.embeddingPool.Submit(func() {
			defer p.pending.Done()
			if err := p.embeddingProc.process(context.Background(), id); err != nil {
				p.logger.Warn("async listing embedding failed", "listingID", id, "err", err)
			}
		})
		if err != nil {
			p.pending.Done()
			if errors.Is(err, ants.ErrPoolClosed) {
				return ErrPipelineReleased
			}
			return fmt.Errorf("failed to submit listing %d: %w", id, err)
		}
	}
	return nil
}

// ListingChanged marks the embeddings of the given listings stale and
// queues them for recomputation. Call it after a listing's embeddable
// content changed.
func (p *Pipeline) ListingChanged(ctx context.Context, ids ...core.ID) error {
	refs := make([]core.EntityRef, len(ids))
	for i, id := range ids {
		refs[i] = core.ListingRef(id)
	}
	if err := p.cache.Invalidate(ctx, refs...); err != nil {
		return fmt.Errorf("failed to invalidate listing embeddings: %w", err)
	}
	return p.Submit(ids...)
}

// Wait blocks until every submitted listing has been processed.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
