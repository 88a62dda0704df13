package reembed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/jobmatch/ai"
	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/ingestion"
	"github.com/poiesic/jobmatch/storage"
	"golang.org/x/time/rate"
)

// BatchResult counts the outcomes of one batch.
type BatchResult struct {
	Embedded int
	Failed   int
	Skipped  int // entity deleted since it was found pending
}

// BatchProcessor computes and stores the embeddings of a batch of entities.
// Entities of one batch are embedded concurrently on a shared worker pool;
// every outbound call waits on the rate limiter and is retried with backoff.
type BatchProcessor struct {
	listings    storage.ListingRepository
	profiles    storage.ProfileRepository
	cache       storage.EmbeddingCache
	service     ai.RecommenderService
	pool        *ants.Pool
	limiter     *rate.Limiter
	maxRetries  int
	retryDelay  time.Duration
	callTimeout time.Duration
	logger      *slog.Logger
}

// embedTask is one entity ready to be embedded.
type embedTask struct {
	ref  core.EntityRef
	call func(ctx context.Context) ([]float32, error)
}

// Process embeds every entity in refs. A failure of one entity is counted
// and logged without stopping the others; only storage read errors and
// context cancellation are returned.
func (bp *BatchProcessor) Process(ctx context.Context, refs []core.EntityRef) (BatchResult, error) {
	var result BatchResult
	tasks, skipped, err := bp.prepare(ctx, refs)
	if err != nil {
		return result, err
	}
	result.Skipped = skipped

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			result.Failed++
			return
		}
		result.Embedded++
	}

	for _, task := range tasks {
		wg.Add(1)
		submitErr := bp.pool.Submit(func() {
			defer wg.Done()
			err := bp.embed(ctx, task)
			if err != nil && ctx.Err() == nil {
				bp.logger.Warn("embedding backfill failed", "entity", task.ref.Kind, "id", task.ref.Id, "err", err)
			}
			record(err)
		})
		if submitErr != nil {
			wg.Done()
			record(submitErr)
		}
	}
	wg.Wait()

	return result, ctx.Err()
}

func (bp *BatchProcessor) prepare(ctx context.Context, refs []core.EntityRef) ([]embedTask, int, error) {
	var listingIDs []core.ID
	tasks := make([]embedTask, 0, len(refs))
	skipped := 0

	for _, ref := range refs {
		switch ref.Kind {
		case core.EntityListing:
			listingIDs = append(listingIDs, ref.Id)
		case core.EntityProfile:
			profile, err := bp.profiles.GetProfile(ctx, ref.Id)
			if errors.Is(err, storage.ErrNotFound) {
				skipped++
				continue
			}
			if err != nil {
				return nil, 0, fmt.Errorf("failed to load profile %d: %w", ref.Id, err)
			}
			doc := ai.UserDocument{ID: profile.OwnerId, Skills: profile.Skills}
			tasks = append(tasks, embedTask{ref: ref, call: func(ctx context.Context) ([]float32, error) {
				return bp.service.IngestUser(ctx, doc)
			}})
		default:
			return nil, 0, fmt.Errorf("unknown entity kind %d", ref.Kind)
		}
	}

	if len(listingIDs) > 0 {
		listings, err := bp.listings.GetListings(ctx, listingIDs...)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load listings: %w", err)
		}
		skipped += len(listingIDs) - len(listings)
		for _, listing := range listings {
			doc := ai.JobDocument{ID: listing.Id, Description: ingestion.BuildDocument(listing)}
			tasks = append(tasks, embedTask{ref: core.ListingRef(listing.Id), call: func(ctx context.Context) ([]float32, error) {
				return bp.service.IngestJob(ctx, doc)
			}})
		}
	}

	return tasks, skipped, nil
}

func (bp *BatchProcessor) embed(ctx context.Context, task embedTask) error {
	var vector []float32
	err := RetryWithBackoff(ctx, func(ctx context.Context) error {
		if err := bp.limiter.Wait(ctx); err != nil {
			return err
		}

		callCtx, cancel := context.WithTimeout(ctx, bp.callTimeout)
		defer cancel()

		var err error
		vector, err = task.call(callCtx)
		if errors.Is(err, ai.ErrEmptyEmbedding) {
			return Permanent(err)
		}
		if err != nil {
			return err
		}
		if len(vector) == 0 {
			return Permanent(ai.ErrEmptyEmbedding)
		}
		return nil
	}, bp.maxRetries, bp.retryDelay)
	if err != nil {
		return fmt.Errorf("failed to embed after %d attempts: %w", bp.maxRetries, err)
	}

	if err := bp.cache.Store(ctx, task.ref, vector); err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	return nil
}
