// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/jobmatch/ai"
	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/storage"
	"golang.org/x/time/rate"
)

// Config holds configuration for a backfill run.
type Config struct {
	// BatchSize is the number of entities to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of entities)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per entity
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// RatePerSecond limits outbound embedding calls. Zero means unlimited.
	RatePerSecond float64

	// Workers is the number of concurrent embedding calls.
	// Zero means runtime.NumCPU() / 2, with a minimum of 1.
	Workers int

	// CallTimeout bounds a single embedding call.
	CallTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		CallTimeout:    10 * time.Second,
	}
}

// Summary reports the outcome of a backfill run.
type Summary struct {
	Pending  int
	Embedded int
	Failed   int
	Skipped  int
}

// Backfiller computes the embeddings of every entity whose cached vector is
// absent or stale.
type Backfiller struct {
	config    *Config
	progress  io.Writer
	iterator  *PendingIterator
	processor *BatchProcessor
	pool      *ants.Pool
	logger    *slog.Logger
}

// Option configures a Backfiller.
type Option func(*backfillOptions)

type backfillOptions struct {
	now    func() time.Time
	logger *slog.Logger
}

// WithClock sets the time source used to decide which listings are eligible.
// Default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *backfillOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *backfillOptions) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// NewBackfiller creates a new backfiller.
// progress: where to write progress output (typically os.Stderr, nil for none)
// The caller must Release the backfiller when done.
func NewBackfiller(
	listings storage.ListingRepository,
	profiles storage.ProfileRepository,
	cache storage.EmbeddingCache,
	service ai.RecommenderService,
	config *Config,
	progress io.Writer,
	opts ...Option,
) (*Backfiller, error) {
	if listings == nil {
		return nil, ErrListingRepositoryRequired
	}
	if profiles == nil {
		return nil, ErrProfileRepositoryRequired
	}
	if cache == nil {
		return nil, ErrEmbeddingCacheRequired
	}
	if service == nil {
		return nil, ErrRecommenderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = io.Discard
	}

	options := &backfillOptions{
		now:    time.Now,
		logger: slog.Default().With("component", "reembed"),
	}
	for _, opt := range opts {
		opt(options)
	}

	workers := config.Workers
	if workers <= 0 {
		workers = max(runtime.NumCPU()/2, 1)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}

	limit := rate.Inf
	if config.RatePerSecond > 0 {
		limit = rate.Limit(config.RatePerSecond)
	}

	return &Backfiller{
		config:   config,
		progress: progress,
		iterator: NewPendingIterator(listings, profiles, cache, config.BatchSize, options.now),
		processor: &BatchProcessor{
			listings:    listings,
			profiles:    profiles,
			cache:       cache,
			service:     service,
			pool:        pool,
			limiter:     rate.NewLimiter(limit, 1),
			maxRetries:  config.MaxRetries,
			retryDelay:  config.RetryDelay,
			callTimeout: config.CallTimeout,
			logger:      options.logger,
		},
		pool:   pool,
		logger: options.logger,
	}, nil
}

func (c *Config) validate() error {
	if c.MaxRetries < 1 {
		return fmt.Errorf("reembed config: %w", ErrInvalidMaxAttempts)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("reembed config: retry delay must not be negative, got %v", c.RetryDelay)
	}
	if c.RatePerSecond < 0 {
		return fmt.Errorf("reembed config: rate must not be negative, got %v", c.RatePerSecond)
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("reembed config: call timeout must be positive, got %v", c.CallTimeout)
	}
	return nil
}

// Run executes one backfill pass. Entities that fail are counted in the
// summary and left absent or stale for the next pass; only storage read
// errors and context cancellation abort the run.
func (b *Backfiller) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	pending, err := b.iterator.Pending(ctx)
	if err != nil {
		return summary, err
	}

	summary.Pending = len(pending)
	if summary.Pending == 0 {
		fmt.Fprintf(b.progress, "No pending embeddings (0 entities)\n")
		return summary, nil
	}

	fmt.Fprintf(b.progress, "Starting backfill of %d entities (batch size: %d)\n",
		summary.Pending, b.iterator.batchSize)

	tracker := NewProgressTracker(b.progress, summary.Pending, b.config.ReportInterval)
	tracker.Start()

	err = b.iterator.ForEach(ctx, pending, func(refs []core.EntityRef) error {
		result, err := b.processor.Process(ctx, refs)
		summary.Embedded += result.Embedded
		summary.Failed += result.Failed
		summary.Skipped += result.Skipped
		tracker.Record(result.Embedded+result.Skipped, result.Failed)
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return summary, err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(b.progress, "Backfill complete. Embedded %d, failed %d, skipped %d in %v\n",
		summary.Embedded, summary.Failed, summary.Skipped, elapsed.Round(time.Millisecond))

	b.logger.Info("backfill finished",
		"pending", summary.Pending, "embedded", summary.Embedded,
		"failed", summary.Failed, "skipped", summary.Skipped, "elapsed", elapsed)

	return summary, nil
}

// Release releases the worker pool.
// The backfiller should not be used after calling Release.
func (b *Backfiller) Release() {
	b.pool.Release()
}
