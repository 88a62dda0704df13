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


package jobmatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/jobmatch/ai"
	"github.com/poiesic/jobmatch/ai/openai"
	"github.com/poiesic/jobmatch/ai/remote"
	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/ingestion"
	"github.com/poiesic/jobmatch/recommend"
	"github.com/poiesic/jobmatch/reembed"
	"github.com/poiesic/jobmatch/search"
	"github.com/poiesic/jobmatch/storage"
	"github.com/poiesic/jobmatch/storage/badger"
	"github.com/poiesic/jobmatch/storage/postgres"
	"github.com/poiesic/jobmatch/storage/redis"
)

// Engine ties storage, the recommender service and the search, ingestion
// and recommendation components together.
type Engine struct {
	taxonomy   storage.TaxonomyRepository
	listings   storage.ListingRepository
	profiles   storage.ProfileRepository
	embeddings storage.EmbeddingCache

	service      ai.RecommenderService
	searcher     *search.Searcher
	orchestrator *recommend.Orchestrator
	pipeline     *ingestion.Pipeline

	closers []io.Closer
	now     func() time.Time
	logger  *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig      *ai.Config
	service       ai.RecommenderService
	postgresURL   string
	redisURL      string
	redisTTL      time.Duration
	inMemory      bool
	matchAllTerms bool
	poolSize      int
	now           func() time.Time
	logger        *slog.Logger
}

// WithAIConfig sets the recommender service configuration.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithRecommender uses an existing recommender service instead of building
// one from the AI configuration. The engine closes it on Close.
func WithRecommender(service ai.RecommenderService) EngineOption {
	return func(o *engineOptions) {
		o.service = service
	}
}

// WithPostgres stores listings, profiles, terms and embeddings in
// PostgreSQL instead of BadgerDB.
func WithPostgres(url string) EngineOption {
	return func(o *engineOptions) {
		o.postgresURL = url
	}
}

// WithRedis keeps the embedding cache in Redis. Entries expire after ttl;
// zero keeps them until overwritten.
func WithRedis(url string, ttl time.Duration) EngineOption {
	return func(o *engineOptions) {
		o.redisURL = url
		o.redisTTL = ttl
	}
}

// WithInMemory keeps BadgerDB data in memory. The path is ignored.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithMatchAllTerms makes keyword search require every query token.
func WithMatchAllTerms(matchAll bool) EngineOption {
	return func(o *engineOptions) {
		o.matchAllTerms = matchAll
	}
}

// WithEmbeddingWorkers sets the size of the asynchronous embedding pool.
func WithEmbeddingWorkers(size int) EngineOption {
	return func(o *engineOptions) {
		o.poolSize = size
	}
}

// WithClock sets the time source used for eligibility checks.
func WithClock(now func() time.Time) EngineOption {
	return func(o *engineOptions) {
		o.now = now
	}
}

// WithLogger sets the logger. A nil logger uses slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine opens storage at dbPath and builds every component on top of it.
// The caller must Close the engine when done.
func NewEngine(ctx context.Context, dbPath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	if options.now == nil {
		options.now = time.Now
	}

	e := &Engine{
		now:    options.now,
		logger: options.logger.With("component", "engine"),
	}

	if err := e.openStorage(ctx, dbPath, options); err != nil {
		e.Close()
		return nil, err
	}
	if err := e.buildComponents(options); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) openStorage(ctx context.Context, dbPath string, options *engineOptions) error {
	if options.postgresURL != "" {
		repos, err := postgres.Open(ctx, options.postgresURL)
		if err != nil {
			return err
		}
		e.closers = append(e.closers, repos)
		e.taxonomy, e.listings, e.profiles, e.embeddings = repos.Taxonomy, repos.Listings, repos.Profiles, repos.Embeddings
	} else {
		backend, err := badger.OpenBackend(dbPath, options.inMemory)
		if err != nil {
			return err
		}
		repos, err := badger.OpenRepositories(backend)
		if err != nil {
			backend.Close()
			return err
		}
		e.closers = append(e.closers, repos)
		e.taxonomy, e.listings, e.profiles, e.embeddings = repos.Taxonomy, repos.Listings, repos.Profiles, repos.Embeddings
	}

	if options.redisURL != "" {
		var cacheOpts []redis.Option
		if options.redisTTL > 0 {
			cacheOpts = append(cacheOpts, redis.WithTTL(options.redisTTL))
		}
		cache, err := redis.Open(ctx, options.redisURL, cacheOpts...)
		if err != nil {
			return err
		}
		e.closers = append(e.closers, cache)
		e.embeddings = cache
	}
	return nil
}

func (e *Engine) buildComponents(options *engineOptions) error {
	service := options.service
	if service == nil {
		var err error
		service, err = newRecommender(options.aiConfig, options.logger)
		if err != nil {
			return err
		}
	}
	e.service = service
	e.closers = append(e.closers, service)

	timeout := recommend.DefaultCallTimeout
	topK := recommend.DefaultTopK
	if c := options.aiConfig; c != nil {
		if c.Timeout > 0 {
			timeout = c.Timeout
		}
		if c.TopK > 0 {
			topK = c.TopK
		}
	}

	searcher, err := search.NewSearcher(e.listings, e.taxonomy,
		search.WithLogger(options.logger),
		search.WithClock(e.now),
		search.WithMatchAllTerms(options.matchAllTerms),
	)
	if err != nil {
		return err
	}
	e.searcher = searcher

	orchestrator, err := recommend.NewOrchestrator(e.listings, e.profiles, e.embeddings, service,
		recommend.WithTopK(topK),
		recommend.WithCallTimeout(timeout),
		recommend.WithClock(e.now),
		recommend.WithLogger(options.logger),
	)
	if err != nil {
		return err
	}
	e.orchestrator = orchestrator

	pipelineOpts := []ingestion.Option{
		ingestion.WithCallTimeout(timeout),
		ingestion.WithLogger(options.logger),
	}
	if options.poolSize > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(options.poolSize))
	}
	pipeline, err := ingestion.NewPipeline(e.listings, e.embeddings, service, pipelineOpts...)
	if err != nil {
		return err
	}
	e.pipeline = pipeline
	return nil
}

func newRecommender(config *ai.Config, logger *slog.Logger) (ai.RecommenderService, error) {
	if config == nil {
		config = ai.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Provider {
	case ai.ProviderOpenAI:
		return openai.NewService(config)
	default:
		return remote.NewClient(config, remote.WithLogger(logger))
	}
}

// Close waits for queued embeddings, then releases the recommender service
// and storage.
func (e *Engine) Close() error {
	if e.pipeline != nil {
		e.pipeline.Wait()
		e.pipeline.Release()
		e.pipeline = nil
	}
	var errs []error
	for _, c := range slices.Backward(e.closers) {
		if err := c.Close(); err != nil {
			e.logger.Error("error closing engine resource", "err", err)
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

func (e *Engine) Taxonomy() storage.TaxonomyRepository { return e.taxonomy }

func (e *Engine) Listings() storage.ListingRepository { return e.listings }

func (e *Engine) Profiles() storage.ProfileRepository { return e.profiles }

func (e *Engine) Embeddings() storage.EmbeddingCache { return e.embeddings }

func (e *Engine) Searcher() *search.Searcher { return e.searcher }

// Search runs a keyword search, or browses when the keyword is blank.
func (e *Engine) Search(ctx context.Context, query search.Query) ([]*core.Listing, error) {
	return e.searcher.Search(ctx, query)
}

// Browse returns a page of eligible listings, newest first.
func (e *Engine) Browse(ctx context.Context, skip, limit int) ([]*core.Listing, error) {
	return e.searcher.Browse(ctx, skip, limit)
}

// Filter returns a page of eligible listings matching spec.
func (e *Engine) Filter(ctx context.Context, spec core.FilterSpec, skip, limit int) ([]*core.Listing, error) {
	return e.searcher.Filter(ctx, spec, skip, limit)
}

// CategoryCounts returns the number of eligible listings per category.
func (e *Engine) CategoryCounts(ctx context.Context) ([]core.CategoryCount, error) {
	return e.searcher.CategoryCounts(ctx)
}

// Recommend returns the eligible listings recommended for a user.
func (e *Engine) Recommend(ctx context.Context, userID core.ID) ([]*core.Listing, error) {
	return e.orchestrator.Recommend(ctx, userID)
}

// Listing returns one listing by ID.
func (e *Engine) Listing(ctx context.Context, id core.ID) (*core.Listing, error) {
	return e.listings.GetListing(ctx, id)
}

// AddListings stores new listings and queues their embeddings.
func (e *Engine) AddListings(ctx context.Context, listings ...*core.Listing) ([]*core.Listing, error) {
	added, err := e.listings.AddListings(ctx, listings...)
	if err != nil {
		return nil, err
	}
	ids := make([]core.ID, len(added))
	for i, l := range added {
		ids[i] = l.Id
	}
	if err := e.pipeline.Submit(ids...); err != nil {
		e.logger.Warn("failed to queue listing embeddings", "count", len(ids), "err", err)
	}
	return added, nil
}

// UpdateListing replaces a listing. When the fields feeding its embedding
// changed, the cached vector is marked stale and recomputed in the background.
func (e *Engine) UpdateListing(ctx context.Context, listing *core.Listing) (*core.Listing, error) {
	if listing == nil {
		return nil, fmt.Errorf("%w: listing is nil", core.ErrInvalidListing)
	}
	previous, err := e.listings.GetListing(ctx, listing.Id)
	if err != nil {
		return nil, err
	}
	updated, err := e.listings.UpdateListings(ctx, listing)
	if err != nil {
		return nil, err
	}
	current := updated[0]
	if previous.EmbeddingContent() != current.EmbeddingContent() {
		if err := e.pipeline.ListingChanged(ctx, current.Id); err != nil {
			return current, err
		}
	}
	return current, nil
}

// EmbedListing computes a listing's embedding synchronously.
func (e *Engine) EmbedListing(ctx context.Context, id core.ID) error {
	return e.pipeline.EmbedListing(ctx, id)
}

// WaitForEmbeddings blocks until queued listing embeddings are processed.
func (e *Engine) WaitForEmbeddings() {
	e.pipeline.Wait()
}

// AddProfile stores a new profile. Its vector is computed on the first
// recommendation request or backfill pass.
func (e *Engine) AddProfile(ctx context.Context, profile *core.Profile) (*core.Profile, error) {
	added, err := e.profiles.AddProfiles(ctx, profile)
	if err != nil {
		return nil, err
	}
	return added[0], nil
}

// SetProfileSkills replaces the skills of a user's profile and refreshes its
// vector when the skill set changed.
func (e *Engine) SetProfileSkills(ctx context.Context, userID core.ID, skills []string) (*core.Profile, error) {
	profile, err := e.profiles.GetProfileByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sameNames(profile.Skills, core.DedupeNames(skills)) {
		return profile, nil
	}

	changed := *profile
	changed.Skills = skills
	updated, err := e.profiles.UpdateProfiles(ctx, &changed)
	if err != nil {
		return nil, err
	}
	if err := e.orchestrator.RefreshProfile(ctx, updated[0].Id); err != nil {
		return updated[0], err
	}
	return updated[0], nil
}

// sameNames reports whether two name lists are equal ignoring case.
func sameNames(a, b []string) bool {
	return slices.EqualFunc(a, b, func(x, y string) bool {
		return core.FoldName(x) == core.FoldName(y)
	})
}

// NewBackfiller creates a backfiller over the engine's storage. progress
// receives the progress line; nil discards it. The caller must Release it.
func (e *Engine) NewBackfiller(config *reembed.Config, progress io.Writer) (*reembed.Backfiller, error) {
	return reembed.NewBackfiller(e.listings, e.profiles, e.embeddings, e.service, config, progress,
		reembed.WithClock(e.now),
		reembed.WithLogger(e.logger),
	)
}
