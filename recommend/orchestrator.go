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


package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/jobmatch/ai"
	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/storage"
)

const (
	// DefaultTopK bounds the number of recommendations requested.
	DefaultTopK = 100

	// DefaultCallTimeout bounds each call to the recommender service.
	DefaultCallTimeout = 10 * time.Second
)

// Orchestrator runs the recommendation protocol for one profile at a time.
// It holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	listings    storage.ListingRepository
	profiles    storage.ProfileRepository
	cache       storage.EmbeddingCache
	service     ai.RecommenderService
	topK        int
	callTimeout time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithTopK sets the number of recommendations requested from the service.
// Default is DefaultTopK.
func WithTopK(topK int) Option {
	return func(o *Orchestrator) error {
		if topK < 1 {
			return fmt.Errorf("top-k must be positive, got %d", topK)
		}
		o.topK = topK
		return nil
	}
}

// WithCallTimeout bounds every call to the recommender service.
// Default is DefaultCallTimeout.
func WithCallTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) error {
		if timeout <= 0 {
			return fmt.Errorf("call timeout must be positive, got %v", timeout)
		}
		o.callTimeout = timeout
		return nil
	}
}

// WithClock sets the time source used for eligibility checks.
// Default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) error {
		if now == nil {
			return fmt.Errorf("clock must not be nil")
		}
		o.now = now
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates a recommendation orchestrator.
func NewOrchestrator(
	listings storage.ListingRepository,
	profiles storage.ProfileRepository,
	cache storage.EmbeddingCache,
	service ai.RecommenderService,
	opts ...Option,
) (*Orchestrator, error) {
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

	o := &Orchestrator{
		listings:    listings,
		profiles:    profiles,
		cache:       cache,
		service:     service,
		topK:        DefaultTopK,
		callTimeout: DefaultCallTimeout,
		now:         time.Now,
		logger:      slog.Default().With("component", "recommend"),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Recommend returns the listings recommended for the user owning a profile,
// in the order the recommender ranked them. Only eligible listings are
// returned. A user without a profile gets storage.ErrNotFound; any failure of
// the recommender service yields an empty result and no error.
func (o *Orchestrator) Recommend(ctx context.Context, userID core.ID) ([]*core.Listing, error) {
	profile, err := o.profiles.GetProfileByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile of user %d: %w", userID, err)
	}

	vector, err := o.profileVector(ctx, profile)
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		o.logger.Debug("profile has no embedding", "userID", userID, "profileID", profile.Id)
		return []*core.Listing{}, nil
	}

	ids, vectors, err := o.candidates(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*core.Listing{}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()
	ranked, err := o.service.Recommend(callCtx, ai.RecommendRequest{
		UserID:        userID,
		UserEmbedding: vector,
		JobIDs:        ids,
		JobEmbeddings: vectors,
		TopK:          o.topK,
	})
	if err != nil {
		o.logger.Warn("recommender unavailable, returning no recommendations",
			"userID", userID, "candidates", len(ids), "err", err)
		return []*core.Listing{}, nil
	}

	return o.hydrate(ctx, ranked)
}

// RefreshProfile marks a profile's vector stale and recomputes it. Call it
// after the profile's skills changed. A recommender failure is logged and
// leaves the vector stale for the next Recommend call.
func (o *Orchestrator) RefreshProfile(ctx context.Context, profileID core.ID) error {
	profile, err := o.profiles.GetProfile(ctx, profileID)
	if err != nil {
		return fmt.Errorf("failed to load profile %d: %w", profileID, err)
	}

	ref := core.ProfileRef(profile.Id)
	if err := o.cache.Invalidate(ctx, ref); err != nil {
		return fmt.Errorf("failed to invalidate profile embedding: %w", err)
	}

	if _, err := o.computeProfileVector(ctx, profile); err != nil {
		o.logger.Warn("profile embedding refresh failed", "profileID", profile.Id, "err", err)
	}
	return nil
}

// profileVector returns the profile's cached vector, recomputing it first if
// it is absent or stale. A failed recomputation falls back to whatever vector
// the cache still holds. Only storage errors are returned.
func (o *Orchestrator) profileVector(ctx context.Context, profile *core.Profile) ([]float32, error) {
	ref := core.ProfileRef(profile.Id)
	embedding, err := o.cache.EmbeddingOf(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile embedding: %w", err)
	}
	if embedding.State() == core.EmbeddingFresh {
		return embedding.Vector, nil
	}

	vector, err := o.computeProfileVector(ctx, profile)
	if err != nil {
		o.logger.Warn("profile embedding unavailable",
			"profileID", profile.Id, "state", embedding.State(), "err", err)
		return embedding.Vector, nil
	}
	return vector, nil
}

func (o *Orchestrator) computeProfileVector(ctx context.Context, profile *core.Profile) ([]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	vector, err := o.service.IngestUser(callCtx, ai.UserDocument{ID: profile.OwnerId, Skills: profile.Skills})
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, ai.ErrEmptyEmbedding
	}
	if err := o.cache.Store(ctx, core.ProfileRef(profile.Id), vector); err != nil {
		return nil, fmt.Errorf("failed to store profile embedding: %w", err)
	}
	return vector, nil
}

// candidates collects the IDs and vectors of eligible listings that have a
// vector, ordered by listing ID. Stale vectors are used as they are.
func (o *Orchestrator) candidates(ctx context.Context) ([]core.ID, [][]float32, error) {
	all, err := o.listings.AllListings(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load listings: %w", err)
	}
	eligible := core.FilterEligible(all, o.now())
	if len(eligible) == 0 {
		return nil, nil, nil
	}

	refs := make([]core.EntityRef, len(eligible))
	for i, l := range eligible {
		refs[i] = core.ListingRef(l.Id)
	}
	embeddings, err := o.cache.EmbeddingsOf(ctx, refs...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read listing embeddings: %w", err)
	}

	ids := make([]core.ID, 0, len(embeddings))
	vectors := make([][]float32, 0, len(embeddings))
	for _, ref := range refs {
		embedding, ok := embeddings[ref]
		if !ok || !embedding.Present() {
			continue
		}
		ids = append(ids, ref.Id)
		vectors = append(vectors, embedding.Vector)
	}
	return ids, vectors, nil
}

// hydrate loads the ranked listings in one batch and returns them in the
// service's order. Unknown, repeated and no longer eligible IDs are skipped.
func (o *Orchestrator) hydrate(ctx context.Context, ranked []ai.Recommendation) ([]*core.Listing, error) {
	ids := make([]core.ID, len(ranked))
	for i, r := range ranked {
		ids[i] = r.JobID
	}
	found, err := o.listings.GetListings(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to load recommended listings: %w", err)
	}

	byID := make(map[core.ID]*core.Listing, len(found))
	for _, l := range found {
		byID[l.Id] = l
	}

	now := o.now()
	result := make([]*core.Listing, 0, len(ranked))
	seen := make(map[core.ID]bool, len(ranked))
	for _, id := range ids {
		listing, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		if !core.IsEligible(listing, now) {
			continue
		}
		result = append(result, listing)
	}
	return result, nil
}
