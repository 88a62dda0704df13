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
	"time"

	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/storage"
)

const (
	// DefaultBatchSize is the default number of entities processed per batch
	DefaultBatchSize = 100
)

// PendingIterator finds entities whose embedding needs computing and walks
// them in batches. Listings are considered only while eligible, since
// recommendation never uses closed listings. Every profile is considered.
type PendingIterator struct {
	listings  storage.ListingRepository
	profiles  storage.ProfileRepository
	cache     storage.EmbeddingCache
	batchSize int
	now       func() time.Time
}

// NewPendingIterator creates a new pending-embedding iterator.
// batchSize: number of entities per batch (defaults to DefaultBatchSize when <= 0)
func NewPendingIterator(
	listings storage.ListingRepository,
	profiles storage.ProfileRepository,
	cache storage.EmbeddingCache,
	batchSize int,
	now func() time.Time,
) *PendingIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if now == nil {
		now = time.Now
	}

	return &PendingIterator{
		listings:  listings,
		profiles:  profiles,
		cache:     cache,
		batchSize: batchSize,
		now:       now,
	}
}

// Pending returns the entities whose embedding is absent or stale, listings
// first, each kind ordered by ID.
func (it *PendingIterator) Pending(ctx context.Context) ([]core.EntityRef, error) {
	listings, err := it.listings.AllListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load listings: %w", err)
	}
	profiles, err := it.profiles.AllProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	eligible := core.FilterEligible(listings, it.now())
	refs := make([]core.EntityRef, 0, len(eligible)+len(profiles))
	for _, l := range eligible {
		refs = append(refs, core.ListingRef(l.Id))
	}
	for _, p := range profiles {
		refs = append(refs, core.ProfileRef(p.Id))
	}
	if len(refs) == 0 {
		return nil, nil
	}

	embeddings, err := it.cache.EmbeddingsOf(ctx, refs...)
	if err != nil {
		return nil, fmt.Errorf("failed to read embeddings: %w", err)
	}

	pending := refs[:0]
	for _, ref := range refs {
		if embeddings[ref].State() != core.EmbeddingFresh {
			pending = append(pending, ref)
		}
	}
	return pending, nil
}

// ForEach calls fn for consecutive batches of refs.
// Iteration stops on first error from fn or when all refs are processed.
// Context cancellation is checked between batches.
func (it *PendingIterator) ForEach(ctx context.Context, refs []core.EntityRef, fn func([]core.EntityRef) error) error {
	for i := 0; i < len(refs); i += it.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(i+it.batchSize, len(refs))
		if err := fn(refs[i:end]); err != nil {
			return err
		}
	}
	return ctx.Err()
}
