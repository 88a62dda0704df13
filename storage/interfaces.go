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


package storage

import (
	"context"

	"github.com/poiesic/jobmatch/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases resources held by the repository.
	Close() error
}

// ListingRepository provides operations for managing job listings.
type ListingRepository interface {
	Repository
	// AddListings adds one or more listings to storage.
	// Generates new IDs from a sequence and sets InsertedAt/UpdatedAt.
	// Category and skill names are deduplicated case-insensitively.
	// Returns the listings with generated IDs and timestamps populated.
	AddListings(ctx context.Context, listings ...*core.Listing) ([]*core.Listing, error)

	// UpdateListings replaces existing listings.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any listing doesn't exist.
	UpdateListings(ctx context.Context, listings ...*core.Listing) ([]*core.Listing, error)

	// GetListing retrieves a single listing by ID.
	// Returns ErrNotFound if the listing doesn't exist.
	GetListing(ctx context.Context, id core.ID) (*core.Listing, error)

	// GetListings retrieves multiple listings by their IDs in one lookup.
	// Returns only the listings that exist (no error for missing listings),
	// in the order the IDs were given.
	GetListings(ctx context.Context, ids ...core.ID) ([]*core.Listing, error)

	// AllListings retrieves every stored listing, ordered by ID.
	AllListings(ctx context.Context) ([]*core.Listing, error)

	// ListingsByOwner retrieves the listings posted by one owner, ordered by ID.
	ListingsByOwner(ctx context.Context, ownerID core.ID) ([]*core.Listing, error)
}

// ProfileRepository provides operations for managing job-seeker profiles.
type ProfileRepository interface {
	Repository
	// AddProfiles adds one or more profiles to storage.
	// Generates new IDs from a sequence. At most one profile may exist per owner;
	// returns ErrDuplicateKey otherwise.
	AddProfiles(ctx context.Context, profiles ...*core.Profile) ([]*core.Profile, error)

	// UpdateProfiles replaces existing profiles.
	// Returns ErrNotFound if any profile doesn't exist.
	UpdateProfiles(ctx context.Context, profiles ...*core.Profile) ([]*core.Profile, error)

	// GetProfile retrieves a profile by ID.
	// Returns ErrNotFound if the profile doesn't exist.
	GetProfile(ctx context.Context, id core.ID) (*core.Profile, error)

	// GetProfileByOwner retrieves the profile belonging to a user.
	// Returns ErrNotFound if the user has no profile.
	GetProfileByOwner(ctx context.Context, ownerID core.ID) (*core.Profile, error)

	// AllProfiles retrieves every stored profile, ordered by ID.
	AllProfiles(ctx context.Context) ([]*core.Profile, error)
}

// TaxonomyRepository manages category and skill names.
// Names are unique by case-insensitive identity; the first writer's casing wins.
type TaxonomyRepository interface {
	Repository
	// GetOrCreateTerm finds or creates a term by kind and name.
	// Thread-safe: concurrent creation of the same name resolves to a single
	// term and never fails because of the race.
	GetOrCreateTerm(ctx context.Context, kind core.TermKind, name string) (*core.Term, error)

	// GetOrCreateCategory is GetOrCreateTerm for categories.
	GetOrCreateCategory(ctx context.Context, name string) (*core.Term, error)

	// GetOrCreateSkill is GetOrCreateTerm for skills.
	GetOrCreateSkill(ctx context.Context, name string) (*core.Term, error)

	// FindTerm looks up a term by kind and name, ignoring case.
	// Returns ErrNotFound if no matching term exists.
	FindTerm(ctx context.Context, kind core.TermKind, name string) (*core.Term, error)

	// Terms returns every term of a kind, ordered by folded name.
	Terms(ctx context.Context, kind core.TermKind) ([]*core.Term, error)
}

// EmbeddingCache stores one vector per listing and per profile together with
// its staleness flag. The cache never computes vectors itself.
type EmbeddingCache interface {
	Repository
	// EmbeddingOf returns the cached embedding for an entity.
	// An entity without a vector yields the zero Embedding and no error.
	EmbeddingOf(ctx context.Context, ref core.EntityRef) (core.Embedding, error)

	// EmbeddingsOf returns the cached embeddings for several entities in one lookup.
	// Entities without a vector are omitted from the map.
	EmbeddingsOf(ctx context.Context, refs ...core.EntityRef) (map[core.EntityRef]core.Embedding, error)

	// Invalidate marks the cached vectors of the given entities stale.
	// Entities without a vector are left absent.
	Invalidate(ctx context.Context, refs ...core.EntityRef) error

	// Store saves a freshly computed vector and clears the staleness flag.
	Store(ctx context.Context, ref core.EntityRef, vector []float32) error
}
