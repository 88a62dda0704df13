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


package badger

import "errors"

// Repositories bundles every BadgerDB repository sharing one backend.
type Repositories struct {
	Backend    *Backend
	Taxonomy   *TaxonomyRepository
	Listings   *ListingRepository
	Profiles   *ProfileRepository
	Embeddings *EmbeddingRepository
}

// OpenRepositories creates all repositories on top of an open backend.
// The caller keeps ownership of the backend unless Close is used.
func OpenRepositories(backend *Backend) (*Repositories, error) {
	taxonomy, err := NewTaxonomyRepository(backend)
	if err != nil {
		return nil, err
	}

	listings, err := NewListingRepository(backend, taxonomy)
	if err != nil {
		return nil, err
	}

	profiles, err := NewProfileRepository(backend, taxonomy)
	if err != nil {
		listings.Close()
		return nil, err
	}

	embeddings, err := NewEmbeddingRepository(backend)
	if err != nil {
		profiles.Close()
		listings.Close()
		return nil, err
	}

	return &Repositories{
		Backend:    backend,
		Taxonomy:   taxonomy,
		Listings:   listings,
		Profiles:   profiles,
		Embeddings: embeddings,
	}, nil
}

// Close releases every repository and then the backend.
func (r *Repositories) Close() error {
	return errors.Join(
		r.Embeddings.Close(),
		r.Profiles.Close(),
		r.Listings.Close(),
		r.Taxonomy.Close(),
		r.Backend.Close(),
	)
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must Close the result when done.
func NewMemoryRepositories() (*Repositories, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}

	repos, err := OpenRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return repos, nil
}
