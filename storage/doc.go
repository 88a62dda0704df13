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


// Package storage defines the persistence layer of the matching engine.
//
// The engine reads listings, profiles and the category/skill taxonomy through
// repository interfaces and keeps one embedding vector per listing and per
// profile in an EmbeddingCache. Backends live in subpackages:
//
//   - badger: embedded BadgerDB store implementing every repository (default)
//   - postgres: pgx implementation of every repository, for deployments
//     sharing one relational database
//   - redis: EmbeddingCache shared between engine instances
//
// Values written to Badger and Redis use the binary record codecs in this
// package (MarshalListing, UnmarshalListing and friends). Postgres stores
// columns natively.
//
// # Usage
//
//	repos, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repos.Close()
//
// # Taxonomy
//
// Category and skill names are unique by case-insensitive identity. The first
// writer's casing is stored and every later write resolves to it. Concurrent
// creation of the same name is idempotent: GetOrCreateTerm never fails because
// another writer won the race.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
