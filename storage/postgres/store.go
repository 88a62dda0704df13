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


package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/storage"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// DefaultMaxConns is the pool size used when the URL does not set pool_max_conns.
const DefaultMaxConns = 10

// Repositories bundles every PostgreSQL repository sharing one pool.
type Repositories struct {
	Pool       *pgxpool.Pool
	Taxonomy   *TaxonomyRepository
	Listings   *ListingRepository
	Profiles   *ProfileRepository
	Embeddings *EmbeddingRepository
}

// Open connects to PostgreSQL, applies the embedded schema and returns the
// repositories. Close releases the pool.
func Open(ctx context.Context, databaseURL string) (*Repositories, error) {
	if databaseURL == "" {
		return nil, errors.New("postgres URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres URL: %w", err)
	}
	if !strings.Contains(databaseURL, "pool_max_conns") {
		config.MaxConns = DefaultMaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Default().With("component", "postgres").Info("postgres connected", "host", config.ConnConfig.Host)
	return NewRepositories(pool), nil
}

// NewRepositories creates the repositories on top of an existing pool whose
// schema is already in place.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	taxonomy := &TaxonomyRepository{pool: pool}
	return &Repositories{
		Pool:       pool,
		Taxonomy:   taxonomy,
		Listings:   &ListingRepository{pool: pool, taxonomy: taxonomy},
		Profiles:   &ProfileRepository{pool: pool, taxonomy: taxonomy},
		Embeddings: &EmbeddingRepository{pool: pool},
	}
}

// Close releases the connection pool.
func (r *Repositories) Close() error {
	r.Pool.Close()
	return nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("execute %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// notFound maps pgx's no-rows error to storage.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

func toInt64s(ids []core.ID) []int64 {
	result := make([]int64, len(ids))
	for i, id := range ids {
		result[i] = int64(id)
	}
	return result
}
