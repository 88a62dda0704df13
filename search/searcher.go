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


package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/storage"
)

// DefaultLimit is the page size used when a caller passes limit 0.
const DefaultLimit = 100

// Query describes a keyword search. An empty keyword browses.
type Query struct {
	Keyword string
	Country string
	City    string
	Skip    int
	Limit   int
}

// Searcher answers keyword, browse, filter and category-count requests
// over the listings in storage.
type Searcher struct {
	listings storage.ListingRepository
	taxonomy storage.TaxonomyRepository
	matchAll bool
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithClock sets the time source used for eligibility checks.
// Default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Searcher) error {
		if now == nil {
			return fmt.Errorf("clock must not be nil")
		}
		s.now = now
		return nil
	}
}

// WithMatchAllTerms requires every query token to match at least one field
// for a listing to be returned. Default is false: any positive score matches.
func WithMatchAllTerms(matchAll bool) Option {
	return func(s *Searcher) error {
		s.matchAll = matchAll
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	listings storage.ListingRepository,
	taxonomy storage.TaxonomyRepository,
	opts ...Option,
) (*Searcher, error) {
	if listings == nil {
		return nil, ErrListingRepositoryRequired
	}
	if taxonomy == nil {
		return nil, ErrTaxonomyRepositoryRequired
	}

	s := &Searcher{
		listings: listings,
		taxonomy: taxonomy,
		now:      time.Now,
		logger:   slog.Default().With("component", "searcher"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns a page of eligible listings for q. When the keyword yields
// tokens, listings are ranked by score; otherwise they are ordered by
// posting date.
func (s *Searcher) Search(ctx context.Context, q Query) ([]*core.Listing, error) {
	scored, err := s.SearchWithMonitor(ctx, q, nil)
	if err != nil {
		return nil, err
	}
	return listingsOf(scored), nil
}

// KeywordSearch is Search for callers that require a keyword.
// Returns ErrEmptyKeyword when the keyword normalizes to no tokens.
func (s *Searcher) KeywordSearch(ctx context.Context, q Query) ([]core.ScoredListing, error) {
	if len(Normalize(q.Keyword)) == 0 {
		return nil, ErrEmptyKeyword
	}
	return s.SearchWithMonitor(ctx, q, nil)
}

// SearchWithMonitor runs Search and reports each stage to monitor.
// Browse results carry a score of 0.
func (s *Searcher) SearchWithMonitor(ctx context.Context, q Query, monitor SearchMonitor) ([]core.ScoredListing, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	skip, limit, err := pageBounds(q.Skip, q.Limit)
	if err != nil {
		return nil, err
	}

	monitor.Start(q)
	tokens := Normalize(q.Keyword)
	monitor.AfterTokenize(tokens)

	all, err := s.listings.AllListings(ctx)
	if err != nil {
		s.logger.Error("error loading listings", "err", err)
		return nil, err
	}

	now := s.now()
	candidates := make([]*core.Listing, 0, len(all))
	for _, listing := range all {
		if core.IsEligible(listing, now) && matchesLocation(listing, q.Country, q.City) {
			candidates = append(candidates, listing)
		}
	}
	monitor.AfterEligibility(candidates)

	results := make([]core.ScoredListing, 0, len(candidates))
	if len(tokens) == 0 {
		for _, listing := range candidates {
			results = append(results, core.ScoredListing{Listing: listing})
		}
	} else {
		for _, listing := range candidates {
			score, matchedAll := scoreAll(listing, tokens)
			if score == 0 || (s.matchAll && !matchedAll) {
				continue
			}
			monitor.Scored(listing, score)
			results = append(results, core.ScoredListing{Listing: listing, Score: score})
		}
	}

	// Browse results all score 0, so this falls back to recency order
	slices.SortFunc(results, CompareScored)
	results = Paginate(results, skip, limit)
	monitor.Finish(results)

	s.logger.Debug("search complete",
		"keyword", q.Keyword, "tokens", len(tokens), "candidates", len(candidates), "returned", len(results))
	return results, nil
}

// Browse returns a page of every eligible listing, most recently posted first.
func (s *Searcher) Browse(ctx context.Context, skip, limit int) ([]*core.Listing, error) {
	return s.Search(ctx, Query{Skip: skip, Limit: limit})
}

// Filter returns a page of eligible listings matching spec, most recently
// posted first. No scoring takes place.
func (s *Searcher) Filter(ctx context.Context, spec core.FilterSpec, skip, limit int) ([]*core.Listing, error) {
	skip, limit, err := pageBounds(skip, limit)
	if err != nil {
		return nil, err
	}

	all, err := s.listings.AllListings(ctx)
	if err != nil {
		s.logger.Error("error loading listings", "err", err)
		return nil, err
	}

	now := s.now()
	results := make([]*core.Listing, 0, len(all))
	for _, listing := range all {
		if MatchesFilter(listing, spec) && core.IsEligible(listing, now) {
			results = append(results, listing)
		}
	}

	slices.SortFunc(results, CompareRecency)
	return Paginate(results, skip, limit), nil
}

// CategoryCounts returns, for every known category, the number of eligible
// listings tagged with it. Categories without open listings are reported with
// a count of 0. The result is ordered by category name.
func (s *Searcher) CategoryCounts(ctx context.Context) ([]core.CategoryCount, error) {
	categories, err := s.taxonomy.Terms(ctx, core.TermCategory)
	if err != nil {
		s.logger.Error("error loading categories", "err", err)
		return nil, err
	}

	all, err := s.listings.AllListings(ctx)
	if err != nil {
		s.logger.Error("error loading listings", "err", err)
		return nil, err
	}

	now := s.now()
	counts := make(map[string]int, len(categories))
	for _, listing := range all {
		if !core.IsEligible(listing, now) {
			continue
		}
		for _, name := range listing.Categories {
			counts[core.FoldName(name)]++
		}
	}

	results := make([]core.CategoryCount, 0, len(categories))
	for _, category := range categories {
		results = append(results, core.CategoryCount{
			CategoryName: category.Name,
			JobCount:     counts[core.FoldName(category.Name)],
		})
	}
	slices.SortStableFunc(results, func(a, b core.CategoryCount) int {
		return strings.Compare(core.FoldName(a.CategoryName), core.FoldName(b.CategoryName))
	})
	return results, nil
}

// pageBounds applies the default limit and validates skip and limit.
func pageBounds(skip, limit int) (int, int, error) {
	if limit == 0 {
		limit = DefaultLimit
	}
	if skip < 0 || limit < 1 {
		return 0, 0, fmt.Errorf("%w: skip=%d limit=%d", ErrInvalidPagination, skip, limit)
	}
	return skip, limit, nil
}

func listingsOf(scored []core.ScoredListing) []*core.Listing {
	result := make([]*core.Listing, len(scored))
	for i, s := range scored {
		result[i] = s.Listing
	}
	return result
}
