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
	"log/slog"
	"testing"
	"time"

	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func intPtr(i int) *int { return &i }

// openListing returns a listing open at testNow, posted hoursAgo before it.
func openListing(title string, hoursAgo int) *core.Listing {
	return &core.Listing{
		OwnerId:     1,
		Title:       title,
		ApplyBefore: testNow.Add(30 * 24 * time.Hour),
		PostedOn:    testNow.Add(-time.Duration(hoursAgo) * time.Hour),
	}
}

func newTestSearcher(t *testing.T, listings ...*core.Listing) (*Searcher, *badger.Repositories) {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	if len(listings) > 0 {
		_, err = repos.Listings.AddListings(context.Background(), listings...)
		require.NoError(t, err)
	}

	searcher, err := NewSearcher(repos.Listings, repos.Taxonomy, WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	return searcher, repos
}

func titles(listings []*core.Listing) []string {
	result := make([]string, len(listings))
	for i, l := range listings {
		result[i] = l.Title
	}
	return result
}

func TestNewSearcher(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(repos.Listings, repos.Taxonomy)
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with custom logger", func(t *testing.T) {
		searcher, err := NewSearcher(repos.Listings, repos.Taxonomy, WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(repos.Listings, repos.Taxonomy, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("nil clock", func(t *testing.T) {
		_, err := NewSearcher(repos.Listings, repos.Taxonomy, WithClock(nil))
		assert.Error(t, err)
	})

	t.Run("nil listing repository", func(t *testing.T) {
		_, err := NewSearcher(nil, repos.Taxonomy)
		assert.Equal(t, ErrListingRepositoryRequired, err)
	})

	t.Run("nil taxonomy repository", func(t *testing.T) {
		_, err := NewSearcher(repos.Listings, nil)
		assert.Equal(t, ErrTaxonomyRepositoryRequired, err)
	})
}

func TestSearch_EmptyDatabase(t *testing.T) {
	searcher, _ := newTestSearcher(t)

	results, err := searcher.Search(context.Background(), Query{Keyword: "go"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_KeywordRanking(t *testing.T) {
	goEngineer := openListing("Senior Go Engineer", 5)
	goEngineer.Company = "Acme"
	goEngineer.Skills = []string{"Go", "Kubernetes"}

	goDev := openListing("Go Developer", 1)
	intern := openListing("Intern", 0)
	rustEngineer := openListing("Rust Engineer", 2)

	searcher, _ := newTestSearcher(t, goEngineer, goDev, intern, rustEngineer)

	results, err := searcher.KeywordSearch(context.Background(), Query{Keyword: "go engineer"})
	require.NoError(t, err)

	require.Len(t, results, 3, "the intern listing scores 0 and is excluded")
	assert.Equal(t, "Senior Go Engineer", results[0].Listing.Title)
	assert.Equal(t, 12, results[0].Score)
	// Go Developer and Rust Engineer both score 5; the newer posting wins
	assert.Equal(t, "Go Developer", results[1].Listing.Title)
	assert.Equal(t, "Rust Engineer", results[2].Listing.Title)
	assert.Equal(t, results[1].Score, results[2].Score)
}

func TestSearch_MatchAllTerms(t *testing.T) {
	searcher, repos := newTestSearcher(t,
		openListing("Go Engineer", 1),
		openListing("Go Developer", 2),
	)

	results, err := searcher.Search(context.Background(), Query{Keyword: "go engineer"})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	strict, err := NewSearcher(repos.Listings, repos.Taxonomy,
		WithClock(func() time.Time { return testNow }), WithMatchAllTerms(true))
	require.NoError(t, err)

	results, err = strict.Search(context.Background(), Query{Keyword: "go engineer"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go Engineer"}, titles(results))
}

func TestSearch_ExcludesIneligible(t *testing.T) {
	expired := openListing("Go Engineer (expired)", 48)
	expired.ApplyBefore = testNow.Add(-24 * time.Hour)

	full := openListing("Go Engineer (full)", 3)
	full.Capacity = intPtr(2)
	full.ApplicationCount = 2

	open := openListing("Go Engineer (open)", 72)
	open.Capacity = intPtr(2)
	open.ApplicationCount = 1

	searcher, _ := newTestSearcher(t, expired, full, open)

	results, err := searcher.Search(context.Background(), Query{Keyword: "go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go Engineer (open)"}, titles(results))

	browse, err := searcher.Browse(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go Engineer (open)"}, titles(browse))
}

func TestSearch_BrowseWhenKeywordEmpty(t *testing.T) {
	searcher, _ := newTestSearcher(t,
		openListing("Oldest", 30),
		openListing("Newest", 1),
		openListing("Middle", 10),
	)

	for _, keyword := range []string{"", "   ", "!!!"} {
		results, err := searcher.Search(context.Background(), Query{Keyword: keyword})
		require.NoError(t, err)
		assert.Equal(t, []string{"Newest", "Middle", "Oldest"}, titles(results), "keyword %q", keyword)
	}

	_, err := searcher.KeywordSearch(context.Background(), Query{Keyword: "  "})
	assert.ErrorIs(t, err, ErrEmptyKeyword)
}

func TestSearch_Location(t *testing.T) {
	cairo := openListing("Go Engineer Cairo", 1)
	cairo.Country, cairo.City = "Egypt", "New Cairo"
	berlin := openListing("Go Engineer Berlin", 2)
	berlin.Country, berlin.City = "Germany", "Berlin"

	searcher, _ := newTestSearcher(t, cairo, berlin)
	ctx := context.Background()

	results, err := searcher.Search(ctx, Query{Keyword: "go", Country: "egypt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go Engineer Cairo"}, titles(results))

	results, err = searcher.Search(ctx, Query{City: "BERL"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go Engineer Berlin"}, titles(results))
}

func TestSearch_Pagination(t *testing.T) {
	var listings []*core.Listing
	for i := 0; i < 5; i++ {
		listings = append(listings, openListing("Go Engineer", i))
	}
	searcher, _ := newTestSearcher(t, listings...)
	ctx := context.Background()

	full, err := searcher.Search(ctx, Query{Keyword: "go"})
	require.NoError(t, err)
	require.Len(t, full, 5)

	page, err := searcher.Search(ctx, Query{Keyword: "go", Skip: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, full[2].Id, page[0].Id)
	assert.Equal(t, full[3].Id, page[1].Id)

	// Repeated calls return the same order
	again, err := searcher.Search(ctx, Query{Keyword: "go"})
	require.NoError(t, err)
	for i := range full {
		assert.Equal(t, full[i].Id, again[i].Id)
	}

	_, err = searcher.Search(ctx, Query{Skip: -1})
	assert.ErrorIs(t, err, ErrInvalidPagination)
	_, err = searcher.Search(ctx, Query{Limit: -1})
	assert.ErrorIs(t, err, ErrInvalidPagination)
}

func TestFilter(t *testing.T) {
	backend := openListing("Backend Engineer", 5)
	backend.Type = "Full-Time"
	backend.Categories = []string{"Engineering"}
	backend.SalaryFrom, backend.SalaryTo = floatPtr(4000), floatPtr(6000)

	designer := openListing("Designer", 1)
	designer.Type = "Part-Time"
	designer.Categories = []string{"Design"}

	expired := openListing("Old Engineer", 10)
	expired.Categories = []string{"Engineering"}
	expired.ApplyBefore = testNow.Add(-time.Hour)

	searcher, _ := newTestSearcher(t, backend, designer, expired)
	ctx := context.Background()

	results, err := searcher.Filter(ctx, core.FilterSpec{Categories: []string{"engineering"}}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Backend Engineer"}, titles(results))

	results, err = searcher.Filter(ctx, core.FilterSpec{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Designer", "Backend Engineer"}, titles(results))

	results, err = searcher.Filter(ctx, core.FilterSpec{SalaryFrom: floatPtr(3000), SalaryTo: floatPtr(7000)}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Backend Engineer"}, titles(results))

	results, err = searcher.Filter(ctx, core.FilterSpec{Types: []string{"part-time"}}, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Designer"}, titles(results))

	_, err = searcher.Filter(ctx, core.FilterSpec{}, -1, 10)
	assert.ErrorIs(t, err, ErrInvalidPagination)
}

func TestCategoryCounts(t *testing.T) {
	a := openListing("A", 1)
	a.Categories = []string{"Engineering", "Remote"}
	b := openListing("B", 2)
	b.Categories = []string{"engineering"}
	closed := openListing("C", 3)
	closed.Categories = []string{"Design"}
	closed.ApplyBefore = testNow.Add(-time.Minute)

	searcher, _ := newTestSearcher(t, a, b, closed)

	counts, err := searcher.CategoryCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.CategoryCount{
		{CategoryName: "Design", JobCount: 0},
		{CategoryName: "Engineering", JobCount: 2},
		{CategoryName: "Remote", JobCount: 1},
	}, counts)
}

func TestSearchWithMonitor(t *testing.T) {
	searcher, _ := newTestSearcher(t,
		openListing("Go Engineer", 1),
		openListing("Intern", 2),
	)

	monitor := &testMonitor{}
	results, err := searcher.SearchWithMonitor(context.Background(), Query{Keyword: "go"}, monitor)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.True(t, monitor.startCalled)
	assert.Equal(t, []string{"go"}, monitor.tokens)
	assert.Equal(t, 2, monitor.candidates)
	assert.Equal(t, 1, monitor.scored)
	assert.True(t, monitor.finishCalled)
}

// testMonitor is a simple test implementation of SearchMonitor
type testMonitor struct {
	startCalled  bool
	tokens       []string
	candidates   int
	scored       int
	finishCalled bool
}

func (m *testMonitor) Start(query Query) {
	m.startCalled = true
}

func (m *testMonitor) AfterTokenize(tokens []string) {
	m.tokens = tokens
}

func (m *testMonitor) AfterEligibility(candidates []*core.Listing) {
	m.candidates = len(candidates)
}

func (m *testMonitor) Scored(listing *core.Listing, score int) {
	m.scored++
}

func (m *testMonitor) Finish(results []core.ScoredListing) {
	m.finishCalled = true
}
