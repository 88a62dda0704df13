package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/search"
	"github.com/poiesic/jobmatch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	listings  []*core.Listing
	counts    []core.CategoryCount
	err       error
	lastQuery search.Query
	lastSpec  core.FilterSpec
	lastSkip  int
	lastLimit int
	lastUser  core.ID
}

func (f *fakeEngine) Search(ctx context.Context, query search.Query) ([]*core.Listing, error) {
	f.lastQuery = query
	return f.listings, f.err
}

func (f *fakeEngine) Browse(ctx context.Context, skip, limit int) ([]*core.Listing, error) {
	f.lastSkip, f.lastLimit = skip, limit
	return f.listings, f.err
}

func (f *fakeEngine) Filter(ctx context.Context, spec core.FilterSpec, skip, limit int) ([]*core.Listing, error) {
	f.lastSpec, f.lastSkip, f.lastLimit = spec, skip, limit
	return f.listings, f.err
}

func (f *fakeEngine) Recommend(ctx context.Context, userID core.ID) ([]*core.Listing, error) {
	f.lastUser = userID
	return f.listings, f.err
}

func (f *fakeEngine) CategoryCounts(ctx context.Context) ([]core.CategoryCount, error) {
	return f.counts, f.err
}

func (f *fakeEngine) Listing(ctx context.Context, id core.ID) (*core.Listing, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, l := range f.listings {
		if l.Id == id {
			return l, nil
		}
	}
	return nil, storage.ErrNotFound
}

func sampleListings() []*core.Listing {
	return []*core.Listing{
		{Id: 1, OwnerId: 9, Title: "Go Engineer", Company: "Acme", Skills: []string{"Go"},
			ApplyBefore: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Id: 2, OwnerId: 9, Title: "Designer"},
	}
}

func serve(t *testing.T, engine Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	NewHandler(engine, nil).Routes().ServeHTTP(rec, req)
	return rec
}

func decodeListings(t *testing.T, rec *httptest.ResponseRecorder) []Listing {
	t.Helper()
	var got []Listing
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	return got
}

func TestHealth(t *testing.T) {
	rec := serve(t, &fakeEngine{}, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestSearch(t *testing.T) {
	engine := &fakeEngine{listings: sampleListings()}
	rec := serve(t, engine, http.MethodGet, "/jobs/search?keyword=go+engineer&country=EG&city=Cairo&skip=5&limit=10", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, search.Query{Keyword: "go engineer", Country: "EG", City: "Cairo", Skip: 5, Limit: 10}, engine.lastQuery)

	got := decodeListings(t, rec)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].ID)
	assert.Equal(t, "Go Engineer", got[0].Title)
	assert.Equal(t, []string{"Go"}, got[0].Skills)
	assert.Equal(t, []string{}, got[1].Skills)
}

func TestBrowse(t *testing.T) {
	engine := &fakeEngine{listings: sampleListings()}
	rec := serve(t, engine, http.MethodGet, "/jobs", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, engine.lastSkip)
	assert.Equal(t, 0, engine.lastLimit)
	assert.Len(t, decodeListings(t, rec), 2)
}

func TestFilter(t *testing.T) {
	engine := &fakeEngine{listings: sampleListings()[:1]}
	rec := serve(t, engine, http.MethodPost, "/jobs/filter?limit=20",
		`{"categories":["Engineering"],"types":["Full-Time"],"salaryFrom":1000}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Engineering"}, engine.lastSpec.Categories)
	assert.Equal(t, []string{"Full-Time"}, engine.lastSpec.Types)
	require.NotNil(t, engine.lastSpec.SalaryFrom)
	assert.Equal(t, 1000.0, *engine.lastSpec.SalaryFrom)
	assert.Nil(t, engine.lastSpec.SalaryTo)
	assert.Equal(t, 20, engine.lastLimit)
}

func TestFilter_EmptyBody(t *testing.T) {
	engine := &fakeEngine{}
	rec := serve(t, engine, http.MethodPost, "/jobs/filter", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.FilterSpec{}, engine.lastSpec)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRecommend(t *testing.T) {
	engine := &fakeEngine{listings: sampleListings()}
	rec := serve(t, engine, http.MethodGet, "/jobs/recommend?userId=42", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.ID(42), engine.lastUser)
	assert.Len(t, decodeListings(t, rec), 2)
}

func TestListing(t *testing.T) {
	engine := &fakeEngine{listings: sampleListings()}

	rec := serve(t, engine, http.MethodGet, "/jobs/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got Listing
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "Designer", got.Title)

	rec = serve(t, engine, http.MethodGet, "/jobs/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategoryCounts(t *testing.T) {
	engine := &fakeEngine{counts: []core.CategoryCount{
		{CategoryName: "Design", JobCount: 0},
		{CategoryName: "Engineering", JobCount: 3},
	}}
	rec := serve(t, engine, http.MethodGet, "/categories/counts", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"categoryName":"Design","jobCount":0},{"categoryName":"Engineering","jobCount":3}]`, rec.Body.String())

	rec = serve(t, &fakeEngine{}, http.MethodGet, "/categories/counts", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{"non-numeric skip", http.MethodGet, "/jobs?skip=x", ""},
		{"non-numeric limit", http.MethodGet, "/jobs/search?limit=ten", ""},
		{"missing user", http.MethodGet, "/jobs/recommend", ""},
		{"negative user", http.MethodGet, "/jobs/recommend?userId=-1", ""},
		{"bad job id", http.MethodGet, "/jobs/abc", ""},
		{"malformed filter", http.MethodPost, "/jobs/filter", `{"categories":`},
		{"unknown filter field", http.MethodPost, "/jobs/filter", `{"colour":"red"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &fakeEngine{}, tt.method, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid pagination", search.ErrInvalidPagination, http.StatusBadRequest},
		{"wrapped pagination", errors.Join(errors.New("ctx"), search.ErrInvalidPagination), http.StatusBadRequest},
		{"not found", storage.ErrNotFound, http.StatusNotFound},
		{"storage failure", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &fakeEngine{err: tt.err}, http.MethodGet, "/jobs?skip=-1", "")
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rec := serve(t, &fakeEngine{}, http.MethodGet, "/jobs/filter", "")
	// GET /jobs/filter falls through to /jobs/{id}
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, &fakeEngine{}, http.MethodDelete, "/jobs", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
