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


package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/search"
	"github.com/poiesic/jobmatch/storage"
)

// Engine is the subset of the matching engine served over HTTP.
type Engine interface {
	Search(ctx context.Context, query search.Query) ([]*core.Listing, error)
	Browse(ctx context.Context, skip, limit int) ([]*core.Listing, error)
	Filter(ctx context.Context, spec core.FilterSpec, skip, limit int) ([]*core.Listing, error)
	Recommend(ctx context.Context, userID core.ID) ([]*core.Listing, error)
	CategoryCounts(ctx context.Context) ([]core.CategoryCount, error)
	Listing(ctx context.Context, id core.ID) (*core.Listing, error)
}

// maxBodyBytes bounds the filter request body.
const maxBodyBytes = 1 << 20

// Handler holds shared dependencies.
type Handler struct {
	engine Engine
	logger *slog.Logger
}

// NewHandler returns a configured Handler. A nil logger uses slog.Default().
func NewHandler(engine Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: engine, logger: logger.With("component", "api")}
}

// RegisterRoutes mounts all routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /jobs", h.browse)
	mux.HandleFunc("GET /jobs/search", h.search)
	mux.HandleFunc("POST /jobs/filter", h.filter)
	mux.HandleFunc("GET /jobs/recommend", h.recommend)
	mux.HandleFunc("GET /jobs/{id}", h.listing)
	mux.HandleFunc("GET /categories/counts", h.categoryCounts)
}

// Routes returns a mux with every route mounted, wrapped in request logging.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return h.logRequests(mux)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handler) browse(w http.ResponseWriter, r *http.Request) {
	skip, limit, ok := pagination(w, r)
	if !ok {
		return
	}
	listings, err := h.engine.Browse(r.Context(), skip, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonOK(w, toListings(listings))
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	skip, limit, ok := pagination(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	listings, err := h.engine.Search(r.Context(), search.Query{
		Keyword: q.Get("keyword"),
		Country: q.Get("country"),
		City:    q.Get("city"),
		Skip:    skip,
		Limit:   limit,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonOK(w, toListings(listings))
}

func (h *Handler) filter(w http.ResponseWriter, r *http.Request) {
	skip, limit, ok := pagination(w, r)
	if !ok {
		return
	}

	var spec core.FilterSpec
	if r.ContentLength != 0 {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&spec); err != nil {
			jsonError(w, "invalid filter body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	listings, err := h.engine.Filter(r.Context(), spec, skip, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonOK(w, toListings(listings))
}

func (h *Handler) recommend(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseUint(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		jsonError(w, "userId must be a positive integer", http.StatusBadRequest)
		return
	}
	listings, err := h.engine.Recommend(r.Context(), core.ID(userID))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonOK(w, toListings(listings))
}

func (h *Handler) listing(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, "job id must be a positive integer", http.StatusBadRequest)
		return
	}
	listing, err := h.engine.Listing(r.Context(), core.ID(id))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonOK(w, toListing(listing))
}

func (h *Handler) categoryCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.engine.CategoryCounts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if counts == nil {
		counts = []core.CategoryCount{}
	}
	jsonOK(w, counts)
}

// fail maps engine errors to status codes. Validation errors are 400,
// missing entities 404, anything else 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, search.ErrInvalidPagination),
		errors.Is(err, search.ErrEmptyKeyword),
		errors.Is(err, core.ErrInvalidListing),
		errors.Is(err, core.ErrInvalidProfile):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrNotFound):
		jsonError(w, "not found", http.StatusNotFound)
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

// pagination reads skip and limit. Missing values default to 0, which the
// engine treats as the first page of DefaultLimit listings.
func pagination(w http.ResponseWriter, r *http.Request) (skip, limit int, ok bool) {
	q := r.URL.Query()
	if skip, ok = intParam(w, q.Get("skip"), "skip"); !ok {
		return 0, 0, false
	}
	if limit, ok = intParam(w, q.Get("limit"), "limit"); !ok {
		return 0, 0, false
	}
	return skip, limit, true
}

func intParam(w http.ResponseWriter, value, name string) (int, bool) {
	if value == "" {
		return 0, true
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		jsonError(w, name+" must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "elapsed", time.Since(start))
	})
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
