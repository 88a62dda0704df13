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


package mock

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/poiesic/jobmatch/ai"
)

// MockService is a test double for ai.RecommenderService.
// Each operation calls its function field when set; otherwise it falls back
// to deterministic local behavior. Safe for concurrent use.
type MockService struct {
	// IngestJobFunc is called by IngestJob if set.
	// If nil, returns DeterministicVector(doc.Description).
	IngestJobFunc func(ctx context.Context, doc ai.JobDocument) ([]float32, error)

	// IngestUserFunc is called by IngestUser if set.
	// If nil, returns DeterministicVector of the comma-joined skills.
	IngestUserFunc func(ctx context.Context, doc ai.UserDocument) ([]float32, error)

	// RecommendFunc is called by Recommend if set.
	// If nil, ranks candidates by dot product, best first, ties by job ID.
	RecommendFunc func(ctx context.Context, req ai.RecommendRequest) ([]ai.Recommendation, error)

	mu              sync.Mutex
	ingestJobCalls  int
	ingestUserCalls int
	recommendCalls  int
	lastRecommend   *ai.RecommendRequest
	closed          bool
}

var _ ai.RecommenderService = (*MockService)(nil)

// NewMockService creates a mock service with default deterministic behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockService() *MockService {
	return &MockService{}
}

// IngestJob returns a vector for the listing document.
func (m *MockService) IngestJob(ctx context.Context, doc ai.JobDocument) ([]float32, error) {
	m.mu.Lock()
	m.ingestJobCalls++
	fn := m.IngestJobFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, doc)
	}
	return DeterministicVector(doc.Description), nil
}

// IngestUser returns a vector for the profile's skills.
func (m *MockService) IngestUser(ctx context.Context, doc ai.UserDocument) ([]float32, error) {
	m.mu.Lock()
	m.ingestUserCalls++
	fn := m.IngestUserFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, doc)
	}
	return DeterministicVector(strings.Join(doc.Skills, ",")), nil
}

// Recommend ranks the candidates in req.
func (m *MockService) Recommend(ctx context.Context, req ai.RecommendRequest) ([]ai.Recommendation, error) {
	m.mu.Lock()
	m.recommendCalls++
	m.lastRecommend = &req
	fn := m.RecommendFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if len(req.JobIDs) != len(req.JobEmbeddings) {
		return nil, ai.ErrCandidateMismatch
	}

	results := make([]ai.Recommendation, len(req.JobIDs))
	for i, id := range req.JobIDs {
		results[i] = ai.Recommendation{JobID: id, Score: dot(req.UserEmbedding, req.JobEmbeddings[i])}
	}
	slices.SortFunc(results, func(a, b ai.Recommendation) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.JobID, b.JobID)
	})
	if req.TopK > 0 && len(results) > req.TopK {
		results = results[:req.TopK]
	}
	return results, nil
}

// Close marks the service closed.
func (m *MockService) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// IngestJobCalls returns the number of IngestJob calls.
func (m *MockService) IngestJobCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ingestJobCalls
}

// IngestUserCalls returns the number of IngestUser calls.
func (m *MockService) IngestUserCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ingestUserCalls
}

// RecommendCalls returns the number of Recommend calls.
func (m *MockService) RecommendCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recommendCalls
}

// CallCount returns the number of times any operation was called.
func (m *MockService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ingestJobCalls + m.ingestUserCalls + m.recommendCalls
}

// LastRecommendRequest returns the most recent Recommend request, or nil.
func (m *MockService) LastRecommendRequest() *ai.RecommendRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRecommend
}

// Closed reports whether Close was called.
func (m *MockService) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Reset clears call counts and injected behavior.
func (m *MockService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IngestJobFunc = nil
	m.IngestUserFunc = nil
	m.RecommendFunc = nil
	m.ingestJobCalls = 0
	m.ingestUserCalls = 0
	m.recommendCalls = 0
	m.lastRecommend = nil
	m.closed = false
}

func dot(a, b []float32) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
