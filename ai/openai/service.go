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


package openai

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/jobmatch/ai"
)

// Service implements ai.RecommenderService without the external recommender:
// vectors come from an OpenAI-compatible embeddings endpoint and candidates
// are ranked locally by cosine similarity.
//
// Listing vectors embed the cleaned listing document. Profile vectors are the
// mean of the embeddings of the individual skills. Both are L2-normalized.
type Service struct {
	config   *ai.Config
	embedder ai.Embedder
	logger   *slog.Logger
}

var _ ai.RecommenderService = (*Service)(nil)

// NewService creates a self-hosted recommender with OpenAI-compatible embeddings.
// The config is validated and normalized before use.
//
// Returns ai.RecommenderService interface (not *Service) to enforce abstraction.
func NewService(config *ai.Config) (ai.RecommenderService, error) {
	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}
	return newService(config, embedder)
}

// NewServiceWithEmbedder creates a self-hosted recommender on top of an
// existing embedder.
func NewServiceWithEmbedder(config *ai.Config, embedder ai.Embedder) (ai.RecommenderService, error) {
	return newService(config, embedder)
}

func newService(config *ai.Config, embedder ai.Embedder) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	return &Service{
		config:   config,
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-recommender"),
	}, nil
}

// IngestJob embeds the listing document with contact details removed.
func (s *Service) IngestJob(ctx context.Context, doc ai.JobDocument) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	vector, err := s.embedder.EmbedText(ctx, cleanText(doc.Description))
	if err != nil {
		return nil, fmt.Errorf("ingest job %d: %w", doc.ID, err)
	}
	if isZero(vector) {
		return nil, fmt.Errorf("ingest job %d: %w", doc.ID, ai.ErrEmptyEmbedding)
	}
	return normalizeVector(vector), nil
}

// IngestUser embeds every skill separately and returns the normalized mean.
// A profile without skills has no embedding.
func (s *Service) IngestUser(ctx context.Context, doc ai.UserDocument) ([]float32, error) {
	skills := make([]string, 0, len(doc.Skills))
	for _, skill := range doc.Skills {
		if skill = strings.TrimSpace(skill); skill != "" {
			skills = append(skills, skill)
		}
	}
	if len(skills) == 0 {
		return nil, fmt.Errorf("ingest user %d: no skills: %w", doc.ID, ai.ErrEmptyEmbedding)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	vectors, err := s.embedder.EmbedTexts(ctx, skills)
	if err != nil {
		return nil, fmt.Errorf("ingest user %d: %w", doc.ID, err)
	}
	if len(vectors) != len(skills) {
		return nil, fmt.Errorf("ingest user %d: expected %d embeddings, got %d: %w",
			doc.ID, len(skills), len(vectors), ai.ErrMalformedResponse)
	}

	mean := meanVector(vectors)
	if mean == nil {
		return nil, fmt.Errorf("ingest user %d: embedding dimensions differ: %w", doc.ID, ai.ErrMalformedResponse)
	}
	if isZero(mean) {
		return nil, fmt.Errorf("ingest user %d: %w", doc.ID, ai.ErrEmptyEmbedding)
	}
	return normalizeVector(mean), nil
}

// Recommend ranks candidates by cosine similarity to the user vector, best
// first, with ties broken by job ID ascending. Candidates whose vector length
// differs from the user vector are skipped.
func (s *Service) Recommend(ctx context.Context, req ai.RecommendRequest) ([]ai.Recommendation, error) {
	if len(req.JobIDs) != len(req.JobEmbeddings) {
		return nil, ai.ErrCandidateMismatch
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.config.TopK
	}

	results := make([]ai.Recommendation, 0, len(req.JobIDs))
	skipped := 0
	for i, id := range req.JobIDs {
		score, ok := cosineSimilarity(req.UserEmbedding, req.JobEmbeddings[i])
		if !ok {
			skipped++
			continue
		}
		results = append(results, ai.Recommendation{JobID: id, Score: score})
	}
	if skipped > 0 {
		s.logger.Debug("skipped candidates with mismatched dimensions", "skipped", skipped, "userID", req.UserID)
	}

	slices.SortFunc(results, func(a, b ai.Recommendation) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.JobID, b.JobID)
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Close releases resources held by the service.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (s *Service) Close() error {
	s.logger.Debug("closing OpenAI recommender")
	return nil
}
