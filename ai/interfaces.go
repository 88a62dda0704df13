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


package ai

import "context"

// RecommenderService is the narrow contract the engine has with the external
// embedding and recommendation service. Every call is synchronous and
// bounded by the configured timeout; callers treat any error as "no vector"
// or "no recommendations".
// Implementations must be thread-safe for concurrent use.
type RecommenderService interface {
	// IngestJob computes the embedding of a listing document.
	IngestJob(ctx context.Context, doc JobDocument) ([]float32, error)

	// IngestUser computes the embedding of a profile's skill set.
	IngestUser(ctx context.Context, doc UserDocument) ([]float32, error)

	// Recommend ranks candidate listings against a user vector and returns at
	// most TopK results, best first. The engine does not re-rank them.
	Recommend(ctx context.Context, req RecommendRequest) ([]Recommendation, error)

	// Close releases resources held by the service.
	Close() error
}

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
