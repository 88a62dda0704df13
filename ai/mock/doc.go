// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.RecommenderService and
// ai.Embedder for use in unit tests. The mocks allow tests to run without
// the external recommender and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	service := mock.NewMockService()
//
//	// Custom behavior injection
//	service.IngestUserFunc = func(ctx context.Context, doc ai.UserDocument) ([]float32, error) {
//	    return nil, errors.New("service down")
//	}
//
//	// Check call counts
//	count := service.IngestUserCalls()
//
// # Default Behavior
//
//   - MockService: deterministic vectors from the document text; Recommend
//     ranks candidates by dot product
//   - MockEmbedder: deterministic unit vectors based on text hash
package mock
