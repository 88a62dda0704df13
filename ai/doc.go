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


// Package ai defines the contract between the matching engine and the
// external embedding/recommendation service.
//
// The engine depends only on RecommenderService, a narrow interface with
// three operations:
//
//   - IngestJob: embed a listing document
//   - IngestUser: embed a profile's skills
//   - Recommend: rank candidate listings against a user vector
//
// # Implementation Packages
//
//   - ai/remote: JSON-over-HTTP client for the recommender service
//   - ai/openai: self-hosted implementation on an OpenAI-compatible
//     embedding endpoint with local cosine ranking
//   - ai/mock: test double for unit tests
//
// Public constructors return the RecommenderService interface. The mock
// constructor returns its concrete type so tests can inject behavior and
// read call counts.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithHost("http://recommender:8000"))
//	service, err := remote.NewClient(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer service.Close()
//
//	vector, err := service.IngestUser(ctx, ai.UserDocument{ID: 7, Skills: []string{"Go"}})
//
// # Failure Semantics
//
// The service is assumed unreliable. Every call is bounded by Config.Timeout
// and callers in the engine degrade to "no vector" or "no recommendations"
// instead of surfacing errors.
package ai
