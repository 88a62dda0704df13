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


// Package openai provides a self-hosted ai.RecommenderService on top of an
// OpenAI-compatible embeddings API.
//
// The langchaingo library talks to OpenAI or a compatible server such as
// Ollama, LocalAI or vLLM. Listing vectors embed the listing document; profile
// vectors average the embeddings of the individual skills. Recommendations
// are ranked locally by cosine similarity.
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithProvider(ai.ProviderOpenAI),
//	    ai.WithHost("http://localhost:11434"), // /v1 added automatically
//	    ai.WithEmbeddingModel("embeddinggemma"),
//	)
//
//	service, err := openai.NewService(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer service.Close()
//
//	vector, err := service.IngestJob(ctx, ai.JobDocument{ID: 1, Description: doc})
package openai
