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

import (
	"errors"
	"strings"
	"time"
)

// Provider names accepted by Config.Provider.
const (
	// ProviderRemote talks to the external embedding/recommender service over HTTP.
	ProviderRemote = "remote"

	// ProviderOpenAI computes embeddings through an OpenAI-compatible endpoint
	// and ranks candidates locally.
	ProviderOpenAI = "openai"
)

// Config holds configuration for the recommender service.
type Config struct {
	// Provider selects the implementation: ProviderRemote or ProviderOpenAI.
	Provider string

	// Host is the base URL of the service.
	// Example: "http://localhost:8000" for the recommender service,
	// "http://localhost:11434/v1" for a local OpenAI-compatible server
	Host string

	// Timeout bounds every outbound call. A call that exceeds it fails.
	// Default: 10s
	Timeout time.Duration

	// TopK is the maximum number of recommendations requested per call.
	// Default: 100
	TopK int

	// EmbeddingModel is the model identifier used by ProviderOpenAI.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider sets the provider name.
func WithProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithHost sets the service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithTopK sets the recommendation bound.
func WithTopK(topK int) ConfigOption {
	return func(c *Config) {
		c.TopK = topK
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// DefaultConfig returns a Config pointing at a recommender service on localhost.
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderRemote,
		Host:           "http://localhost:8000",
		Timeout:        10 * time.Second,
		TopK:           100,
		EmbeddingModel: "embeddinggemma",
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://recommender:8000"),
//	    WithTimeout(5 * time.Second),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// Provider names are lower-cased and trailing slashes are removed from the
// host. OpenAI-compatible hosts get the /v1 suffix most servers (Ollama,
// LocalAI, vLLM) require.
func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.Host = strings.TrimSuffix(strings.TrimSpace(c.Host), "/")
	if c.Provider == ProviderOpenAI && c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = c.Host + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Provider != ProviderRemote && c.Provider != ProviderOpenAI {
		return errors.New("ai config: Provider must be \"remote\" or \"openai\"")
	}
	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	if c.Timeout <= 0 {
		return errors.New("ai config: Timeout must be positive")
	}
	if c.TopK < 1 {
		return errors.New("ai config: TopK must be at least 1")
	}
	if c.Provider == ProviderOpenAI && c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	return nil
}
