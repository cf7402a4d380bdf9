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
	"fmt"
	"strings"
	"time"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingProvider selects the embedding client: "ollama" or "openai".
	// Default: "ollama"
	EmbeddingProvider string

	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434" for Ollama, "https://api.openai.com/v1" for OpenAI
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "all-minilm", "text-embedding-3-small"
	EmbeddingModel string

	// EmbeddingToken authenticates against hosted embedding APIs.
	EmbeddingToken string

	// EmbeddingTimeout bounds each embedding request.
	EmbeddingTimeout time.Duration

	// Backends lists the generation backends in fallback order.
	Backends []Backend
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingProvider sets the embedding client implementation.
func WithEmbeddingProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingProvider = provider
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithEmbeddingToken sets the embedding API token.
func WithEmbeddingToken(token string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingToken = token
	}
}

// WithEmbeddingTimeout sets the per-request embedding timeout.
func WithEmbeddingTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.EmbeddingTimeout = d
	}
}

// WithBackends replaces the generation backends.
func WithBackends(backends ...Backend) ConfigOption {
	return func(c *Config) {
		c.Backends = backends
	}
}

// WithHost points the embedding service and every Ollama backend at the same server.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		for i := range c.Backends {
			if c.Backends[i].Kind == BackendOllama {
				c.Backends[i].Host = host
			}
		}
	}
}

// DefaultConfig returns a Config for a local Ollama server with the hosted
// Hugging Face Inference API as a secondary backend. The secondary stays
// disabled until a token is supplied.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434"
	return &Config{
		EmbeddingProvider: EmbeddingProviderOllama,
		EmbeddingHost:     defaultHost,
		EmbeddingModel:    "all-minilm",
		EmbeddingTimeout:  DefaultEmbeddingTimeout,
		Backends: []Backend{
			{
				Kind:    BackendOllama,
				Host:    defaultHost,
				Model:   "qwen2.5:0.5b",
				Timeout: DefaultOllamaTimeout,
			},
			{
				Kind:        BackendHuggingFace,
				Host:        "https://api-inference.huggingface.co",
				Model:       "mistralai/Mistral-7B-Instruct-v0.2",
				Timeout:     DefaultHuggingFaceTimeout,
				MaxTokens:   512,
				Temperature: 0.7,
			},
		},
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://gpu-box:11434"),
//	    WithEmbeddingModel("nomic-embed-text"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// OpenAI-compatible hosts get a /v1 suffix, Ollama and Hugging Face hosts lose
// any trailing slash, and unset timeouts get their per-kind defaults.
func (c *Config) Normalize() {
	if c.EmbeddingProvider == "" {
		c.EmbeddingProvider = EmbeddingProviderOllama
	}
	if c.EmbeddingProvider == EmbeddingProviderOpenAI {
		c.EmbeddingHost = withV1(c.EmbeddingHost)
	} else {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
	}
	if c.EmbeddingTimeout <= 0 {
		c.EmbeddingTimeout = DefaultEmbeddingTimeout
	}

	for i := range c.Backends {
		b := &c.Backends[i]
		switch b.Kind {
		case BackendOpenAI:
			b.Host = withV1(b.Host)
			if b.Timeout <= 0 {
				b.Timeout = DefaultOpenAITimeout
			}
		case BackendHuggingFace:
			b.Host = strings.TrimSuffix(b.Host, "/")
			if b.Timeout <= 0 {
				b.Timeout = DefaultHuggingFaceTimeout
			}
			if b.MaxTokens <= 0 {
				b.MaxTokens = 512
			}
		default:
			b.Host = strings.TrimSuffix(b.Host, "/")
			if b.Timeout <= 0 {
				b.Timeout = DefaultOllamaTimeout
			}
		}
	}
}

func withV1(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.EmbeddingProvider {
	case EmbeddingProviderOllama, EmbeddingProviderOpenAI:
	default:
		return fmt.Errorf("ai config: unknown EmbeddingProvider %q", c.EmbeddingProvider)
	}
	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if len(c.Backends) == 0 {
		return errors.New("ai config: at least one generation backend is required")
	}
	for i, b := range c.Backends {
		switch b.Kind {
		case BackendOllama, BackendHuggingFace, BackendOpenAI:
		default:
			return fmt.Errorf("ai config: backend %d: unknown kind %q", i, b.Kind)
		}
		if b.Host == "" {
			return fmt.Errorf("ai config: backend %d (%s): Host is required", i, b.DisplayName())
		}
		if b.Model == "" {
			return fmt.Errorf("ai config: backend %d (%s): Model is required", i, b.DisplayName())
		}
	}
	return nil
}

// EnabledBackends returns the backends that can be called, in order.
func (c *Config) EnabledBackends() []Backend {
	out := make([]Backend, 0, len(c.Backends))
	for _, b := range c.Backends {
		if b.Enabled() {
			out = append(out, b)
		}
	}
	return out
}
