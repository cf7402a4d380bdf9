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


// Package provider assembles an ai.AIProvider from an ai.Config.
package provider

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/pdfqa/ai"
	"github.com/poiesic/pdfqa/ai/fallback"
	"github.com/poiesic/pdfqa/ai/huggingface"
	"github.com/poiesic/pdfqa/ai/ollama"
	"github.com/poiesic/pdfqa/ai/openai"
)

// ErrNoEnabledBackends is returned when every configured backend is disabled.
var ErrNoEnabledBackends = errors.New("no enabled generation backends")

// Provider implements ai.AIProvider over the configured embedder and backends.
type Provider struct {
	config     *ai.Config
	embedder   ai.Embedder
	generators []ai.Generator
	client     *fallback.Client
	logger     *slog.Logger
}

// New validates config and creates the embedder, one generator per enabled
// backend and a fallback client over them.
//
// Returns ai.AIProvider interface to enforce abstraction.
func New(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	logger := slog.Default().With("component", "ai-provider")

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	var generators []ai.Generator
	for _, b := range config.Backends {
		if !b.Enabled() {
			logger.Info("generation backend disabled", "backend", b.DisplayName(), "reason", "no token")
			continue
		}
		g, err := newGenerator(b)
		if err != nil {
			return nil, fmt.Errorf("failed to create backend %s: %w", b.DisplayName(), err)
		}
		generators = append(generators, g)
	}
	if len(generators) == 0 {
		return nil, ErrNoEnabledBackends
	}

	p := &Provider{
		config:     config,
		embedder:   embedder,
		generators: generators,
		logger:     logger,
	}
	p.client = fallback.New(generators)
	logger.Debug("provider ready", "embedder", embedder.Model(), "backends", p.client.Backends())
	return p, nil
}

func newEmbedder(config *ai.Config) (ai.Embedder, error) {
	if config.EmbeddingProvider == ai.EmbeddingProviderOpenAI {
		return openai.NewEmbedder(config)
	}
	return ollama.NewEmbedder(config)
}

func newGenerator(b ai.Backend) (ai.Generator, error) {
	switch b.Kind {
	case ai.BackendOllama:
		return ollama.NewGenerator(b)
	case ai.BackendHuggingFace:
		return huggingface.NewGenerator(b)
	case ai.BackendOpenAI:
		return openai.NewGenerator(b)
	default:
		return nil, fmt.Errorf("unknown backend kind %q", b.Kind)
	}
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Client returns the fallback generation client.
func (p *Provider) Client() ai.GenerationClient {
	return p.client
}

// Generators returns the enabled backends in fallback order.
func (p *Provider) Generators() []ai.Generator {
	return p.generators
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing AI provider")
	return nil
}
