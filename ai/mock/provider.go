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
	"github.com/poiesic/pdfqa/ai"
	"github.com/poiesic/pdfqa/ai/fallback"
)

// MockProvider is a test double for ai.AIProvider.
// It aggregates a mock embedder and a fallback client over mock generators.
type MockProvider struct {
	embedder   *MockEmbedder
	generators []*MockGenerator
	client     *fallback.Client
}

// NewMockProvider creates a new mock provider with a mock embedder and a single
// mock generator named "mock".
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockGenerator() to access concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return NewMockProviderWithServices(NewMockEmbedder(), NewMockGenerator("mock"))
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// Generators are tried in the order given.
func NewMockProviderWithServices(embedder *MockEmbedder, generators ...*MockGenerator) *MockProvider {
	gens := make([]ai.Generator, len(generators))
	for i, g := range generators {
		gens[i] = g
	}
	return &MockProvider{
		embedder:   embedder,
		generators: generators,
		client:     fallback.New(gens),
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Client returns the fallback client over the mock generators.
func (p *MockProvider) Client() ai.GenerationClient {
	return p.client
}

// Generators returns the mock generators as ai.Generator values.
func (p *MockProvider) Generators() []ai.Generator {
	out := make([]ai.Generator, len(p.generators))
	for i, g := range p.generators {
		out[i] = g
	}
	return out
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockGenerator returns the i-th mock generator for test assertions.
func (p *MockProvider) GetMockGenerator(i int) *MockGenerator {
	return p.generators[i]
}
