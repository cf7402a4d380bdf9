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


// Package ai provides abstractions for the AI services used by pdfqa.
//
// The package defines the interfaces the pipelines depend on:
//
//   - Embedder: Generates vector embeddings from text
//   - Generator: One text generation backend
//   - GenerationClient: Produces an answer from an ordered set of backends
//   - AIProvider: Aggregates the services for initialization and shutdown
//
// # Implementation Packages
//
//   - ai/ollama: Native Ollama generation API and Ollama embeddings
//   - ai/huggingface: Hugging Face Inference API generation
//   - ai/openai: OpenAI-compatible embeddings and chat generation
//   - ai/fallback: GenerationClient that tries backends in order
//   - ai/provider: Builds an AIProvider from a Config
//   - ai/mock: Test doubles for unit testing without external services
//
// Public constructors return interface types. Mock constructors return
// concrete types so tests can inject behavior and assert call counts.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	p, err := provider.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	vec, err := p.Embedder().EmbedText(ctx, "Hello world")
//	answer, backend, err := p.Client().Complete(ctx, prompt)
package ai
