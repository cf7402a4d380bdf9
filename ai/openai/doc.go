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


// Package openai provides AI service implementations using OpenAI-compatible APIs.
//
// This package uses the langchaingo library to communicate with OpenAI or
// OpenAI-compatible services (such as vLLM, LocalAI, or Ollama's /v1 endpoint).
//
// # Usage
//
//	cfg := ai.NewConfig(
//	    ai.WithEmbeddingProvider(ai.EmbeddingProviderOpenAI),
//	    ai.WithEmbeddingHost("https://api.openai.com"), // /v1 added automatically
//	    ai.WithEmbeddingModel("text-embedding-3-small"),
//	)
//	embedder, err := openai.NewEmbedder(cfg)
//
//	gen, err := openai.NewGenerator(ai.Backend{
//	    Kind:  ai.BackendOpenAI,
//	    Host:  "https://api.openai.com",
//	    Model: "gpt-4o-mini",
//	    Token: os.Getenv("OPENAI_API_KEY"),
//	})
//	answer, err := gen.Generate(ctx, prompt)
package openai
