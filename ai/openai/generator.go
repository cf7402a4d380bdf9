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


package openai

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/poiesic/pdfqa/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrEmptyResponse indicates the model returned no text.
var ErrEmptyResponse = errors.New("openai returned an empty response")

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	name        string
	client      llms.Model
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
func newGenerator(backend ai.Backend) (*Generator, error) {
	if backend.Host == "" || backend.Model == "" {
		return nil, errors.New("openai: host and model are required")
	}
	token := backend.Token
	if token == "" {
		token = "none"
	}
	timeout := backend.Timeout
	if timeout <= 0 {
		timeout = ai.DefaultOpenAITimeout
	}

	host := backend.Host
	if !strings.HasSuffix(host, "/v1") {
		host = strings.TrimSuffix(host, "/") + "/v1"
	}

	client, err := openai.New(
		openai.WithBaseURL(host),
		openai.WithToken(token),
		openai.WithModel(backend.Model),
		openai.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		name:        backend.DisplayName(),
		client:      client,
		maxTokens:   backend.MaxTokens,
		temperature: backend.Temperature,
		logger:      slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a chat generator for backend.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(backend ai.Backend) (ai.Generator, error) {
	return newGenerator(backend)
}

// Name implements ai.Generator.
func (g *Generator) Name() string { return g.name }

// Generate sends prompt as a single user message.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	opts := []llms.CallOption{llms.WithTemperature(g.temperature)}
	if g.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(g.maxTokens))
	}

	text, err := llms.GenerateFromSinglePrompt(ctx, g.client, prompt, opts...)
	if err != nil {
		g.logger.Error("failed to generate content", "err", err)
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
