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


package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/poiesic/pdfqa/ai"
)

// pingTimeout bounds the /api/tags readiness probe.
const pingTimeout = 2 * time.Second

var (
	// ErrEmptyResponse indicates a 2xx reply without generated text.
	ErrEmptyResponse = errors.New("ollama returned an empty response")

	// ErrModelNotFound indicates the server is up but the model has not been pulled.
	ErrModelNotFound = errors.New("ollama model not found")
)

// Generator implements ai.Generator against Ollama's native generate API.
type Generator struct {
	name   string
	host   string
	model  string
	client *http.Client
	logger *slog.Logger
}

var (
	_ ai.Generator     = (*Generator)(nil)
	_ ai.HealthChecker = (*Generator)(nil)
)

// NewGenerator creates a generator for backend. Host and Model are required.
//
// Returns the concrete type so callers can also use it as an ai.HealthChecker.
func NewGenerator(backend ai.Backend) (*Generator, error) {
	if backend.Host == "" {
		return nil, errors.New("ollama: host is required")
	}
	if backend.Model == "" {
		return nil, errors.New("ollama: model is required")
	}
	timeout := backend.Timeout
	if timeout <= 0 {
		timeout = ai.DefaultOllamaTimeout
	}
	return &Generator{
		name:   backend.DisplayName(),
		host:   strings.TrimSuffix(backend.Host, "/"),
		model:  backend.Model,
		client: &http.Client{Timeout: timeout},
		logger: slog.Default().With("component", "ollama-generator"),
	}, nil
}

// Name implements ai.Generator.
func (g *Generator) Name() string { return g.name }

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Generate implements ai.Generator.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Model: g.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	g.logger.Debug("calling ollama", "model", g.model, "prompt_length", len(prompt))
	start := time.Now()

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var out generateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama error: %s", out.Error)
	}

	text := strings.TrimSpace(out.Response)
	if text == "" {
		return "", ErrEmptyResponse
	}
	g.logger.Debug("ollama responded", "model", g.model, "elapsed", time.Since(start), "length", len(text))
	return text, nil
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Ping implements ai.HealthChecker. It fails when the server is unreachable
// or the configured model is not among the pulled models.
func (g *Generator) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.host+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama not reachable at %s: %w", g.host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("failed to parse tags: %w", err)
	}

	available := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		if strings.Contains(m.Name, g.model) {
			return nil
		}
		available = append(available, m.Name)
	}
	return fmt.Errorf("%w: %q (available: %s); run 'ollama pull %s'",
		ErrModelNotFound, g.model, strings.Join(available, ", "), g.model)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
