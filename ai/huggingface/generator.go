// Package huggingface calls the hosted Hugging Face Inference API for text generation.
package huggingface

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

	"github.com/poiesic/pdfqa/ai"
)

var (
	// ErrTokenRequired indicates the backend was configured without an API token.
	ErrTokenRequired = errors.New("huggingface: API token is required")

	// ErrEmptyResponse indicates a 2xx reply without generated text.
	ErrEmptyResponse = errors.New("huggingface returned an empty response")

	// ErrUnexpectedPayload indicates a reply in neither of the documented shapes.
	ErrUnexpectedPayload = errors.New("huggingface returned an unexpected payload")
)

// Generator implements ai.Generator against {host}/models/{model}.
type Generator struct {
	name        string
	host        string
	model       string
	token       string
	maxTokens   int
	temperature float64
	client      *http.Client
	logger      *slog.Logger
}

var _ ai.Generator = (*Generator)(nil)

// NewGenerator creates a generator for backend. Token, Host and Model are required.
func NewGenerator(backend ai.Backend) (ai.Generator, error) {
	return newGenerator(backend)
}

func newGenerator(backend ai.Backend) (*Generator, error) {
	if backend.Token == "" {
		return nil, ErrTokenRequired
	}
	if backend.Host == "" || backend.Model == "" {
		return nil, errors.New("huggingface: host and model are required")
	}
	timeout := backend.Timeout
	if timeout <= 0 {
		timeout = ai.DefaultHuggingFaceTimeout
	}
	maxTokens := backend.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 512
	}
	return &Generator{
		name:        backend.DisplayName(),
		host:        strings.TrimSuffix(backend.Host, "/"),
		model:       backend.Model,
		token:       backend.Token,
		maxTokens:   maxTokens,
		temperature: backend.Temperature,
		client:      &http.Client{Timeout: timeout},
		logger:      slog.Default().With("component", "huggingface-generator"),
	}, nil
}

// Name implements ai.Generator.
func (g *Generator) Name() string { return g.name }

type parameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type inferenceRequest struct {
	Inputs     string     `json:"inputs"`
	Parameters parameters `json:"parameters"`
}

type generation struct {
	GeneratedText *string `json:"generated_text"`
	Error         string  `json:"error"`
}

// Generate implements ai.Generator.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(inferenceRequest{
		Inputs: prompt,
		Parameters: parameters{
			MaxNewTokens:   g.maxTokens,
			Temperature:    g.temperature,
			ReturnFullText: false,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.host+"/models/"+g.model, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	g.logger.Debug("calling huggingface", "model", g.model, "prompt_length", len(prompt))

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("huggingface request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("huggingface returned status %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}

	text, err := parseGeneration(respBody)
	if err != nil {
		return "", err
	}
	return text, nil
}

// parseGeneration accepts either [{"generated_text": ...}] or {"generated_text": ...}.
func parseGeneration(body []byte) (string, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return "", ErrEmptyResponse
	}

	var gen generation
	switch body[0] {
	case '[':
		var list []generation
		if err := json.Unmarshal(body, &list); err != nil {
			return "", fmt.Errorf("%w: %w", ErrUnexpectedPayload, err)
		}
		if len(list) == 0 {
			return "", ErrEmptyResponse
		}
		gen = list[0]
	case '{':
		if err := json.Unmarshal(body, &gen); err != nil {
			return "", fmt.Errorf("%w: %w", ErrUnexpectedPayload, err)
		}
	default:
		return "", ErrUnexpectedPayload
	}

	if gen.Error != "" {
		return "", fmt.Errorf("huggingface error: %s", gen.Error)
	}
	if gen.GeneratedText == nil {
		return "", ErrUnexpectedPayload
	}
	text := strings.TrimSpace(*gen.GeneratedText)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
