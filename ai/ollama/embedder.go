package ollama

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/poiesic/pdfqa/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Embedder implements ai.Embedder using Ollama embedding models.
type Embedder struct {
	embedder embeddings.Embedder
	model    string
	logger   *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder creates an embedder from the embedding settings in config.
func NewEmbedder(config *ai.Config) (*Embedder, error) {
	if config.EmbeddingHost == "" || config.EmbeddingModel == "" {
		return nil, errors.New("ollama: embedding host and model are required")
	}

	client, err := ollama.New(
		ollama.WithServerURL(strings.TrimSuffix(config.EmbeddingHost, "/")),
		ollama.WithModel(config.EmbeddingModel),
		ollama.WithHTTPClient(&http.Client{Timeout: config.EmbeddingTimeout}),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		model:    config.EmbeddingModel,
		logger:   slog.Default().With("component", "ollama-embedder"),
	}, nil
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}
	return vec, nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vecs, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	return vecs, nil
}

// Model returns the embedding model name.
func (e *Embedder) Model() string { return e.model }
