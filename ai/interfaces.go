package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Model identifies the embedding model. Indexes built with one model
	// cannot be queried with another.
	Model() string
}

// Generator is a single text generation backend.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Name identifies the backend in logs and responses, e.g. "ollama".
	Name() string

	// Generate returns the completion for prompt. An empty completion is an error.
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerationClient produces an answer for a prompt from one of possibly several backends.
type GenerationClient interface {
	// Complete returns the generated text and the name of the backend that produced it.
	Complete(ctx context.Context, prompt string) (text string, backend string, err error)
}

// HealthChecker is implemented by backends that can report readiness.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Client returns the generation client wrapping every enabled backend.
	Client() GenerationClient

	// Generators returns the enabled backends in fallback order.
	Generators() []Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
