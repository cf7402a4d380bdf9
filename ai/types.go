package ai

import "time"

// BackendKind selects a generation backend implementation.
type BackendKind string

const (
	BackendOllama      BackendKind = "ollama"
	BackendHuggingFace BackendKind = "huggingface"
	BackendOpenAI      BackendKind = "openai"
)

// EmbeddingProvider selects the embedding implementation.
const (
	EmbeddingProviderOllama = "ollama"
	EmbeddingProviderOpenAI = "openai"
)

// Default timeouts applied when a backend leaves Timeout unset.
const (
	DefaultOllamaTimeout      = 180 * time.Second
	DefaultHuggingFaceTimeout = 30 * time.Second
	DefaultOpenAITimeout      = 60 * time.Second
	DefaultEmbeddingTimeout   = 30 * time.Second
)

// Backend configures one generation backend. Backends are tried in the order
// they appear in Config.Backends.
type Backend struct {
	Kind BackendKind

	// Name overrides the identifier reported with answers. Defaults to Kind.
	Name string

	Host  string
	Model string

	// Token authenticates against hosted APIs. A huggingface backend without
	// a token is skipped.
	Token string

	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// DisplayName returns Name, or Kind when Name is empty.
func (b Backend) DisplayName() string {
	if b.Name != "" {
		return b.Name
	}
	return string(b.Kind)
}

// Enabled reports whether the backend has what it needs to be called.
func (b Backend) Enabled() bool {
	if b.Kind == BackendHuggingFace && b.Token == "" {
		return false
	}
	return true
}
