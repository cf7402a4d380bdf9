package provider

import (
	"testing"

	"github.com/poiesic/pdfqa/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	p, err := New(ai.DefaultConfig())
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, "all-minilm", p.Embedder().Model())
	require.Len(t, p.Generators(), 1, "huggingface stays disabled without a token")
	assert.Equal(t, "ollama", p.Generators()[0].Name())
	assert.NotNil(t, p.Client())
}

func TestNew_AllBackends(t *testing.T) {
	cfg := ai.NewConfig(
		ai.WithEmbeddingProvider(ai.EmbeddingProviderOpenAI),
		ai.WithEmbeddingHost("http://localhost:8080"),
		ai.WithEmbeddingModel("text-embedding-3-small"),
		ai.WithBackends(
			ai.Backend{Kind: ai.BackendOpenAI, Name: "vllm", Host: "http://localhost:8000", Model: "llama"},
			ai.Backend{Kind: ai.BackendOllama, Host: "http://localhost:11434", Model: "qwen2.5:0.5b"},
			ai.Backend{Kind: ai.BackendHuggingFace, Host: "https://hf", Model: "m", Token: "t"},
		),
	)

	p, err := New(cfg)
	require.NoError(t, err)

	names := make([]string, 0, 3)
	for _, g := range p.Generators() {
		names = append(names, g.Name())
	}
	assert.Equal(t, []string{"vllm", "ollama", "huggingface"}, names)
	assert.Equal(t, "text-embedding-3-small", p.Embedder().Model())
}

func TestNew_NoEnabledBackends(t *testing.T) {
	cfg := ai.NewConfig(ai.WithBackends(
		ai.Backend{Kind: ai.BackendHuggingFace, Host: "https://hf", Model: "m"},
	))

	_, err := New(cfg)
	assert.ErrorIs(t, err, ErrNoEnabledBackends)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := ai.NewConfig(ai.WithEmbeddingModel(""))

	_, err := New(cfg)
	assert.Error(t, err)
}
