package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, EmbeddingProviderOllama, cfg.EmbeddingProvider)
	assert.Equal(t, "http://localhost:11434", cfg.EmbeddingHost)
	assert.Equal(t, "all-minilm", cfg.EmbeddingModel)
	assert.Equal(t, DefaultEmbeddingTimeout, cfg.EmbeddingTimeout)

	require.Len(t, cfg.Backends, 2)
	assert.Equal(t, BackendOllama, cfg.Backends[0].Kind)
	assert.Equal(t, "qwen2.5:0.5b", cfg.Backends[0].Model)
	assert.Equal(t, 180*time.Second, cfg.Backends[0].Timeout)
	assert.Equal(t, BackendHuggingFace, cfg.Backends[1].Kind)
	assert.Equal(t, 512, cfg.Backends[1].MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.Backends[1].Timeout)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://gpu:11434"))

		assert.Equal(t, "http://gpu:11434", cfg.EmbeddingHost)
		assert.Equal(t, "http://gpu:11434", cfg.Backends[0].Host)
		assert.Equal(t, "https://api-inference.huggingface.co", cfg.Backends[1].Host)
	})

	t.Run("with embedding options", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingProvider(EmbeddingProviderOpenAI),
			WithEmbeddingHost("https://api.openai.com"),
			WithEmbeddingModel("text-embedding-3-small"),
			WithEmbeddingToken("sk-test"),
			WithEmbeddingTimeout(5*time.Second),
		)

		assert.Equal(t, EmbeddingProviderOpenAI, cfg.EmbeddingProvider)
		assert.Equal(t, "https://api.openai.com", cfg.EmbeddingHost)
		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "sk-test", cfg.EmbeddingToken)
		assert.Equal(t, 5*time.Second, cfg.EmbeddingTimeout)
	})

	t.Run("with backends", func(t *testing.T) {
		cfg := NewConfig(WithBackends(Backend{Kind: BackendOpenAI, Host: "http://vllm:8000", Model: "llama"}))

		require.Len(t, cfg.Backends, 1)
		assert.Equal(t, BackendOpenAI, cfg.Backends[0].Kind)
	})
}

func TestConfig_Normalize(t *testing.T) {
	tests := []struct {
		name        string
		provider    string
		host        string
		wantHost    string
		backend     Backend
		wantBackend string
		wantTimeout time.Duration
	}{
		{
			name:        "ollama trims trailing slash",
			provider:    EmbeddingProviderOllama,
			host:        "http://localhost:11434/",
			wantHost:    "http://localhost:11434",
			backend:     Backend{Kind: BackendOllama, Host: "http://localhost:11434/"},
			wantBackend: "http://localhost:11434",
			wantTimeout: DefaultOllamaTimeout,
		},
		{
			name:        "openai adds v1",
			provider:    EmbeddingProviderOpenAI,
			host:        "http://localhost:8080",
			wantHost:    "http://localhost:8080/v1",
			backend:     Backend{Kind: BackendOpenAI, Host: "http://localhost:8080/"},
			wantBackend: "http://localhost:8080/v1",
			wantTimeout: DefaultOpenAITimeout,
		},
		{
			name:        "openai keeps existing v1",
			provider:    EmbeddingProviderOpenAI,
			host:        "http://localhost:8080/v1",
			wantHost:    "http://localhost:8080/v1",
			backend:     Backend{Kind: BackendOpenAI, Host: "http://localhost:8080/v1", Timeout: time.Second},
			wantBackend: "http://localhost:8080/v1",
			wantTimeout: time.Second,
		},
		{
			name:        "huggingface defaults",
			provider:    "",
			host:        "http://localhost:11434",
			wantHost:    "http://localhost:11434",
			backend:     Backend{Kind: BackendHuggingFace, Host: "https://hf.example/"},
			wantBackend: "https://hf.example",
			wantTimeout: DefaultHuggingFaceTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				EmbeddingProvider: tt.provider,
				EmbeddingHost:     tt.host,
				Backends:          []Backend{tt.backend},
			}
			cfg.Normalize()

			assert.Equal(t, tt.wantHost, cfg.EmbeddingHost)
			assert.Equal(t, tt.wantBackend, cfg.Backends[0].Host)
			assert.Equal(t, tt.wantTimeout, cfg.Backends[0].Timeout)
			assert.NotEmpty(t, cfg.EmbeddingProvider)
			assert.Equal(t, DefaultEmbeddingTimeout, cfg.EmbeddingTimeout)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return DefaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "unknown embedding provider", mutate: func(c *Config) { c.EmbeddingProvider = "cohere" }, wantErr: "unknown EmbeddingProvider"},
		{name: "missing embedding host", mutate: func(c *Config) { c.EmbeddingHost = "" }, wantErr: "EmbeddingHost is required"},
		{name: "missing embedding model", mutate: func(c *Config) { c.EmbeddingModel = "" }, wantErr: "EmbeddingModel is required"},
		{name: "no backends", mutate: func(c *Config) { c.Backends = nil }, wantErr: "at least one generation backend"},
		{name: "unknown backend kind", mutate: func(c *Config) { c.Backends[0].Kind = "bard" }, wantErr: "unknown kind"},
		{name: "backend without host", mutate: func(c *Config) { c.Backends[0].Host = "" }, wantErr: "Host is required"},
		{name: "backend without model", mutate: func(c *Config) { c.Backends[1].Model = "" }, wantErr: "(huggingface): Model is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_EnabledBackends(t *testing.T) {
	cfg := DefaultConfig()

	enabled := cfg.EnabledBackends()
	require.Len(t, enabled, 1, "huggingface without token is disabled")
	assert.Equal(t, BackendOllama, enabled[0].Kind)

	cfg.Backends[1].Token = "hf_token"
	assert.Len(t, cfg.EnabledBackends(), 2)
}

func TestBackend_DisplayName(t *testing.T) {
	assert.Equal(t, "ollama", Backend{Kind: BackendOllama}.DisplayName())
	assert.Equal(t, "local-qwen", Backend{Kind: BackendOllama, Name: "local-qwen"}.DisplayName())
}
