package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/poiesic/pdfqa/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *Generator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewGenerator(ai.Backend{Kind: ai.BackendOllama, Host: srv.URL + "/", Model: "qwen2.5:0.5b"})
	require.NoError(t, err)
	return g
}

func TestNewGenerator_Validation(t *testing.T) {
	_, err := NewGenerator(ai.Backend{Kind: ai.BackendOllama, Model: "m"})
	assert.Error(t, err)

	_, err = NewGenerator(ai.Backend{Kind: ai.BackendOllama, Host: "http://localhost:11434"})
	assert.Error(t, err)

	g, err := NewGenerator(ai.Backend{Kind: ai.BackendOllama, Name: "local", Host: "http://localhost:11434", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "local", g.Name())
	assert.Equal(t, ai.DefaultOllamaTimeout, g.client.Timeout)
}

func TestGenerator_Generate(t *testing.T) {
	var got generateRequest
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "  Paris.\n", "done": true})
	})

	text, err := g.Generate(context.Background(), "What is the capital?")

	require.NoError(t, err)
	assert.Equal(t, "Paris.", text)
	assert.Equal(t, "qwen2.5:0.5b", got.Model)
	assert.Equal(t, "What is the capital?", got.Prompt)
	assert.False(t, got.Stream)
}

func TestGenerator_GenerateFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{not json"))
			},
		},
		{
			name: "error field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error":"model 'x' not found"}`))
			},
		},
		{
			name: "empty response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"response":"   "}`))
			},
			wantErr: ErrEmptyResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator(t, tt.handler)
			text, err := g.Generate(context.Background(), "p")
			require.Error(t, err)
			assert.Empty(t, text)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestGenerator_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	g, err := NewGenerator(ai.Backend{Kind: ai.BackendOllama, Host: srv.URL, Model: "m", Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "p")
	assert.Error(t, err)
}

func TestGenerator_Ping(t *testing.T) {
	t.Run("model available", func(t *testing.T) {
		g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/tags", r.URL.Path)
			_, _ = w.Write([]byte(`{"models":[{"name":"llama3:latest"},{"name":"qwen2.5:0.5b"}]}`))
		})
		assert.NoError(t, g.Ping(context.Background()))
	})

	t.Run("model missing", func(t *testing.T) {
		g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"models":[{"name":"llama3:latest"}]}`))
		})
		err := g.Ping(context.Background())
		assert.ErrorIs(t, err, ErrModelNotFound)
		assert.Contains(t, err.Error(), "llama3:latest")
	})

	t.Run("server down", func(t *testing.T) {
		g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		assert.Error(t, g.Ping(context.Background()))
	})
}
