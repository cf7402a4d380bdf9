// Package ollama talks to a local Ollama server.
//
// Generator uses the native /api/generate endpoint with streaming disabled.
// Embedder goes through langchaingo's Ollama client.
package ollama
