// Package config loads pdfqa settings from a YAML file, an optional .env file
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/pdfqa/ai"
	"github.com/poiesic/pdfqa/chunking"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxUploadMB    int      `yaml:"max_upload_mb"`
}

// ChunkingConfig configures how extracted text is split.
type ChunkingConfig struct {
	Strategy      string `yaml:"strategy"`
	Size          int    `yaml:"size"`
	Overlap       int    `yaml:"overlap"`
	MinTextLength int    `yaml:"min_text_length"`
}

// RetrievalConfig configures the query side of the index.
type RetrievalConfig struct {
	TopK   int  `yaml:"top_k"`
	Dedupe bool `yaml:"dedupe"`
}

// EmbeddingConfig configures the embedding client and the build pool.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"`
	Host        string `yaml:"host"`
	Model       string `yaml:"model"`
	Token       string `yaml:"token"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
	Workers     int    `yaml:"workers"`
}

// BackendConfig configures one generation backend.
type BackendConfig struct {
	Kind        string  `yaml:"kind"`
	Name        string  `yaml:"name,omitempty"`
	Host        string  `yaml:"host"`
	Model       string  `yaml:"model"`
	Token       string  `yaml:"token,omitempty"`
	TimeoutSecs int     `yaml:"timeout_secs"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
}

// RedisConfig enables the cross-process build lock when Addr is set.
type RedisConfig struct {
	Addr   string `yaml:"addr"`
	Prefix string `yaml:"prefix,omitempty"`
}

// Config is the root application configuration.
type Config struct {
	DataDir     string `yaml:"data_dir"`
	UploadDir   string `yaml:"upload_dir"`
	IndexDir    string `yaml:"index_dir"`
	RegistryDir string `yaml:"registry_dir"`

	Server    ServerConfig    `yaml:"server"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Backends  []BackendConfig `yaml:"backends"`
	Redis     RedisConfig     `yaml:"redis"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	aiCfg := ai.DefaultConfig()
	cfg := &Config{
		DataDir: "data",
		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"*"},
			MaxUploadMB:    50,
		},
		Chunking: ChunkingConfig{
			Strategy:      chunking.StrategyWindow,
			Size:          1000,
			Overlap:       200,
			MinTextLength: 50,
		},
		Retrieval: RetrievalConfig{TopK: 12},
		Embedding: EmbeddingConfig{
			Provider:    aiCfg.EmbeddingProvider,
			Host:        aiCfg.EmbeddingHost,
			Model:       aiCfg.EmbeddingModel,
			TimeoutSecs: int(aiCfg.EmbeddingTimeout / time.Second),
			BatchSize:   32,
		},
	}
	for _, b := range aiCfg.Backends {
		cfg.Backends = append(cfg.Backends, BackendConfig{
			Kind:        string(b.Kind),
			Name:        b.Name,
			Host:        b.Host,
			Model:       b.Model,
			TimeoutSecs: int(b.Timeout / time.Second),
			MaxTokens:   b.MaxTokens,
			Temperature: b.Temperature,
		})
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads path, applies defaults and environment overrides, and validates
// the result. An empty path yields the defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		cfg.fillFrom(Default())
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv loads .env style files into the process environment without
// overriding variables that are already set. With no arguments it reads
// ./.env and ignores its absence.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
	}
	return godotenv.Load(files...)
}

// Save writes cfg as YAML, creating parent directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// fillFrom copies sections the file left out entirely.
func (c *Config) fillFrom(d *Config) {
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.AllowedOrigins == nil {
		c.Server.AllowedOrigins = d.Server.AllowedOrigins
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = d.Server.MaxUploadMB
	}
	if c.Chunking.Strategy == "" {
		c.Chunking.Strategy = d.Chunking.Strategy
	}
	if c.Chunking.Size == 0 {
		c.Chunking.Size = d.Chunking.Size
		if c.Chunking.Overlap == 0 {
			c.Chunking.Overlap = d.Chunking.Overlap
		}
	}
	if c.Chunking.MinTextLength == 0 {
		c.Chunking.MinTextLength = d.Chunking.MinTextLength
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = d.Retrieval.TopK
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = d.Embedding.Provider
	}
	if c.Embedding.Host == "" && c.Embedding.Provider == d.Embedding.Provider {
		c.Embedding.Host = d.Embedding.Host
	}
	if c.Embedding.Model == "" && c.Embedding.Provider == d.Embedding.Provider {
		c.Embedding.Model = d.Embedding.Model
	}
	if c.Embedding.TimeoutSecs == 0 {
		c.Embedding.TimeoutSecs = d.Embedding.TimeoutSecs
	}
	if c.Embedding.BatchSize == 0 {
		c.Embedding.BatchSize = d.Embedding.BatchSize
	}
	if len(c.Backends) == 0 {
		c.Backends = d.Backends
	}
}

// applyDefaults derives the directory layout from DataDir.
func (c *Config) applyDefaults() {
	if c.UploadDir == "" {
		c.UploadDir = filepath.Join(c.DataDir, "uploads")
	}
	if c.IndexDir == "" {
		c.IndexDir = filepath.Join(c.DataDir, "index")
	}
	if c.RegistryDir == "" {
		c.RegistryDir = filepath.Join(c.DataDir, "registry")
	}
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("PDFQA_DATA_DIR"); v != "" {
		c.DataDir = v
		c.UploadDir, c.IndexDir, c.RegistryDir = "", "", ""
	}
	setString(&c.Server.Addr, "PDFQA_ADDR")
	setString(&c.Chunking.Strategy, "PDFQA_CHUNK_STRATEGY")
	setInt(&c.Chunking.Size, "PDFQA_CHUNK_SIZE")
	setInt(&c.Chunking.Overlap, "PDFQA_CHUNK_OVERLAP")
	setInt(&c.Retrieval.TopK, "PDFQA_TOP_K")
	if v := os.Getenv("PDFQA_DEDUPE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Retrieval.Dedupe = b
		}
	}
	setString(&c.Embedding.Provider, "PDFQA_EMBEDDING_PROVIDER")
	setString(&c.Embedding.Host, "PDFQA_EMBEDDING_HOST")
	setString(&c.Embedding.Model, "PDFQA_EMBEDDING_MODEL")
	setString(&c.Embedding.Token, "PDFQA_EMBEDDING_TOKEN")
	setString(&c.Redis.Addr, "PDFQA_REDIS_ADDR")

	if host := os.Getenv("OLLAMA_BASE_URL"); host != "" {
		if c.Embedding.Provider == ai.EmbeddingProviderOllama && os.Getenv("PDFQA_EMBEDDING_HOST") == "" {
			c.Embedding.Host = host
		}
		for i := range c.Backends {
			if c.Backends[i].Kind == string(ai.BackendOllama) {
				c.Backends[i].Host = host
			}
		}
	}
	if token := os.Getenv("HUGGINGFACE_API_TOKEN"); token != "" {
		for i := range c.Backends {
			if c.Backends[i].Kind == string(ai.BackendHuggingFace) && c.Backends[i].Token == "" {
				c.Backends[i].Token = token
			}
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

// Validate checks the settings that would otherwise fail deep inside a pipeline.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir is required", ErrInvalidConfig)
	}
	switch c.Chunking.Strategy {
	case chunking.StrategyWindow, chunking.StrategyRecursive:
	default:
		return fmt.Errorf("%w: unknown chunking strategy %q", ErrInvalidConfig, c.Chunking.Strategy)
	}
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunking.size must be positive", ErrInvalidConfig)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("%w: chunking.overlap must be in [0, size)", ErrInvalidConfig)
	}
	if c.Chunking.MinTextLength < 0 {
		return fmt.Errorf("%w: chunking.min_text_length cannot be negative", ErrInvalidConfig)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval.top_k must be positive", ErrInvalidConfig)
	}
	if c.Embedding.BatchSize < 0 || c.Embedding.Workers < 0 {
		return fmt.Errorf("%w: embedding batch_size and workers cannot be negative", ErrInvalidConfig)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("%w: server.max_upload_mb must be positive", ErrInvalidConfig)
	}
	if err := c.AIConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// AIConfig converts the embedding and backend sections into an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	cfg := &ai.Config{
		EmbeddingProvider: c.Embedding.Provider,
		EmbeddingHost:     c.Embedding.Host,
		EmbeddingModel:    c.Embedding.Model,
		EmbeddingToken:    c.Embedding.Token,
		EmbeddingTimeout:  time.Duration(c.Embedding.TimeoutSecs) * time.Second,
	}
	for _, b := range c.Backends {
		cfg.Backends = append(cfg.Backends, ai.Backend{
			Kind:        ai.BackendKind(b.Kind),
			Name:        b.Name,
			Host:        b.Host,
			Model:       b.Model,
			Token:       b.Token,
			Timeout:     time.Duration(b.TimeoutSecs) * time.Second,
			MaxTokens:   b.MaxTokens,
			Temperature: b.Temperature,
		})
	}
	cfg.Normalize()
	return cfg
}

// EnsureDirs creates the data, upload, index and registry directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.UploadDir, c.IndexDir, c.RegistryDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// MaxUploadBytes is Server.MaxUploadMB in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}
