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


// Package pdfqa answers questions about a PDF using retrieval-augmented
// generation. Engine wires configuration, the document registry, the vector
// index and the generation backends into the ingest and ask pipelines.
package pdfqa

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/pdfqa/ai"
	"github.com/poiesic/pdfqa/ai/provider"
	"github.com/poiesic/pdfqa/chunking"
	"github.com/poiesic/pdfqa/config"
	"github.com/poiesic/pdfqa/core"
	"github.com/poiesic/pdfqa/index"
	"github.com/poiesic/pdfqa/ingestion"
	"github.com/poiesic/pdfqa/query"
	"github.com/poiesic/pdfqa/storage"
	"github.com/poiesic/pdfqa/storage/badger"
	"github.com/poiesic/pdfqa/storage/redis"
	goredis "github.com/redis/go-redis/v9"
)

// Engine owns every long-lived resource behind the ingest and ask pipelines.
type Engine struct {
	cfg         *config.Config
	backend     *badger.Backend
	registry    storage.DocumentRepository
	provider    ai.AIProvider
	store       *index.Store
	redisClient *goredis.Client
	ingest      *ingestion.Pipeline
	ask         *query.Pipeline
	logger      *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider  ai.AIProvider
	extractor ingestion.Extractor
	locker    storage.Locker
	progress  io.Writer
	logger    *slog.Logger
}

// WithProvider supplies the AI provider instead of building one from the configuration.
// The Engine takes ownership and closes it.
func WithProvider(p ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = p
	}
}

// WithExtractor replaces the PDF text extractor.
func WithExtractor(ex ingestion.Extractor) EngineOption {
	return func(o *engineOptions) {
		o.extractor = ex
	}
}

// WithLocker replaces the build lock chosen from the configuration.
func WithLocker(l storage.Locker) EngineOption {
	return func(o *engineOptions) {
		o.locker = l
	}
}

// WithProgress reports embedding progress to w during ingest.
func WithProgress(w io.Writer) EngineOption {
	return func(o *engineOptions) {
		o.progress = w
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine creates the data directories, opens the registry and builds both pipelines.
func NewEngine(ctx context.Context, cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := &engineOptions{
		extractor: ingestion.PDFExtractor{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg, logger: options.logger.With("component", "engine")}
	ok := false
	defer func() {
		if !ok {
			e.Close()
		}
	}()

	backend, err := badger.OpenBackend(cfg.RegistryDir, false)
	if err != nil {
		return nil, err
	}
	e.backend = backend

	if e.registry, err = badger.NewDocumentRepository(backend); err != nil {
		return nil, err
	}

	e.provider = options.provider
	if e.provider == nil {
		if e.provider, err = provider.New(cfg.AIConfig()); err != nil {
			return nil, err
		}
	}

	storeOpts := []index.Option{
		index.WithBatchSize(cfg.Embedding.BatchSize),
		index.WithLogger(options.logger),
	}
	if cfg.Embedding.Workers > 0 {
		storeOpts = append(storeOpts, index.WithWorkers(cfg.Embedding.Workers))
	}
	if options.progress != nil {
		storeOpts = append(storeOpts, index.WithProgress(options.progress))
	}
	if e.store, err = index.NewStore(cfg.IndexDir, e.provider.Embedder(), storeOpts...); err != nil {
		return nil, err
	}

	locker := options.locker
	if locker == nil {
		if locker, err = e.openLocker(ctx); err != nil {
			return nil, err
		}
	}

	splitter, err := chunking.New(cfg.Chunking.Strategy, cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, err
	}

	e.ingest, err = ingestion.NewPipeline(options.extractor, e.store,
		ingestion.WithSplitter(splitter),
		ingestion.WithLocker(locker),
		ingestion.WithRegistry(e.registry),
		ingestion.WithMinTextLength(cfg.Chunking.MinTextLength),
		ingestion.WithLogger(options.logger),
	)
	if err != nil {
		return nil, err
	}

	e.ask, err = query.NewPipeline(e.store, e.provider.Client(),
		query.WithTopK(cfg.Retrieval.TopK),
		query.WithDedupe(cfg.Retrieval.Dedupe),
		query.WithLogger(options.logger),
	)
	if err != nil {
		return nil, err
	}

	ok = true
	return e, nil
}

// openLocker returns a Redis lock when an address is configured and an
// in-process lock otherwise.
func (e *Engine) openLocker(ctx context.Context) (storage.Locker, error) {
	if e.cfg.Redis.Addr == "" {
		return storage.NewLocalLocker(), nil
	}
	client, err := redis.Dial(ctx, e.cfg.Redis.Addr)
	if err != nil {
		return nil, err
	}
	e.redisClient = client
	e.logger.Info("using redis build lock", "addr", e.cfg.Redis.Addr)
	return redis.NewLocker(client, e.cfg.Redis.Prefix), nil
}

// Ingest indexes the PDF at path, replacing any previous index.
func (e *Engine) Ingest(ctx context.Context, path string) core.State {
	return e.ingest.Ingest(ctx, path)
}

// Ask answers question from the current index.
func (e *Engine) Ask(ctx context.Context, question string) core.State {
	return e.ask.Ask(ctx, question)
}

// HasDocument reports whether an index is resident or persisted.
func (e *Engine) HasDocument(ctx context.Context) bool {
	return e.store.Current() != nil || e.store.Persisted()
}

// Documents lists ingested documents, most recent first. A limit of zero lists all.
func (e *Engine) Documents(ctx context.Context, limit int) ([]*core.Document, error) {
	return e.registry.ListDocuments(ctx, limit)
}

// CurrentDocument returns the document the index was last built from.
func (e *Engine) CurrentDocument(ctx context.Context) (*core.Document, error) {
	return e.registry.CurrentDocument(ctx)
}

// Provider returns the AI provider, for health checks.
func (e *Engine) Provider() ai.AIProvider {
	return e.provider
}

// Config returns the configuration the Engine was built from.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Close releases the index pool, the provider, the registry and any Redis connection.
func (e *Engine) Close() error {
	var errs []error
	if e.store != nil {
		e.store.Release()
	}
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if e.registry != nil {
		if err := e.registry.Close(); err != nil {
			e.logger.Error("error closing document registry", "err", err)
			errs = append(errs, err)
		}
	}
	if e.backend != nil {
		if err := e.backend.Close(); err != nil {
			e.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	if e.redisClient != nil {
		if err := e.redisClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
