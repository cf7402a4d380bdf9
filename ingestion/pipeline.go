package ingestion

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/poiesic/pdfqa/chunking"
	"github.com/poiesic/pdfqa/core"
	"github.com/poiesic/pdfqa/index"
	"github.com/poiesic/pdfqa/pipeline"
	"github.com/poiesic/pdfqa/storage"
)

// Chunking defaults.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, path string) ([]string, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, path string) ([]string, error) {
	return f(ctx, path)
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(ctx context.Context, chunks []string) (*index.Index, error)

// Build calls f.
func (f BuilderFunc) Build(ctx context.Context, chunks []string) (*index.Index, error) {
	return f(ctx, chunks)
}

// Pipeline ingests PDFs: extract, chunk, build.
type Pipeline struct {
	extractor Extractor
	builder   Builder
	splitter  chunking.Splitter
	locker    storage.Locker
	registry  storage.DocumentRepository
	minLength int
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithSplitter replaces the default window splitter.
func WithSplitter(splitter chunking.Splitter) Option {
	return func(p *Pipeline) error {
		if splitter == nil {
			return ErrSplitterRequired
		}
		p.splitter = splitter
		return nil
	}
}

// WithLocker sets the lock that serializes index builds.
// Default is an in-process storage.LocalLocker.
func WithLocker(locker storage.Locker) Option {
	return func(p *Pipeline) error {
		if locker != nil {
			p.locker = locker
		}
		return nil
	}
}

// WithRegistry records each successful ingest in repo.
func WithRegistry(repo storage.DocumentRepository) Option {
	return func(p *Pipeline) error {
		p.registry = repo
		return nil
	}
}

// WithMinTextLength sets the fewest non-blank characters a document must contain.
// Default is DefaultMinTextLength.
func WithMinTextLength(n int) Option {
	return func(p *Pipeline) error {
		if n < 0 {
			return ErrInvalidMinTextLength
		}
		p.minLength = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingestion pipeline that extracts with extractor and
// indexes with builder.
func NewPipeline(extractor Extractor, builder Builder, opts ...Option) (*Pipeline, error) {
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if builder == nil {
		return nil, ErrBuilderRequired
	}

	splitter, err := chunking.NewWindow(DefaultChunkSize, DefaultChunkOverlap)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		extractor: extractor,
		builder:   builder,
		splitter:  splitter,
		locker:    storage.NewLocalLocker(),
		minLength: DefaultMinTextLength,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "ingestion")
	return p, nil
}

// Ingest runs the pipeline for the PDF at path. Failures are reported in State.Err.
func (p *Pipeline) Ingest(ctx context.Context, path string) core.State {
	var (
		pages int
		built *index.Index
	)
	extract := ExtractorFunc(func(ctx context.Context, path string) ([]string, error) {
		texts, err := p.extractor.Extract(ctx, path)
		pages = len(texts)
		return texts, err
	})
	build := BuilderFunc(func(ctx context.Context, chunks []string) (*index.Index, error) {
		ix, err := p.builder.Build(ctx, chunks)
		built = ix
		return ix, err
	})

	seq := pipeline.New("ingest", p.logger,
		ExtractStage(extract, p.minLength, p.logger),
		ChunkStage(p.splitter, p.logger),
		BuildStage(build, p.locker, p.logger),
	)
	state := seq.Run(ctx, core.State{SourcePath: path})
	if state.Halted() || built == nil {
		return state
	}

	p.record(ctx, path, pages, state, built)
	return state
}

// record saves the ingest to the registry. A registry failure is logged and
// does not fail the ingest; the index is already in place.
func (p *Pipeline) record(ctx context.Context, path string, pages int, state core.State, ix *index.Index) {
	if p.registry == nil {
		return
	}

	doc := &core.Document{
		Name:           filepath.Base(path),
		Path:           path,
		Pages:          pages,
		Characters:     utf8.RuneCountInString(state.ExtractedText),
		Chunks:         ix.Len(),
		EmbeddingModel: ix.Model(),
		Fingerprint:    ix.Fingerprint(),
		IngestedAt:     time.Now().UTC(),
	}
	if abs, err := filepath.Abs(path); err == nil {
		doc.Path = abs
	}
	if data, err := os.ReadFile(path); err == nil {
		doc.Id = core.IDFromBytes(data)
	}

	if _, err := p.registry.SaveDocument(ctx, doc); err != nil {
		p.logger.Warn("failed to record document", "name", doc.Name, "error", err)
		return
	}
	p.logger.Info("document recorded", "name", doc.Name, "id", uint64(doc.Id), "chunks", doc.Chunks)
}
