package query

import (
	"context"
	"log/slog"

	"github.com/poiesic/pdfqa/ai"
	"github.com/poiesic/pdfqa/core"
	"github.com/poiesic/pdfqa/pipeline"
)

// DefaultTopK is the number of chunks placed in the prompt.
const DefaultTopK = 12

// Pipeline answers questions: retrieve, prompt, generate.
type Pipeline struct {
	retriever Retriever
	client    ai.GenerationClient
	topK      int
	dedupe    bool
	logger    *slog.Logger
	seq       *pipeline.Sequence
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithTopK sets how many chunks are retrieved. Values below 1 select DefaultTopK.
func WithTopK(k int) Option {
	return func(p *Pipeline) error {
		if k < 1 {
			k = DefaultTopK
		}
		p.topK = k
		return nil
	}
}

// WithDedupe drops retrieved chunks that repeat an earlier-ranked one.
func WithDedupe(enabled bool) Option {
	return func(p *Pipeline) error {
		p.dedupe = enabled
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

// NewPipeline creates the question-answering pipeline.
func NewPipeline(retriever Retriever, client ai.GenerationClient, opts ...Option) (*Pipeline, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if client == nil {
		return nil, ErrClientRequired
	}

	p := &Pipeline{
		retriever: retriever,
		client:    client,
		topK:      DefaultTopK,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	logger := p.logger.With("component", "query")
	p.seq = pipeline.New("ask", logger,
		RetrieveStage(p.retriever, p.topK, p.dedupe, logger),
		PromptStage(),
		GenerateStage(p.client, logger),
	)
	return p, nil
}

// Ask runs the pipeline for question. Failures are reported in State.Err.
func (p *Pipeline) Ask(ctx context.Context, question string) core.State {
	return p.seq.Run(ctx, core.State{Question: question})
}
