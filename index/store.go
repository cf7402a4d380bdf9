package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/pdfqa/ai"
	"github.com/poiesic/pdfqa/core"
)

// DefaultBatchSize is the number of chunks sent per embedding request.
const DefaultBatchSize = 32

// Store owns the current Index. Queries read a snapshot without locking;
// Build and LoadIfAbsent are serialized so a lazy load never replaces an
// index built concurrently.
type Store struct {
	dir       string
	embedder  ai.Embedder
	pool      *ants.Pool
	batchSize int
	progress  io.Writer
	logger    *slog.Logger

	current atomic.Pointer[Index]
	mu      sync.Mutex
}

// Option configures a Store.
type Option func(*Store) error

// WithBatchSize sets the number of chunks per embedding request.
func WithBatchSize(n int) Option {
	return func(s *Store) error {
		if n < 1 {
			n = 1
		}
		s.batchSize = n
		return nil
	}
}

// WithWorkers sets the number of concurrent embedding requests.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithWorkers(n int) Option {
	return func(s *Store) error {
		if n < 1 {
			n = 1
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		if s.pool != nil {
			s.pool.Release()
		}
		s.pool = pool
		return nil
	}
}

// WithProgress reports embedding progress to w during Build.
func WithProgress(w io.Writer) Option {
	return func(s *Store) error {
		s.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "index")
		return nil
	}
}

// NewStore creates a store persisting to dir. Nothing is loaded until the
// first query or an explicit LoadIfAbsent.
func NewStore(dir string, embedder ai.Embedder, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, ErrDirRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}

	s := &Store{
		dir:       dir,
		embedder:  embedder,
		pool:      pool,
		batchSize: DefaultBatchSize,
		logger:    slog.Default().With("component", "index"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.Release()
			return nil, err
		}
	}
	return s, nil
}

// Dir returns the artifact directory.
func (s *Store) Dir() string { return s.dir }

// Model returns the embedding model used for builds and queries.
func (s *Store) Model() string { return s.embedder.Model() }

// Current returns the resident index, or nil.
func (s *Store) Current() *Index { return s.current.Load() }

// Persisted reports whether an index artifact exists on disk.
func (s *Store) Persisted() bool {
	_, err := os.Stat(filepath.Join(s.dir, IndexFile))
	return err == nil
}

// Build embeds chunks, persists the resulting index and makes it current.
// On failure the previous index stays current on disk and in memory. All
// errors wrap core.ErrIndexBuild.
func (s *Store) Build(ctx context.Context, chunks []string) (*Index, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to index", core.ErrIndexBuild)
	}

	vectors, err := s.embedAll(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrIndexBuild, err)
	}
	if err := checkVectors(vectors, len(chunks)); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrIndexBuild, err)
	}

	owned := make([]string, len(chunks))
	copy(owned, chunks)
	ix := newIndex(s.embedder.Model(), owned, vectors)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeArtifacts(s.dir, ix); err != nil {
		return nil, fmt.Errorf("%w: persisting index: %w", core.ErrIndexBuild, err)
	}
	s.current.Store(ix)

	s.logger.Info("index built",
		"chunks", ix.Len(),
		"dimension", ix.Dimension(),
		"model", ix.Model(),
		"fingerprint", uint64(ix.Fingerprint()))
	return ix, nil
}

// embedAll embeds chunks in batches on the worker pool, preserving order.
func (s *Store) embedAll(ctx context.Context, chunks []string) ([][]float32, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var tracker *ProgressTracker
	if s.progress != nil {
		tracker = NewProgressTracker(s.progress, len(chunks), s.batchSize)
		tracker.Start()
		defer tracker.Finish()
	}

	vectors := make([][]float32, len(chunks))
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for start := 0; start < len(chunks); start += s.batchSize {
		end := min(start+s.batchSize, len(chunks))
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			batch, err := s.embedder.EmbedTexts(ctx, chunks[start:end])
			if err != nil {
				fail(fmt.Errorf("embedding chunks %d-%d: %w", start, end-1, err))
				return
			}
			if len(batch) != end-start {
				fail(fmt.Errorf("embedding result mismatch. expected %d, received %d", end-start, len(batch)))
				return
			}
			copy(vectors[start:end], batch)
			if tracker != nil {
				tracker.Increment(end - start)
			}
		})
		if submitErr != nil {
			wg.Done()
			fail(submitErr)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func checkVectors(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("expected %d vectors, received %d", want, len(vectors))
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("empty vector for chunk %d", i)
		}
		if len(v) != dim {
			return fmt.Errorf("chunk %d has dimension %d, expected %d", i, len(v), dim)
		}
	}
	return nil
}

// LoadIfAbsent makes the persisted index current unless one is already
// resident. Errors wrap core.ErrIndexNotFound.
func (s *Store) LoadIfAbsent(ctx context.Context) (*Index, error) {
	if ix := s.current.Load(); ix != nil {
		return ix, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A build may have finished while we waited for the lock.
	if ix := s.current.Load(); ix != nil {
		return ix, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ix, err := readArtifacts(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.ErrIndexNotFound
		}
		s.logger.Error("failed to load persisted index", "dir", s.dir, "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrIndexNotFound, err)
	}
	if ix.Model() != s.embedder.Model() {
		return nil, fmt.Errorf("%w: %w: index %q, embedder %q",
			core.ErrIndexNotFound, ErrModelMismatch, ix.Model(), s.embedder.Model())
	}

	s.current.Store(ix)
	s.logger.Info("index loaded", "dir", s.dir, "chunks", ix.Len(), "model", ix.Model())
	return ix, nil
}

// Query returns up to k chunks most similar to question, most relevant first.
// An empty store yields core.ErrIndexNotFound; embedding failures wrap core.ErrRetrieval.
func (s *Store) Query(ctx context.Context, question string, k int) ([]Match, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is empty", core.ErrInput)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", core.ErrInput, k)
	}

	ix, err := s.LoadIfAbsent(ctx)
	if err != nil {
		return nil, err
	}

	vec, err := s.embedder.EmbedText(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding question: %w", core.ErrRetrieval, err)
	}
	matches, err := ix.Search(vec, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrRetrieval, err)
	}
	return matches, nil
}

// Release releases the embedding worker pool.
// The store should not be used after calling Release.
func (s *Store) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}
