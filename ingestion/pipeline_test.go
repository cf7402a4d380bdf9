package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/pdfqa/ai/mock"
	"github.com/poiesic/pdfqa/chunking"
	"github.com/poiesic/pdfqa/core"
	"github.com/poiesic/pdfqa/index"
	"github.com/poiesic/pdfqa/storage"
	"github.com/poiesic/pdfqa/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagesExtractor returns fixed pages for any path.
func pagesExtractor(pages ...string) Extractor {
	return ExtractorFunc(func(context.Context, string) ([]string, error) {
		return pages, nil
	})
}

func newTestStore(t *testing.T, embedder *mock.MockEmbedder) (*index.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := index.NewStore(dir, embedder)
	require.NoError(t, err)
	t.Cleanup(store.Release)
	return store, dir
}

func TestNewPipeline_Validation(t *testing.T) {
	store, _ := newTestStore(t, mock.NewMockEmbedder())

	_, err := NewPipeline(nil, store)
	assert.ErrorIs(t, err, ErrExtractorRequired)

	_, err = NewPipeline(PDFExtractor{}, nil)
	assert.ErrorIs(t, err, ErrBuilderRequired)

	_, err = NewPipeline(PDFExtractor{}, store, WithSplitter(nil))
	assert.ErrorIs(t, err, ErrSplitterRequired)

	_, err = NewPipeline(PDFExtractor{}, store, WithMinTextLength(-1))
	assert.ErrorIs(t, err, ErrInvalidMinTextLength)
}

func TestPipeline_IngestBuildsIndex(t *testing.T) {
	store, dir := newTestStore(t, mock.NewMockEmbedder())
	page := strings.Repeat("The capital of France is Paris. ", 40)

	p, err := NewPipeline(pagesExtractor(page, page), store)
	require.NoError(t, err)

	out := p.Ingest(context.Background(), "/docs/france.pdf")
	require.NoError(t, out.Err)

	assert.Equal(t, page+PageSeparator+page, out.ExtractedText)
	require.NotEmpty(t, out.Chunks)
	for _, c := range out.Chunks {
		assert.LessOrEqual(t, len([]rune(c)), DefaultChunkSize)
	}

	require.NotNil(t, store.Current())
	assert.Equal(t, len(out.Chunks), store.Current().Len())
	assert.FileExists(t, filepath.Join(dir, index.IndexFile))
	assert.FileExists(t, filepath.Join(dir, index.ChunksFile))

	matches, err := store.Query(context.Background(), out.Chunks[0], 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, out.Chunks[0], matches[0].Text)
}

func TestPipeline_TooShortWritesNoIndex(t *testing.T) {
	store, dir := newTestStore(t, mock.NewMockEmbedder())
	p, err := NewPipeline(pagesExtractor("0123456789"), store)
	require.NoError(t, err)

	out := p.Ingest(context.Background(), "/docs/short.pdf")

	require.Error(t, out.Err)
	assert.ErrorIs(t, out.Err, core.ErrContentTooShort)
	assert.Equal(t, core.ClassDocument, core.Classify(out.Err))
	assert.Empty(t, out.ExtractedText, "failed stage output is discarded")
	assert.Empty(t, out.Chunks)
	assert.NoFileExists(t, filepath.Join(dir, index.IndexFile))
	assert.Nil(t, store.Current())
}

func TestPipeline_MinTextLengthCountsTrimmedRunes(t *testing.T) {
	store, _ := newTestStore(t, mock.NewMockEmbedder())
	p, err := NewPipeline(pagesExtractor("   héllo wörld   "), store, WithMinTextLength(11))
	require.NoError(t, err)
	require.NoError(t, p.Ingest(context.Background(), "x.pdf").Err)

	p, err = NewPipeline(pagesExtractor("   héllo wörld   "), store, WithMinTextLength(12))
	require.NoError(t, err)
	assert.ErrorIs(t, p.Ingest(context.Background(), "x.pdf").Err, core.ErrContentTooShort)
}

func TestPipeline_ExtractionErrors(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		extractor Extractor
		wantErr   error
	}{
		{
			name:      "no path",
			path:      "",
			extractor: pagesExtractor("irrelevant"),
			wantErr:   core.ErrInput,
		},
		{
			name: "parser failure",
			path: "broken.pdf",
			extractor: ExtractorFunc(func(context.Context, string) ([]string, error) {
				return nil, errors.New("malformed xref table")
			}),
			wantErr: core.ErrExtraction,
		},
		{
			name:      "zero pages",
			path:      "blank.pdf",
			extractor: pagesExtractor(),
			wantErr:   core.ErrExtraction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := mock.NewMockEmbedder()
			store, _ := newTestStore(t, embedder)
			p, err := NewPipeline(tt.extractor, store)
			require.NoError(t, err)

			out := p.Ingest(context.Background(), tt.path)
			assert.ErrorIs(t, out.Err, tt.wantErr)
			assert.Zero(t, embedder.CallCount(), "no embedding after extraction fails")
		})
	}
}

func TestPipeline_BuildFailure(t *testing.T) {
	embedder := mock.NewMockEmbedder().WithEmbedTextsFunc(func(context.Context, []string) ([][]float32, error) {
		return nil, errors.New("connection refused")
	})
	store, dir := newTestStore(t, embedder)
	p, err := NewPipeline(pagesExtractor(strings.Repeat("Some text to index. ", 10)), store)
	require.NoError(t, err)

	out := p.Ingest(context.Background(), "doc.pdf")
	assert.ErrorIs(t, out.Err, core.ErrIndexBuild)
	assert.Equal(t, core.ClassBackend, core.Classify(out.Err))
	assert.NotEmpty(t, out.Chunks, "chunks survive a failed build")
	assert.NoFileExists(t, filepath.Join(dir, index.IndexFile))
}

func TestPipeline_LockHeldElsewhere(t *testing.T) {
	store, _ := newTestStore(t, mock.NewMockEmbedder())
	locker := storage.NewLocalLocker()
	ok, err := locker.Acquire(context.Background(), IndexLockName, IndexLockTTL)
	require.NoError(t, err)
	require.True(t, ok)

	p, err := NewPipeline(pagesExtractor(strings.Repeat("Locked text. ", 10)), store, WithLocker(locker))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3*storage.DefaultLockPoll)
	defer cancel()
	out := p.Ingest(ctx, "doc.pdf")

	assert.ErrorIs(t, out.Err, core.ErrIndexBuild)
	assert.ErrorIs(t, out.Err, storage.ErrLockNotAcquired)
	assert.Nil(t, store.Current())
}

func TestPipeline_CustomSplitter(t *testing.T) {
	store, _ := newTestStore(t, mock.NewMockEmbedder())
	splitter, err := chunking.NewWindow(100, 20)
	require.NoError(t, err)

	text := strings.Repeat("word ", 100)
	p, err := NewPipeline(pagesExtractor(text), store, WithSplitter(splitter))
	require.NoError(t, err)

	out := p.Ingest(context.Background(), "doc.pdf")
	require.NoError(t, out.Err)
	assert.Greater(t, len(out.Chunks), 4)
	for _, c := range out.Chunks {
		assert.LessOrEqual(t, len([]rune(c)), 100)
	}
}

func TestPipeline_RecordsDocument(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()

	path := filepath.Join(t.TempDir(), "france.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 stand-in bytes"), 0644))

	store, _ := newTestStore(t, mock.NewMockEmbedder())
	page := strings.Repeat("The capital of France is Paris. ", 40)
	p, err := NewPipeline(pagesExtractor(page, page, page), store, WithRegistry(repo))
	require.NoError(t, err)

	out := p.Ingest(context.Background(), path)
	require.NoError(t, out.Err)

	doc, err := repo.CurrentDocument(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "france.pdf", doc.Name)
	assert.Equal(t, 3, doc.Pages)
	assert.Equal(t, len(out.Chunks), doc.Chunks)
	assert.Equal(t, len([]rune(out.ExtractedText)), doc.Characters)
	assert.Equal(t, "mock-embedding", doc.EmbeddingModel)
	assert.Equal(t, store.Current().Fingerprint(), doc.Fingerprint)
	assert.Equal(t, core.IDFromBytes([]byte("%PDF-1.4 stand-in bytes")), doc.Id)
}

func TestPipeline_FailedIngestNotRecorded(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()

	store, _ := newTestStore(t, mock.NewMockEmbedder())
	p, err := NewPipeline(pagesExtractor("tiny"), store, WithRegistry(repo))
	require.NoError(t, err)

	require.Error(t, p.Ingest(context.Background(), "tiny.pdf").Err)
	_, err = repo.CurrentDocument(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPipeline_ReingestReplaces(t *testing.T) {
	store, _ := newTestStore(t, mock.NewMockEmbedder())

	first, err := NewPipeline(pagesExtractor(strings.Repeat("Apples are red. ", 100)), store)
	require.NoError(t, err)
	require.NoError(t, first.Ingest(context.Background(), "a.pdf").Err)
	firstFP := store.Current().Fingerprint()

	second, err := NewPipeline(pagesExtractor(strings.Repeat("Bananas are yellow. ", 10)), store)
	require.NoError(t, err)
	out := second.Ingest(context.Background(), "b.pdf")
	require.NoError(t, out.Err)

	assert.NotEqual(t, firstFP, store.Current().Fingerprint())
	assert.Equal(t, len(out.Chunks), store.Current().Len())
}
