package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/pdfqa/core"
	"github.com/poiesic/pdfqa/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) storage.DocumentRepository {
	t.Helper()
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func testDocument(name string, ingestedAt time.Time) *core.Document {
	return &core.Document{
		Id:             core.IDFromContent(name),
		Name:           name,
		Path:           "/uploads/" + name,
		Pages:          3,
		Characters:     4200,
		Chunks:         6,
		EmbeddingModel: "all-minilm",
		Fingerprint:    core.IDFromContent("fp-" + name),
		IngestedAt:     ingestedAt,
	}
}

func TestSaveAndGetDocument(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	doc := testDocument("france.pdf", time.Now().UTC().Add(-time.Minute))

	saved, err := repo.SaveDocument(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, doc.Id, saved.Id)

	got, err := repo.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "france.pdf", got.Name)
	assert.Equal(t, 6, got.Chunks)
	assert.Equal(t, doc.Fingerprint, got.Fingerprint)
	assert.True(t, doc.IngestedAt.Equal(got.IngestedAt))
}

func TestSaveDocument_DefaultsTimestampAndID(t *testing.T) {
	repo := newTestRepository(t)
	doc := testDocument("noid.pdf", time.Time{})
	doc.Id = 0

	saved, err := repo.SaveDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.NotZero(t, saved.Id)
	assert.False(t, saved.IngestedAt.IsZero())
}

func TestSaveDocument_Invalid(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.SaveDocument(ctx, nil)
	assert.ErrorIs(t, err, core.ErrInvalidDocument)

	doc := testDocument("empty.pdf", time.Now().UTC())
	doc.Chunks = 0
	_, err = repo.SaveDocument(ctx, doc)
	assert.ErrorIs(t, err, core.ErrInvalidDocument)
}

func TestGetDocument_NotFound(t *testing.T) {
	repo := newTestRepository(t)
	_, err := repo.GetDocument(context.Background(), core.ID(404))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCurrentDocument(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.CurrentDocument(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	now := time.Now().UTC()
	_, err = repo.SaveDocument(ctx, testDocument("first.pdf", now.Add(-2*time.Minute)))
	require.NoError(t, err)
	_, err = repo.SaveDocument(ctx, testDocument("second.pdf", now.Add(-time.Minute)))
	require.NoError(t, err)

	current, err := repo.CurrentDocument(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second.pdf", current.Name)
}

func TestListDocuments(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	names := []string{"a.pdf", "b.pdf", "c.pdf"}
	for i, name := range names {
		_, err := repo.SaveDocument(ctx, testDocument(name, now.Add(time.Duration(i-10)*time.Minute)))
		require.NoError(t, err)
	}

	all, err := repo.ListDocuments(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c.pdf", all[0].Name, "most recent first")
	assert.Equal(t, "b.pdf", all[1].Name)
	assert.Equal(t, "a.pdf", all[2].Name)

	limited, err := repo.ListDocuments(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "c.pdf", limited[0].Name)

	_, err = repo.ListDocuments(ctx, -1)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestListDocuments_Empty(t *testing.T) {
	repo := newTestRepository(t)
	docs, err := repo.ListDocuments(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSaveDocument_Reingest(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := repo.SaveDocument(ctx, testDocument("a.pdf", now.Add(-3*time.Minute)))
	require.NoError(t, err)
	_, err = repo.SaveDocument(ctx, testDocument("b.pdf", now.Add(-2*time.Minute)))
	require.NoError(t, err)

	again := testDocument("a.pdf", now.Add(-time.Minute))
	again.Chunks = 9
	_, err = repo.SaveDocument(ctx, again)
	require.NoError(t, err)

	all, err := repo.ListDocuments(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2, "re-ingest must not duplicate the date index")
	assert.Equal(t, "a.pdf", all[0].Name)
	assert.Equal(t, 9, all[0].Chunks)

	current, err := repo.CurrentDocument(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", current.Name)
}

func TestDeleteDocument(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	older := testDocument("older.pdf", now.Add(-2*time.Minute))
	newer := testDocument("newer.pdf", now.Add(-time.Minute))
	_, err := repo.SaveDocument(ctx, older)
	require.NoError(t, err)
	_, err = repo.SaveDocument(ctx, newer)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteDocument(ctx, older.Id))
	_, err = repo.GetDocument(ctx, older.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	current, err := repo.CurrentDocument(ctx)
	require.NoError(t, err)
	assert.Equal(t, "newer.pdf", current.Name, "deleting another document keeps current")

	require.NoError(t, repo.DeleteDocument(ctx, newer.Id))
	_, err = repo.CurrentDocument(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	all, err := repo.ListDocuments(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.ErrorIs(t, repo.DeleteDocument(ctx, newer.Id), storage.ErrNotFound)
}

func TestRegistrySurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	doc := testDocument("persist.pdf", time.Now().UTC().Add(-time.Minute))

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	repo, err := NewDocumentRepository(backend)
	require.NoError(t, err)
	_, err = repo.SaveDocument(ctx, doc)
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	backend, err = OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()
	repo, err = NewDocumentRepository(backend)
	require.NoError(t, err)

	current, err := repo.CurrentDocument(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc.Id, current.Id)
}

func TestNewDocumentRepository_ClosedBackend(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	_, err = NewDocumentRepository(backend)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
