package storage

import (
	"context"
	"time"

	"github.com/poiesic/pdfqa/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository records which PDFs have been ingested.
type DocumentRepository interface {
	Repository

	// SaveDocument stores doc and marks it as the current document.
	// Sets IngestedAt if not already set.
	// Saving a document with an existing ID replaces the earlier record.
	SaveDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// CurrentDocument returns the document the live index was built from.
	// Returns ErrNotFound if nothing has been ingested.
	CurrentDocument(ctx context.Context) (*core.Document, error)

	// ListDocuments returns up to limit documents, most recently ingested first.
	// A limit of zero returns every document.
	ListDocuments(ctx context.Context, limit int) ([]*core.Document, error)

	// DeleteDocument removes a document and its indices.
	// Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, id core.ID) error
}

// Locker serializes index rebuilds, either within one process or across
// several processes sharing an index directory.
type Locker interface {
	// Acquire tries once to take the named lock for ttl.
	// Returns false without error when another owner holds it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)

	// Release gives up the named lock if this owner holds it.
	Release(ctx context.Context, name string) error
}
