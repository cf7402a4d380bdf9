package core

import (
	"fmt"
	"strings"
	"time"
)

// ValidateDocument validates a Document before it is recorded.
// Validation rules:
//   - Name must not be empty
//   - Chunks must be positive (a document without chunks never produced an index)
//   - EmbeddingModel must not be empty
//   - IngestedAt must not be in the future
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if strings.TrimSpace(doc.Name) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyName)
	}
	if doc.Chunks <= 0 {
		return fmt.Errorf("%w: chunk count %d", ErrInvalidDocument, doc.Chunks)
	}
	if doc.EmbeddingModel == "" {
		return fmt.Errorf("%w: embedding model is required", ErrInvalidDocument)
	}
	if !IsValidTimestamp(doc.IngestedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidTimestamp)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
