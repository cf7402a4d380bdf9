package index

import "errors"

var (
	// ErrEmbedderRequired is returned when a Store is created without an embedder.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrDirRequired is returned when a Store is created without a directory.
	ErrDirRequired = errors.New("index directory required")

	// ErrCorruptIndex indicates unreadable artifacts or artifacts from different builds.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrModelMismatch indicates the persisted index was built with another embedding model.
	ErrModelMismatch = errors.New("index was built with a different embedding model")

	// ErrDimensionMismatch indicates a query vector of the wrong length.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
