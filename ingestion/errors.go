package ingestion

import "errors"

var (
	// ErrExtractorRequired is returned when an extractor is not provided.
	ErrExtractorRequired = errors.New("extractor required")

	// ErrBuilderRequired is returned when an index builder is not provided.
	ErrBuilderRequired = errors.New("index builder required")

	// ErrSplitterRequired is returned when a splitter option is nil.
	ErrSplitterRequired = errors.New("splitter required")

	// ErrInvalidMinTextLength is returned for a negative minimum text length.
	ErrInvalidMinTextLength = errors.New("minimum text length cannot be negative")
)
