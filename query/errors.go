package query

import "errors"

var (
	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrClientRequired is returned when a generation client is not provided.
	ErrClientRequired = errors.New("generation client required")
)
