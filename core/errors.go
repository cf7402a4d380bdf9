package core

import "errors"

// Pipeline failure taxonomy. Stages wrap these with context; callers match with errors.Is.
var (
	// ErrInput indicates a required caller-supplied field is missing.
	ErrInput = errors.New("missing required input")

	// ErrExtraction indicates the source document is unreadable or empty.
	ErrExtraction = errors.New("PDF appears to be empty or unreadable")

	// ErrContentTooShort indicates the extracted text is below the minimum length.
	ErrContentTooShort = errors.New("PDF contains too little text to process")

	// ErrNoChunks indicates the splitter produced no chunks.
	ErrNoChunks = errors.New("text splitting produced no chunks")

	// ErrIndexBuild indicates embedding or index construction failed.
	ErrIndexBuild = errors.New("embedding/indexing failed")

	// ErrIndexNotFound indicates no index exists in memory or on disk.
	ErrIndexNotFound = errors.New("no index found, please ingest a document first")

	// ErrRetrieval indicates the question could not be embedded or searched.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrNoResults indicates the similarity search returned nothing.
	ErrNoResults = errors.New("no relevant context found in the document")

	// ErrGeneration indicates every generation backend failed.
	ErrGeneration = errors.New("LLM execution failed")

	// ErrInternal indicates an unexpected failure inside a stage.
	ErrInternal = errors.New("internal error")
)

// ErrorClass groups failures by who can fix them.
type ErrorClass int

const (
	// ClassNone means no failure.
	ClassNone ErrorClass = iota
	// ClassInput means the caller sent an incomplete request or asked too early.
	ClassInput
	// ClassDocument means the uploaded document cannot be processed.
	ClassDocument
	// ClassBackend means an embedding or generation service failed.
	ClassBackend
	// ClassInternal covers everything else.
	ClassInternal
)

// String returns a lowercase name for the class.
func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassInput:
		return "input"
	case ClassDocument:
		return "document"
	case ClassBackend:
		return "backend"
	default:
		return "internal"
	}
}

// Classify maps a pipeline error onto an ErrorClass.
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, ErrInput), errors.Is(err, ErrIndexNotFound):
		return ClassInput
	case errors.Is(err, ErrExtraction), errors.Is(err, ErrContentTooShort), errors.Is(err, ErrNoChunks):
		return ClassDocument
	case errors.Is(err, ErrIndexBuild), errors.Is(err, ErrRetrieval), errors.Is(err, ErrGeneration):
		return ClassBackend
	default:
		return ClassInternal
	}
}

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyName indicates the document Name field is empty.
	ErrEmptyName = errors.New("document name cannot be empty")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")
)
