// Package chunking splits extracted document text into overlapping windows
// sized for the embedding model and the generation context.
package chunking

import (
	"errors"
	"fmt"
)

// Splitter breaks text into an ordered sequence of chunks.
type Splitter interface {
	Split(text string) ([]string, error)
}

// Strategy names accepted by New.
const (
	StrategyWindow    = "window"
	StrategyRecursive = "recursive"
)

var (
	// ErrInvalidSize indicates a non-positive chunk size.
	ErrInvalidSize = errors.New("chunk size must be positive")

	// ErrInvalidOverlap indicates an overlap that is negative or not smaller than the size.
	ErrInvalidOverlap = errors.New("chunk overlap must be non-negative and smaller than the chunk size")

	// ErrUnknownStrategy indicates an unsupported strategy name.
	ErrUnknownStrategy = errors.New("unknown chunking strategy")
)

// New returns the splitter for the named strategy. An empty name selects the window splitter.
func New(strategy string, size, overlap int) (Splitter, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	switch strategy {
	case StrategyWindow, "":
		return NewWindow(size, overlap)
	case StrategyRecursive:
		return NewRecursive(size, overlap), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

func validate(size, overlap int) error {
	if size <= 0 {
		return ErrInvalidSize
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: size %d, overlap %d", ErrInvalidOverlap, size, overlap)
	}
	return nil
}
