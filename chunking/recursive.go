package chunking

import "github.com/tmc/langchaingo/textsplitter"

// Recursive wraps langchaingo's recursive character splitter. It prefers the same
// boundaries as Window but merges whole splits, so neighbouring chunks overlap by
// at most the configured amount rather than exactly.
type Recursive struct {
	splitter textsplitter.RecursiveCharacter
}

var _ Splitter = (*Recursive)(nil)

// NewRecursive creates a recursive splitter.
func NewRecursive(size, overlap int) *Recursive {
	return &Recursive{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", ". ", " ", ""}),
		),
	}
}

// Split implements Splitter.
func (r *Recursive) Split(text string) ([]string, error) {
	return r.splitter.SplitText(text)
}
