package index

import (
	"container/heap"
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/pdfqa/core"
)

// Index is an immutable similarity index over one document's chunks.
type Index struct {
	chunks      []string
	vectors     [][]float32
	model       string
	dimension   int
	fingerprint core.ID
}

// Match is a retrieved chunk.
type Match struct {
	Position int     // chunk position in the document
	Text     string  // chunk text
	Score    float32 // cosine similarity to the query
}

// newIndex normalizes vectors and computes the fingerprint. Callers guarantee
// len(chunks) == len(vectors) > 0 and a uniform non-zero dimension.
func newIndex(model string, chunks []string, vectors [][]float32) *Index {
	normalized := make([][]float32, len(vectors))
	for i, v := range vectors {
		normalized[i] = NormalizeVector(v)
	}
	return &Index{
		chunks:      chunks,
		vectors:     normalized,
		model:       model,
		dimension:   len(normalized[0]),
		fingerprint: Fingerprint(model, chunks),
	}
}

// Fingerprint identifies a build by its embedding model and chunk texts.
func Fingerprint(model string, chunks []string) core.ID {
	var b strings.Builder
	b.WriteString(model)
	for _, c := range chunks {
		b.WriteByte(0)
		b.WriteString(strconv.Itoa(len(c)))
		b.WriteByte(0)
		b.WriteString(c)
	}
	return core.IDFromContent(b.String())
}

// Len returns the number of chunks.
func (ix *Index) Len() int { return len(ix.chunks) }

// Model returns the embedding model the index was built with.
func (ix *Index) Model() string { return ix.model }

// Dimension returns the vector length.
func (ix *Index) Dimension() int { return ix.dimension }

// Fingerprint returns the build fingerprint.
func (ix *Index) Fingerprint() core.ID { return ix.fingerprint }

// Chunk returns the text at position i.
func (ix *Index) Chunk(i int) string { return ix.chunks[i] }

// Chunks returns a copy of the chunk texts in document order.
func (ix *Index) Chunks() []string {
	out := make([]string, len(ix.chunks))
	copy(out, ix.chunks)
	return out
}

// Search returns up to k chunks ranked by similarity to query, highest first.
// Equal scores rank by ascending position.
func (ix *Index) Search(query []float32, k int) ([]Match, error) {
	if len(query) != ix.dimension {
		return nil, fmt.Errorf("%w: index %d, query %d", ErrDimensionMismatch, ix.dimension, len(query))
	}
	if k <= 0 {
		return []Match{}, nil
	}
	q := NormalizeVector(query)

	h := &matchHeap{}
	for i, v := range ix.vectors {
		m := Match{Position: i, Score: dot(q, v)}
		if h.Len() < k {
			heap.Push(h, m)
		} else if ranksAbove(m, (*h)[0]) {
			(*h)[0] = m
			heap.Fix(h, 0)
		}
	}

	results := make([]Match, h.Len())
	for i := len(results) - 1; i >= 0; i-- {
		m := heap.Pop(h).(Match)
		m.Text = ix.chunks[m.Position]
		results[i] = m
	}
	return results, nil
}

// ranksAbove reports whether a belongs before b in the result list.
func ranksAbove(a, b Match) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Position < b.Position
}

// matchHeap keeps the weakest retained match at the root.
type matchHeap []Match

func (h matchHeap) Len() int           { return len(h) }
func (h matchHeap) Less(i, j int) bool { return ranksAbove(h[j], h[i]) }
func (h matchHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *matchHeap) Push(x any) {
	*h = append(*h, x.(Match))
}

func (h *matchHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
