package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	return IDFromBytes([]byte(text))
}

// IDFromBytes is IDFromContent for raw bytes such as an uploaded file.
func IDFromBytes(data []byte) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(data)
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// State is the record threaded through every pipeline stage.
// Each stage receives the previous state by value and returns an extended copy.
// Once Err is set the state is frozen: later stages pass it through unchanged.
type State struct {
	SourcePath    string   // PDF to ingest (ingest pipeline input)
	Question      string   // user question (ask pipeline input)
	ExtractedText string   // concatenated page text
	Chunks        []string // overlapping windows of ExtractedText, in document order
	Retrieved     []string // chunk texts ranked by relevance, most relevant first
	Prompt        string   // rendered instruction prompt
	Answer        string   // generated answer
	Backend       string   // generation backend that produced Answer
	Err           error    // first failure; presence means the pipeline halted
}

// Halted reports whether a stage has already failed.
func (s State) Halted() bool {
	return s.Err != nil
}

// ErrorMessage returns the failure message, or "" when the pipeline did not halt.
func (s State) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Document records a successfully ingested PDF.
type Document struct {
	Id             ID     // BLAKE2b of the file contents
	Name           string // original file name
	Path           string // where the file was stored
	Pages          int
	Characters     int
	Chunks         int
	EmbeddingModel string // model the index was built with
	Fingerprint    ID     // fingerprint of the index built from this document
	IngestedAt     time.Time
}
