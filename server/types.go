package server

import (
	"fmt"
	"time"

	"github.com/poiesic/pdfqa/core"
)

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is returned by POST /ask.
type AskResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Source   string `json:"source"`
}

// UploadResponse is returned by POST /upload.
type UploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Chunks   int    `json:"chunks"`
}

// ErrorResponse carries a failure message.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// DocumentInfo describes an ingested document.
type DocumentInfo struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Pages          int       `json:"pages"`
	Characters     int       `json:"characters"`
	Chunks         int       `json:"chunks"`
	EmbeddingModel string    `json:"embedding_model"`
	IngestedAt     time.Time `json:"ingested_at"`
	Current        bool      `json:"current"`
}

// DocumentsResponse is returned by GET /documents.
type DocumentsResponse struct {
	Documents []DocumentInfo `json:"documents"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status         string `json:"status"`
	DocumentLoaded bool   `json:"document_loaded"`
}

// RootResponse is returned by GET /.
type RootResponse struct {
	Message   string            `json:"message"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
}

func documentInfo(doc *core.Document, current bool) DocumentInfo {
	return DocumentInfo{
		ID:             fmt.Sprintf("%016x", uint64(doc.Id)),
		Name:           doc.Name,
		Pages:          doc.Pages,
		Characters:     doc.Characters,
		Chunks:         doc.Chunks,
		EmbeddingModel: doc.EmbeddingModel,
		IngestedAt:     doc.IngestedAt,
		Current:        current,
	}
}
