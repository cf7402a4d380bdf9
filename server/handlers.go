// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/poiesic/pdfqa/core"
)

// Service is what the handlers need from the engine.
type Service interface {
	Ingest(ctx context.Context, path string) core.State
	Ask(ctx context.Context, question string) core.State
	HasDocument(ctx context.Context) bool
	Documents(ctx context.Context, limit int) ([]*core.Document, error)
}

// DefaultMaxUploadBytes caps multipart bodies when no limit is configured.
const DefaultMaxUploadBytes = 50 << 20

// Handler holds the dependencies for HTTP handlers.
type Handler struct {
	svc       Service
	uploadDir string
	maxUpload int64
	logger    *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithMaxUploadBytes caps the size of an uploaded PDF.
func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxUpload = n
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler creates handlers that save uploads into uploadDir.
func NewHandler(svc Service, uploadDir string, opts ...HandlerOption) *Handler {
	h := &Handler{
		svc:       svc,
		uploadDir: uploadDir,
		maxUpload: DefaultMaxUploadBytes,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "server")
	return h
}

// HandleRoot handles GET / requests.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, RootResponse{
		Message: "PDF Q&A API is running",
		Status:  "healthy",
		Endpoints: map[string]string{
			"upload":    "/upload",
			"ask":       "/ask",
			"documents": "/documents",
		},
	})
}

// HandleHealth handles GET /health requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, HealthResponse{
		Status:         "healthy",
		DocumentLoaded: h.svc.HasDocument(r.Context()),
	})
}

// HandleUpload handles POST /upload requests: save the multipart "file"
// field, then ingest it.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds %d bytes", tooLarge.Limit))
			return
		}
		sendError(w, http.StatusBadRequest, "Missing file field: "+err.Error())
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		sendError(w, http.StatusBadRequest, "Only PDF files are supported")
		return
	}

	path := filepath.Join(h.uploadDir, name)
	if err := saveUpload(path, file); err != nil {
		h.logger.Error("failed to save upload", "name", name, "error", err)
		sendError(w, http.StatusInternalServerError, "Upload failed: "+err.Error())
		return
	}
	h.logger.Info("file uploaded", "name", name, "size", header.Size)

	state := h.svc.Ingest(r.Context(), path)
	if state.Err != nil {
		sendError(w, statusFor(state.Err), "Processing failed: "+state.ErrorMessage())
		return
	}

	sendJSON(w, http.StatusOK, UploadResponse{
		Message:  "PDF uploaded and processed successfully",
		Filename: name,
		Status:   "success",
		Chunks:   len(state.Chunks),
	})
}

// HandleAsk handles POST /ask requests.
func (h *Handler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		sendError(w, http.StatusBadRequest, "Question must not be empty")
		return
	}
	if !h.svc.HasDocument(r.Context()) {
		sendError(w, http.StatusBadRequest, "Please upload a PDF first before asking questions")
		return
	}

	state := h.svc.Ask(r.Context(), req.Question)
	if state.Err != nil {
		sendError(w, statusFor(state.Err), "Query failed: "+state.ErrorMessage())
		return
	}
	if state.Answer == "" {
		sendError(w, http.StatusInternalServerError, "No answer generated")
		return
	}

	source := state.Backend
	if source == "" {
		source = "unknown"
	}
	sendJSON(w, http.StatusOK, AskResponse{
		Question: req.Question,
		Answer:   state.Answer,
		Source:   source,
	})
}

// HandleDocuments handles GET /documents requests. The optional limit query
// parameter caps the number returned.
func (h *Handler) HandleDocuments(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			sendError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	docs, err := h.svc.Documents(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list documents", "error", err)
		sendError(w, http.StatusInternalServerError, "Listing documents failed: "+err.Error())
		return
	}

	resp := DocumentsResponse{Documents: make([]DocumentInfo, 0, len(docs))}
	for i, doc := range docs {
		resp.Documents = append(resp.Documents, documentInfo(doc, i == 0))
	}
	sendJSON(w, http.StatusOK, resp)
}

// statusFor maps a pipeline error onto an HTTP status.
func statusFor(err error) int {
	switch core.Classify(err) {
	case core.ClassInput:
		return http.StatusBadRequest
	case core.ClassDocument:
		return http.StatusUnprocessableEntity
	case core.ClassBackend:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return err
	}
	return dst.Close()
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func sendError(w http.ResponseWriter, status int, detail string) {
	sendJSON(w, status, ErrorResponse{Detail: detail})
}
