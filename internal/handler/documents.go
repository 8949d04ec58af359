package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayushma-ai/assistant-platform/internal/reference"
)

// DocumentHandler registers and looks up reference documents.
type DocumentHandler struct {
	registry *reference.DocumentRegistry
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(registry *reference.DocumentRegistry) *DocumentHandler {
	return &DocumentHandler{registry: registry}
}

// Register handles POST /api/v1/documents
func (h *DocumentHandler) Register(w http.ResponseWriter, r *http.Request) {
	var doc reference.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if doc.ExternalID == "" {
		writeError(w, http.StatusBadRequest, "external_id is required")
		return
	}

	h.registry.Add(doc)
	writeJSON(w, http.StatusCreated, doc)
}

// Get handles GET /api/v1/documents/{id}
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
