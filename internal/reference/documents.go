package reference

import (
	"context"
	"sync"
)

// Document is a known reference document.
type Document struct {
	ExternalID string `json:"external_id"`
	Title      string `json:"title,omitempty"`
	Namespace  string `json:"namespace,omitempty"`
}

// DocumentRegistry is an in-memory registry of known documents keyed by
// external id (would be replaced with a database in production).
type DocumentRegistry struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewDocumentRegistry creates an empty registry.
func NewDocumentRegistry() *DocumentRegistry {
	return &DocumentRegistry{docs: make(map[string]Document)}
}

// Add registers a document.
func (r *DocumentRegistry) Add(doc Document) {
	r.mu.Lock()
	r.docs[doc.ExternalID] = doc
	r.mu.Unlock()
}

// Resolve reports whether the external id names a known document.
func (r *DocumentRegistry) Resolve(_ context.Context, externalID string) bool {
	r.mu.RLock()
	_, ok := r.docs[externalID]
	r.mu.RUnlock()
	return ok
}

// Get returns a document by external id.
func (r *DocumentRegistry) Get(externalID string) (Document, bool) {
	r.mu.RLock()
	doc, ok := r.docs[externalID]
	r.mu.RUnlock()
	return doc, ok
}
