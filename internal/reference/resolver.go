// Package reference retrieves contextual reference text for a query by
// embedding it and searching a vector index.
package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ayushma-ai/assistant-platform/pkg/logger"
)

// maxEmbedChars is the largest chunk sent to the embedding model; longer
// queries are split into equal-size parts and each part searched.
const maxEmbedChars = 8192

// Embedder turns texts into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Match is one similar document chunk returned by the index.
type Match struct {
	DocumentID string
	Text       string
	Score      float32
}

// VectorIndex searches for chunks similar to an embedding.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, namespace string, topK int) ([]Match, error)
}

// Resolver produces the reference text handed to the prompt: a JSON object
// mapping document ids to their concatenated matched chunks.
type Resolver struct {
	embedder Embedder
	index    VectorIndex
	log      *logger.Logger
}

// NewResolver creates a resolver.
func NewResolver(embedder Embedder, index VectorIndex, log *logger.Logger) *Resolver {
	return &Resolver{embedder: embedder, index: index, log: log}
}

// Resolve embeds the query (split if oversized), searches the index per
// embedding, and returns the sanitized reference JSON. Any embedding or
// index failure aborts resolution.
func (r *Resolver) Resolve(ctx context.Context, query, namespace string, topK int) (string, error) {
	vectors, err := r.embedder.Embed(ctx, splitText(query, maxEmbedChars))
	if err != nil {
		return "", fmt.Errorf("failed to embed query: %w", err)
	}

	combined := make(map[string]string)
	for _, vector := range vectors {
		matches, err := r.index.Query(ctx, vector, namespace, topK)
		if err != nil {
			return "", fmt.Errorf("failed to query vector index: %w", err)
		}
		for _, match := range matches {
			if match.DocumentID == "" {
				continue
			}
			text := strings.ReplaceAll(match.Text, "\n", " ") + ","
			combined[match.DocumentID] += text
		}
	}

	data, err := json.Marshal(combined)
	if err != nil {
		return "", fmt.Errorf("failed to encode reference: %w", err)
	}
	return string(data), nil
}

// splitText cuts text into chunks of at most n characters.
func splitText(text string, n int) []string {
	if len(text) <= n {
		return []string{text}
	}
	var parts []string
	for i := 0; i < len(text); i += n {
		end := i + n
		if end > len(text) {
			end = len(text)
		}
		parts = append(parts, text[i:end])
	}
	return parts
}
