package reference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPVectorIndex queries a Pinecone-compatible vector index over its REST
// API.
type HTTPVectorIndex struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPVectorIndex creates an index client. baseURL is the index
// endpoint without a trailing slash.
func NewHTTPVectorIndex(baseURL, apiKey string) *HTTPVectorIndex {
	return &HTTPVectorIndex{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	Namespace       string    `json:"namespace,omitempty"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		ID       string  `json:"id"`
		Score    float32 `json:"score"`
		Metadata struct {
			Document string `json:"document"`
			Text     string `json:"text"`
		} `json:"metadata"`
	} `json:"matches"`
}

// Query returns the topK most similar chunks in the namespace.
func (x *HTTPVectorIndex) Query(ctx context.Context, vector []float32, namespace string, topK int) ([]Match, error) {
	body, err := json.Marshal(queryRequest{
		Vector:          vector,
		TopK:            topK,
		Namespace:       namespace,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", x.apiKey)

	resp, err := x.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vector index request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("vector index returned %d: %s", resp.StatusCode, payload)
	}

	var decoded queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}

	matches := make([]Match, 0, len(decoded.Matches))
	for _, m := range decoded.Matches {
		matches = append(matches, Match{
			DocumentID: m.Metadata.Document,
			Text:       m.Metadata.Text,
			Score:      m.Score,
		})
	}
	return matches, nil
}
