// Package model defines data structures for the assistant platform.
package model

import (
	"time"
)

// Conversation is an ordered sequence of turns. It owns the generation
// configuration used for every turn answered within it.
type Conversation struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
	Title    string `json:"title"`

	// Generation configuration
	Temperature float64 `json:"temperature"`
	TopK        int     `json:"top_k"`
	Prompt      string  `json:"prompt,omitempty"`
	Namespace   string  `json:"namespace,omitempty"`

	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	TurnCount int               `json:"turn_count,omitempty"`
	LastTurn  *Turn             `json:"last_turn,omitempty"`
	Deleted   bool              `json:"deleted,omitempty"`
}

// CreateConversationRequest is the request to create a new conversation.
type CreateConversationRequest struct {
	Title       string            `json:"title"`
	Temperature *float64          `json:"temperature,omitempty"`
	TopK        *int              `json:"top_k,omitempty"`
	Prompt      string            `json:"prompt,omitempty"`
	Namespace   string            `json:"namespace,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// UpdateConversationRequest is the request to update a conversation.
type UpdateConversationRequest struct {
	Title    string            `json:"title,omitempty"`
	Prompt   string            `json:"prompt,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
	HasMore       bool           `json:"has_more"`
}
