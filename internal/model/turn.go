package model

import (
	"time"
)

// Role represents the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message within a conversation. For assistant turns,
// RawText holds the model output after the reference marker has been
// stripped, and DisplayText holds the (possibly translated) text shown to
// the caller. Once DisplayText and AudioURL are committed the turn is not
// modified again.
type Turn struct {
	// Identity
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	TenantID       string `json:"tenant_id"`

	// Content
	Role        Role    `json:"role"`
	RawText     string  `json:"raw_text"`
	DisplayText string  `json:"display_text"`
	Language    string  `json:"language,omitempty"`
	AudioURL    *string `json:"audio_url,omitempty"`

	// Reference documents cited by the assistant (resolved external IDs).
	ReferenceIDs []string `json:"reference_ids,omitempty"`

	// Generation parameters (assistant turns only)
	Temperature *float64 `json:"temperature,omitempty"`
	TopK        *int     `json:"top_k,omitempty"`

	// Per-stage timing marks captured during the request.
	Timings Timings `json:"timings,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// JetStream metadata (populated on read)
	Sequence uint64 `json:"sequence,omitempty"`
}

// ConverseRequest is the request to send a message and stream the reply.
type ConverseRequest struct {
	Text          string   `json:"text"`
	Language      string   `json:"language,omitempty"`
	Stream        *bool    `json:"stream,omitempty"`
	GenerateAudio *bool    `json:"generate_audio,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	TopK          *int     `json:"top_k,omitempty"`
}

// WantsStream reports whether the caller asked for incremental output.
// Streaming is the default.
func (r *ConverseRequest) WantsStream() bool {
	return r.Stream == nil || *r.Stream
}

// WantsAudio reports whether speech synthesis was requested. Audio is
// generated by default, matching the upstream behaviour.
func (r *ConverseRequest) WantsAudio() bool {
	return r.GenerateAudio == nil || *r.GenerateAudio
}

// ListTurnsResponse is the response for listing turns.
type ListTurnsResponse struct {
	Turns        []Turn `json:"turns"`
	HasMore      bool   `json:"has_more"`
	LastSequence uint64 `json:"last_sequence"`
}
