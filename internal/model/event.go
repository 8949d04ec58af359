package model

// StreamEvent is the unit emitted to the caller while a turn is being
// answered. Delta events carry the newest fragment plus the text so far;
// the terminal event (stop=true) carries the final message and, when audio
// was generated, its URL.
type StreamEvent struct {
	ConversationID string  `json:"chat"`
	Input          string  `json:"input"`
	Delta          string  `json:"delta"`
	Message        string  `json:"message"`
	Stop           bool    `json:"stop"`
	AudioURL       *string `json:"audio_url"`
}

// DeltaEvent builds an incremental event.
func DeltaEvent(conversationID, input, delta, cumulative string) StreamEvent {
	return StreamEvent{
		ConversationID: conversationID,
		Input:          input,
		Delta:          delta,
		Message:        cumulative,
		Stop:           false,
	}
}

// FinalEvent builds the terminal event for a successful turn.
func FinalEvent(conversationID, input, message string, audioURL *string) StreamEvent {
	return StreamEvent{
		ConversationID: conversationID,
		Input:          input,
		Message:        message,
		Stop:           true,
		AudioURL:       audioURL,
	}
}

// ErrorEvent builds the terminal event for a failed turn. The message is
// framed as if it were the assistant's reply; callers never see more of an
// internal failure than its text.
func ErrorEvent(conversationID, input, message string) StreamEvent {
	return StreamEvent{
		ConversationID: conversationID,
		Input:          input,
		Message:        message,
		Stop:           true,
	}
}
