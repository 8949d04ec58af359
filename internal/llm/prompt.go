package llm

import (
	"strings"

	"github.com/ayushma-ai/assistant-platform/internal/model"
)

// DefaultPrompt is used when a conversation carries no template of its own.
// {reference} is replaced with the retrieved context before the call.
const DefaultPrompt = `You are {name}, a helpful assistant for nurses. Answer the question using the reference material below. If the answer uses a reference document, end your reply with "References:" followed by the comma separated document ids.

Reference:
{reference}`

const referencePlaceholder = "{reference}"

// PromptBuilder renders the system prompt and conversation history into the
// chat messages sent to the model. The user speaks as "Nurse:" and the
// assistant as "<name>:", matching the labels the model is prompted to use.
type PromptBuilder struct {
	AssistantName string
	Template      string
}

// Build assembles the full message list: system prompt with the reference
// substituted, prior turns in creation order, then the current query.
func (b *PromptBuilder) Build(query, reference string, history []model.Turn) []ChatMessage {
	template := b.Template
	if template == "" {
		template = DefaultPrompt
	}
	system := strings.ReplaceAll(template, "{name}", b.AssistantName)
	if strings.Contains(system, referencePlaceholder) {
		system = strings.ReplaceAll(system, referencePlaceholder, reference)
	} else if reference != "" {
		system += "\n\nReference:\n" + reference
	}

	messages := make([]ChatMessage, 0, len(history)+2)
	messages = append(messages, ChatMessage{Role: "system", Content: system})

	for _, turn := range history {
		switch turn.Role {
		case model.RoleUser:
			messages = append(messages, ChatMessage{
				Role:    "user",
				Content: "Nurse: " + turn.DisplayText,
			})
		case model.RoleAssistant:
			messages = append(messages, ChatMessage{
				Role:    "assistant",
				Content: b.AssistantName + ": " + turn.DisplayText,
			})
		}
	}

	messages = append(messages, ChatMessage{Role: "user", Content: "Nurse: " + query})
	return messages
}

// Prefix returns the role label the model prepends to its replies, with the
// trailing space included.
func (b *PromptBuilder) Prefix() string {
	return b.AssistantName + ": "
}
