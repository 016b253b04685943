package conversation

import (
	"knowledge-workspace/pkg/rag"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type State string

const (
	StateIdle    State = "idle"
	StateSending State = "sending"
)

const (
	GreetingText = "Hi! Ask me anything about your documents. Pin documents as context to narrow what I search."
	FallbackText = "Something went wrong while contacting the assistant. Please try again."
)

// Message is one entry of the chat history.
// IsTyped flips to true once the reply has finished its typing animation.
type Message struct {
	ID         string          `json:"id"`
	Role       Role            `json:"role"`
	Text       string          `json:"text"`
	Sources    []rag.SourceRef `json:"sources,omitempty"`
	IsTyped    bool            `json:"isTyped"`
	IsGreeting bool            `json:"isGreeting,omitempty"`
}

func newGreeting() Message {
	return Message{
		ID:         uuid.NewString(),
		Role:       RoleAssistant,
		Text:       GreetingText,
		IsTyped:    true,
		IsGreeting: true,
	}
}

func onlyGreeting(history []Message) bool {
	return len(history) == 1 && history[0].IsGreeting
}
