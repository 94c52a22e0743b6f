package models

// Role identifies who authored a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the payload sent to the messages endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the outcome of one completed turn.
type ChatResponse struct {
	Reply          string       `json:"reply"`
	ConversationID string       `json:"conversation_id"`
	Messages       int          `json:"message_count"`
	Relay          *RelayResult `json:"relay,omitempty"`
}
