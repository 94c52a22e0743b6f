package models

// WebSocket message types
const (
	EventThinking = "thinking"
	EventReply    = "reply"
	EventError    = "error"
	EventRelay    = "relay"
	EventCleared  = "cleared"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type ReplyEvent struct {
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
}

type ErrorEvent struct {
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
