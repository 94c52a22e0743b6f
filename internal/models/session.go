package models

import (
	"time"

	"github.com/google/uuid"
)

// ContactInfo is the lead captured from the visitor. No validation is
// performed; a non-empty Email is what enables relaying.
type ContactInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type ConversationSession struct {
	ID             uuid.UUID     `json:"id"`
	ConversationID uuid.UUID     `json:"conversation_id"`
	Messages       []ChatMessage `json:"messages"`
	Contact        ContactInfo   `json:"contact"`
	AssistantID    string        `json:"assistant_id"`
	APIKey         string        `json:"api_key,omitempty"`
	ThreadID       string        `json:"thread_id,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NewConversationSession returns an empty session with fresh identifiers.
func NewConversationSession() *ConversationSession {
	now := time.Now().UTC()
	return &ConversationSession{
		ID:             uuid.New(),
		ConversationID: uuid.New(),
		Messages:       []ChatMessage{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *ConversationSession) AppendMessage(role Role, content string) {
	s.Messages = append(s.Messages, ChatMessage{Role: role, Content: content})
	s.UpdatedAt = time.Now().UTC()
}

// Reset clears the transcript and the remote thread and issues a new
// conversation id. Contact fields and settings survive.
func (s *ConversationSession) Reset() {
	s.Messages = []ChatMessage{}
	s.ThreadID = ""
	s.ConversationID = uuid.New()
	s.UpdatedAt = time.Now().UTC()
}

// LastExchange returns the most recent user message and the most recent
// assistant message. Either may be empty.
func (s *ConversationSession) LastExchange() (user, assistant string) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		m := s.Messages[i]
		if m.Role == RoleUser && user == "" {
			user = m.Content
		}
		if m.Role == RoleAssistant && assistant == "" {
			assistant = m.Content
		}
		if user != "" && assistant != "" {
			break
		}
	}
	return user, assistant
}

// SessionResponse is the public view of a session. The API key is never echoed.
type SessionResponse struct {
	ID             uuid.UUID     `json:"id"`
	ConversationID uuid.UUID     `json:"conversation_id"`
	Messages       []ChatMessage `json:"messages"`
	Contact        ContactInfo   `json:"contact"`
	AssistantID    string        `json:"assistant_id"`
	HasAPIKey      bool          `json:"has_api_key"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (s *ConversationSession) View() SessionResponse {
	return SessionResponse{
		ID:             s.ID,
		ConversationID: s.ConversationID,
		Messages:       s.Messages,
		Contact:        s.Contact,
		AssistantID:    s.AssistantID,
		HasAPIKey:      s.APIKey != "",
		UpdatedAt:      s.UpdatedAt,
	}
}

type CreateSessionResponse struct {
	Token   string          `json:"token"`
	Session SessionResponse `json:"session"`
}

type UpdateSettingsRequest struct {
	APIKey      *string `json:"api_key"`
	AssistantID *string `json:"assistant_id"`
}
