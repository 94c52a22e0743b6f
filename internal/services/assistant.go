package services

import (
	"context"
	"strings"

	"leadchat-backend/internal/models"
)

// AssistantRequest is one user turn sent to the remote assistant.
type AssistantRequest struct {
	APIKey      string
	AssistantID string
	// ThreadID continues an existing remote thread. Empty starts a new one.
	ThreadID string
	Text     string
	// History is the transcript before Text. Backends without server-side
	// threads replay it.
	History []models.ChatMessage
}

type AssistantReply struct {
	ThreadID string
	Text     string
}

// Assistant performs one remote round trip and returns the reply text.
type Assistant interface {
	Reply(ctx context.Context, req AssistantRequest) (AssistantReply, error)
}

func validateAssistantRequest(req AssistantRequest) error {
	if strings.TrimSpace(req.APIKey) == "" {
		return &ConfigError{Message: "Please provide an API key to continue"}
	}
	if strings.TrimSpace(req.AssistantID) == "" {
		return &ConfigError{Message: "Please provide the assistant ID"}
	}
	return nil
}
