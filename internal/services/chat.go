package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"

	"leadchat-backend/internal/metrics"
	"leadchat-backend/internal/models"
	"leadchat-backend/internal/repository"
)

// SessionStore holds conversation sessions between requests.
type SessionStore interface {
	Create(ctx context.Context, s *models.ConversationSession) error
	Get(ctx context.Context, id uuid.UUID) (*models.ConversationSession, error)
	Save(ctx context.Context, s *models.ConversationSession) error
	Lock(ctx context.Context, id uuid.UUID) (func(), error)
}

// Publisher pushes session events to connected browsers.
type Publisher interface {
	Publish(ctx context.Context, sessionID uuid.UUID, msg models.WSMessage)
}

type relayer interface {
	Enabled() bool
	Relay(ctx context.Context, session *models.ConversationSession, trigger models.RelayTrigger) models.RelayResult
}

type ChatOptions struct {
	// EnvAPIKey takes precedence over a key entered in the session.
	EnvAPIKey          string
	DefaultAssistantID string
	ReuseThread        bool
}

type ChatService struct {
	sessions  SessionStore
	assistant Assistant
	relay     relayer
	recorder  RelayRecorder
	publisher Publisher
	metrics   *metrics.ChatMetrics
	opts      ChatOptions
}

func NewChatService(
	sessions SessionStore,
	assistant Assistant,
	relay *WebhookRelay,
	recorder RelayRecorder,
	publisher Publisher,
	m *metrics.ChatMetrics,
	opts ChatOptions,
) *ChatService {
	return &ChatService{
		sessions:  sessions,
		assistant: assistant,
		relay:     relay,
		recorder:  recorder,
		publisher: publisher,
		metrics:   m,
		opts:      opts,
	}
}

func (s *ChatService) CreateSession(ctx context.Context) (*models.ConversationSession, error) {
	session := models.NewConversationSession()
	session.AssistantID = s.opts.DefaultAssistantID
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChatService) GetSession(ctx context.Context, id uuid.UUID) (*models.ConversationSession, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, &NotFoundError{Message: "Session not found or expired"}
		}
		return nil, err
	}
	return session, nil
}

// SendMessage runs one turn. The user message is kept even when the
// assistant call fails; the reply is only appended on success.
func (s *ChatService) SendMessage(ctx context.Context, sessionID uuid.UUID, text string) (*models.ChatResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Fields: map[string]string{"message": "Message is required"}}
	}

	unlock, err := s.lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	req := AssistantRequest{
		APIKey:      s.apiKey(session),
		AssistantID: s.assistantID(session),
		Text:        text,
		History:     append([]models.ChatMessage(nil), session.Messages...),
	}
	if err := validateAssistantRequest(req); err != nil {
		s.metrics.ObserveTurn("config_error")
		return nil, err
	}
	if s.opts.ReuseThread {
		req.ThreadID = session.ThreadID
	}

	session.AppendMessage(models.RoleUser, text)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	s.publish(ctx, session.ID, models.WSMessage{Type: models.EventThinking})

	reply, err := s.assistant.Reply(ctx, req)
	if err != nil {
		s.metrics.ObserveTurn(turnOutcome(err))
		log.Printf("chat: turn failed for conversation %s: %v", session.ConversationID, err)
		s.publish(context.WithoutCancel(ctx), session.ID, models.WSMessage{
			Type:    models.EventError,
			Payload: models.ErrorEvent{ErrorCode: errorCode(err), ErrorMessage: userMessage(err)},
		})
		return nil, err
	}

	// Contact and settings may have changed during the round trip; finish
	// the turn on a fresh copy so those edits are kept.
	saveCtx := context.WithoutCancel(ctx)
	session, err = s.GetSession(saveCtx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.opts.ReuseThread && reply.ThreadID != "" && s.assistantID(session) == req.AssistantID {
		session.ThreadID = reply.ThreadID
	}
	session.AppendMessage(models.RoleAssistant, reply.Text)
	if err := s.sessions.Save(saveCtx, session); err != nil {
		return nil, err
	}
	s.metrics.ObserveTurn("ok")
	s.publish(ctx, session.ID, models.WSMessage{
		Type:    models.EventReply,
		Payload: models.ReplyEvent{ConversationID: session.ConversationID.String(), Content: reply.Text},
	})

	resp := &models.ChatResponse{
		Reply:          reply.Text,
		ConversationID: session.ConversationID.String(),
		Messages:       len(session.Messages),
	}

	if session.Contact.Email != "" && s.relay != nil && s.relay.Enabled() {
		result := s.relay.Relay(ctx, session, models.RelayTriggerTurn)
		resp.Relay = &result
		s.publish(ctx, session.ID, models.WSMessage{Type: models.EventRelay, Payload: result})
	}

	return resp, nil
}

// ClearConversation empties the transcript and issues a new conversation id.
func (s *ChatService) ClearConversation(ctx context.Context, sessionID uuid.UUID) (*models.ConversationSession, error) {
	unlock, err := s.lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.Reset()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	s.publish(ctx, session.ID, models.WSMessage{
		Type:    models.EventCleared,
		Payload: map[string]string{"conversation_id": session.ConversationID.String()},
	})
	return session, nil
}

// UpdateContact does not take the turn lock, so a visitor can fill in the
// sidebar while a reply is pending. A turn in flight sees the new contact
// when it completes.
func (s *ChatService) UpdateContact(ctx context.Context, sessionID uuid.UUID, contact models.ContactInfo) (*models.ConversationSession, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.Contact = models.ContactInfo{
		Name:  strings.TrimSpace(contact.Name),
		Email: strings.TrimSpace(contact.Email),
		Phone: strings.TrimSpace(contact.Phone),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// UpdateSettings stores the interactively entered API key and assistant id.
// Nil fields are left unchanged. Like UpdateContact it does not wait for a
// pending turn; the new values apply from the next turn.
func (s *ChatService) UpdateSettings(ctx context.Context, sessionID uuid.UUID, req models.UpdateSettingsRequest) (*models.ConversationSession, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if req.APIKey != nil {
		session.APIKey = strings.TrimSpace(*req.APIKey)
	}
	if req.AssistantID != nil {
		assistantID := strings.TrimSpace(*req.AssistantID)
		if assistantID != session.AssistantID {
			// A thread belongs to the assistant that ran on it.
			session.ThreadID = ""
		}
		session.AssistantID = assistantID
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SaveConversation relays the conversation on demand. It needs at least one
// exchange and a contact email; neither check touches the network.
func (s *ChatService) SaveConversation(ctx context.Context, sessionID uuid.UUID) (*models.RelayResult, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if len(session.Messages) < 2 {
		return nil, &ValidationError{Fields: map[string]string{"messages": "There is no conversation to save yet"}}
	}
	if session.Contact.Email == "" {
		return nil, &ValidationError{Fields: map[string]string{"email": "Email is required to save the conversation"}}
	}
	if s.relay == nil || !s.relay.Enabled() {
		return nil, &ConfigError{Message: "No webhook is configured"}
	}

	result := s.relay.Relay(ctx, session, models.RelayTriggerManual)
	if !result.Success {
		return &result, &RelayError{StatusCode: result.StatusCode, Message: result.Message}
	}
	return &result, nil
}

func (s *ChatService) ListRelayAttempts(ctx context.Context, sessionID uuid.UUID) ([]*models.RelayAttempt, error) {
	if s.recorder == nil {
		return []*models.RelayAttempt{}, nil
	}
	return s.recorder.ListBySession(ctx, sessionID, 50)
}

func (s *ChatService) lock(ctx context.Context, sessionID uuid.UUID) (func(), error) {
	unlock, err := s.sessions.Lock(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionBusy) {
			return nil, &ConflictError{Message: "A message is already being processed"}
		}
		return nil, err
	}
	return unlock, nil
}

func (s *ChatService) apiKey(session *models.ConversationSession) string {
	if s.opts.EnvAPIKey != "" {
		return s.opts.EnvAPIKey
	}
	return session.APIKey
}

func (s *ChatService) assistantID(session *models.ConversationSession) string {
	if session.AssistantID != "" {
		return session.AssistantID
	}
	return s.opts.DefaultAssistantID
}

func (s *ChatService) publish(ctx context.Context, sessionID uuid.UUID, msg models.WSMessage) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, sessionID, msg)
}

func turnOutcome(err error) string {
	var noReply *NoReplyError
	var cfgErr *ConfigError
	switch {
	case errors.As(err, &noReply):
		return "no_reply"
	case errors.As(err, &cfgErr):
		return "config_error"
	default:
		return "transport_error"
	}
}

func errorCode(err error) string {
	switch turnOutcome(err) {
	case "no_reply":
		return "NO_REPLY"
	case "config_error":
		return "CONFIG_ERROR"
	default:
		return "ASSISTANT_ERROR"
	}
}

// userMessage is the generic text shown for a failed turn.
func userMessage(err error) string {
	switch turnOutcome(err) {
	case "no_reply":
		return "Could not get a response from the assistant."
	case "config_error":
		return err.Error()
	default:
		return "Error communicating with the assistant service."
	}
}

// UserMessage exposes the user-facing text for a turn error.
func UserMessage(err error) string { return userMessage(err) }
