package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"leadchat-backend/internal/middleware"
	"leadchat-backend/internal/models"
)

type chatService interface {
	CreateSession(ctx context.Context) (*models.ConversationSession, error)
	GetSession(ctx context.Context, id uuid.UUID) (*models.ConversationSession, error)
	SendMessage(ctx context.Context, sessionID uuid.UUID, text string) (*models.ChatResponse, error)
	ClearConversation(ctx context.Context, sessionID uuid.UUID) (*models.ConversationSession, error)
	UpdateContact(ctx context.Context, sessionID uuid.UUID, contact models.ContactInfo) (*models.ConversationSession, error)
	UpdateSettings(ctx context.Context, sessionID uuid.UUID, req models.UpdateSettingsRequest) (*models.ConversationSession, error)
	SaveConversation(ctx context.Context, sessionID uuid.UUID) (*models.RelayResult, error)
	ListRelayAttempts(ctx context.Context, sessionID uuid.UUID) ([]*models.RelayAttempt, error)
}

type tokenIssuer interface {
	GenerateSessionToken(sessionID uuid.UUID) (string, error)
}

type SessionHandler struct {
	chat   chatService
	tokens tokenIssuer
}

func NewSessionHandler(chat chatService, tokens tokenIssuer) *SessionHandler {
	return &SessionHandler{chat: chat, tokens: tokens}
}

// Create starts a new interactive session and returns its bearer token.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, err := h.chat.CreateSession(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	token, err := h.tokens.GenerateSessionToken(session.ID)
	if err != nil {
		log.Printf("failed to sign session token: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create session", r))
		return
	}

	writeJSON(w, http.StatusCreated, models.CreateSessionResponse{Token: token, Session: session.View()})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.chat.GetSession(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session.View())
}

func (h *SessionHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateSettingsRequest
	if err := decodeStrict(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	session, err := h.chat.UpdateSettings(r.Context(), middleware.GetSessionID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session.View())
}

func (h *SessionHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var req models.ContactInfo
	if err := decodeStrict(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	session, err := h.chat.UpdateContact(r.Context(), middleware.GetSessionID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session.View())
}

func (h *SessionHandler) ListRelays(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.chat.ListRelayAttempts(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"attempts": attempts})
}

func decodeStrict(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
