package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"leadchat-backend/internal/middleware"
	"leadchat-backend/internal/models"
)

type ChatHandler struct {
	chat chatService
}

func NewChatHandler(chat chatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Message is required", r))
		return
	}

	resp, err := h.chat.SendMessage(r.Context(), middleware.GetSessionID(r.Context()), req.Message)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	session, err := h.chat.ClearConversation(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session.View())
}

// Save relays the conversation on demand (the "save conversation" button).
func (h *ChatHandler) Save(w http.ResponseWriter, r *http.Request) {
	result, err := h.chat.SaveConversation(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
