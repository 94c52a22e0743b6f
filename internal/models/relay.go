package models

import (
	"time"

	"github.com/google/uuid"
)

type RelayTrigger string

const (
	RelayTriggerTurn   RelayTrigger = "turn"
	RelayTriggerManual RelayTrigger = "manual"
)

// RelayResult is what the operator sees after a webhook POST.
type RelayResult struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code,omitempty"`
	Message    string `json:"message"`
}

// RelayAttempt is the logged form of a RelayResult.
type RelayAttempt struct {
	ID             uuid.UUID    `json:"id"`
	SessionID      uuid.UUID    `json:"session_id"`
	ConversationID uuid.UUID    `json:"conversation_id"`
	Trigger        RelayTrigger `json:"trigger"`
	Success        bool         `json:"success"`
	StatusCode     int          `json:"status_code"`
	Message        string       `json:"message"`
	CreatedAt      time.Time    `json:"created_at"`
}

// LeadPayload is the minimal webhook body: who wrote and what they last said.
type LeadPayload struct {
	Nome     string `json:"nome"`
	Email    string `json:"email"`
	Mensagem string `json:"mensagem"`
}

type ExchangePayload struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// ConversationPayload carries the full transcript.
type ConversationPayload struct {
	ConversationID string          `json:"conversation_id"`
	Contact        ContactInfo     `json:"contact"`
	Messages       []ChatMessage   `json:"messages"`
	LastExchange   ExchangePayload `json:"last_exchange"`
	SentAt         time.Time       `json:"sent_at"`
}
