package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"leadchat-backend/internal/metrics"
	"leadchat-backend/internal/models"
)

const (
	PayloadLead         = "lead"
	PayloadConversation = "conversation"
)

// RelayRecorder persists relay attempts for the operator.
type RelayRecorder interface {
	Record(ctx context.Context, attempt *models.RelayAttempt) error
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*models.RelayAttempt, error)
}

type WebhookRelay struct {
	url      string
	payload  string
	client   *http.Client
	recorder RelayRecorder
	metrics  *metrics.ChatMetrics
}

// NewWebhookRelay builds a relay posting to url. A zero timeout means no
// timeout. recorder may be nil.
func NewWebhookRelay(url, payload string, timeout time.Duration, recorder RelayRecorder, m *metrics.ChatMetrics) *WebhookRelay {
	if payload != PayloadConversation {
		payload = PayloadLead
	}
	return &WebhookRelay{
		url:      url,
		payload:  payload,
		client:   &http.Client{Timeout: timeout},
		recorder: recorder,
		metrics:  m,
	}
}

// Enabled reports whether a webhook URL is configured.
func (r *WebhookRelay) Enabled() bool {
	return r != nil && r.url != ""
}

// Relay posts the session to the webhook once. It never retries; the result
// describes the outcome for the operator.
func (r *WebhookRelay) Relay(ctx context.Context, session *models.ConversationSession, trigger models.RelayTrigger) models.RelayResult {
	result := r.post(ctx, session)

	r.metrics.ObserveRelay(string(trigger), result.Success)
	if !result.Success {
		log.Printf("relay (%s) for conversation %s failed: %s", trigger, session.ConversationID, result.Message)
	}

	if r.recorder != nil {
		attempt := &models.RelayAttempt{
			SessionID:      session.ID,
			ConversationID: session.ConversationID,
			Trigger:        trigger,
			Success:        result.Success,
			StatusCode:     result.StatusCode,
			Message:        result.Message,
		}
		if err := r.recorder.Record(ctx, attempt); err != nil {
			log.Printf("relay: failed to record attempt for conversation %s: %v", session.ConversationID, err)
		}
	}

	return result
}

func (r *WebhookRelay) post(ctx context.Context, session *models.ConversationSession) models.RelayResult {
	body, err := json.Marshal(r.buildPayload(session))
	if err != nil {
		return models.RelayResult{Message: fmt.Sprintf("failed to encode payload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return models.RelayResult{Message: fmt.Sprintf("failed to build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return models.RelayResult{Message: fmt.Sprintf("failed to send data: %v", err)}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode != http.StatusOK {
		return models.RelayResult{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("webhook responded with status %d", resp.StatusCode),
		}
	}

	return models.RelayResult{
		Success:    true,
		StatusCode: resp.StatusCode,
		Message:    "Data sent successfully",
	}
}

// buildPayload only uses content already in the transcript.
func (r *WebhookRelay) buildPayload(session *models.ConversationSession) interface{} {
	user, assistant := session.LastExchange()

	if r.payload == PayloadConversation {
		messages := make([]models.ChatMessage, len(session.Messages))
		copy(messages, session.Messages)
		return models.ConversationPayload{
			ConversationID: session.ConversationID.String(),
			Contact:        session.Contact,
			Messages:       messages,
			LastExchange:   models.ExchangePayload{User: user, Assistant: assistant},
			SentAt:         time.Now().UTC(),
		}
	}

	return models.LeadPayload{
		Nome:     session.Contact.Name,
		Email:    session.Contact.Email,
		Mensagem: user,
	}
}
