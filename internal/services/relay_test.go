package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"leadchat-backend/internal/models"
)

type memoryRecorder struct {
	attempts []*models.RelayAttempt
}

func (m *memoryRecorder) Record(ctx context.Context, a *models.RelayAttempt) error {
	a.ID = uuid.New()
	m.attempts = append(m.attempts, a)
	return nil
}

func (m *memoryRecorder) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*models.RelayAttempt, error) {
	var out []*models.RelayAttempt
	for _, a := range m.attempts {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	return out, nil
}

func sessionWithExchange() *models.ConversationSession {
	s := models.NewConversationSession()
	s.Contact = models.ContactInfo{Name: "Maria", Email: "maria@example.com", Phone: "+55 11 99999-0000"}
	s.AppendMessage(models.RoleUser, "Quero um orçamento")
	s.AppendMessage(models.RoleAssistant, "Claro, qual serviço?")
	return s
}

func TestWebhookRelay_LeadPayload(t *testing.T) {
	var got map[string]interface{}
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	recorder := &memoryRecorder{}
	relay := NewWebhookRelay(srv.URL, PayloadLead, 10*time.Second, recorder, nil)
	session := sessionWithExchange()

	result := relay.Relay(context.Background(), session, models.RelayTriggerTurn)

	require.True(t, result.Success)
	require.Equal(t, http.StatusOK, result.StatusCode)
	require.Equal(t, "application/json", contentType)
	require.Equal(t, map[string]interface{}{
		"nome":     "Maria",
		"email":    "maria@example.com",
		"mensagem": "Quero um orçamento",
	}, got)

	require.Len(t, recorder.attempts, 1)
	require.Equal(t, models.RelayTriggerTurn, recorder.attempts[0].Trigger)
	require.Equal(t, session.ConversationID, recorder.attempts[0].ConversationID)
}

func TestWebhookRelay_ConversationPayload(t *testing.T) {
	var got models.ConversationPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	relay := NewWebhookRelay(srv.URL, PayloadConversation, 0, nil, nil)
	session := sessionWithExchange()

	result := relay.Relay(context.Background(), session, models.RelayTriggerManual)

	require.True(t, result.Success)
	require.Equal(t, session.ConversationID.String(), got.ConversationID)
	require.Equal(t, session.Messages, got.Messages)
	require.Equal(t, "Claro, qual serviço?", got.LastExchange.Assistant)
	require.Equal(t, session.Contact, got.Contact)
}

func TestWebhookRelay_NonOKStatus(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusBadRequest, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		relay := NewWebhookRelay(srv.URL, PayloadLead, time.Second, nil, nil)
		result := relay.Relay(context.Background(), sessionWithExchange(), models.RelayTriggerTurn)
		srv.Close()

		require.False(t, result.Success)
		require.Equal(t, status, result.StatusCode)
		require.Contains(t, result.Message, strconv.Itoa(status))
	}
}

func TestWebhookRelay_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	relay := NewWebhookRelay(srv.URL, PayloadLead, 50*time.Millisecond, nil, nil)
	result := relay.Relay(context.Background(), sessionWithExchange(), models.RelayTriggerTurn)

	require.False(t, result.Success)
	require.Zero(t, result.StatusCode)
	require.NotEmpty(t, result.Message)
}

func TestWebhookRelay_Enabled(t *testing.T) {
	var nilRelay *WebhookRelay
	require.False(t, nilRelay.Enabled())
	require.False(t, NewWebhookRelay("", PayloadLead, time.Second, nil, nil).Enabled())
	require.True(t, NewWebhookRelay("http://example.invalid/hook", PayloadLead, time.Second, nil, nil).Enabled())
}
