package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"leadchat-backend/internal/middleware"
	"leadchat-backend/internal/models"
)

func dialSession(t *testing.T, hub *Hub, auth *middleware.SessionAuth, sessionID uuid.UUID) *gws.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(srv.Close)

	token, err := auth.GenerateSessionToken(sessionID)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=" + token
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.connectionCount(sessionID) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("connection was never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func readEvent(t *testing.T, conn *gws.Conn) models.WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg models.WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return msg
}

func TestHub_InProcessPublish(t *testing.T) {
	auth := middleware.NewSessionAuth("secret", time.Hour)
	hub := NewHub(nil, auth)
	sessionID := uuid.New()

	conn := dialSession(t, hub, auth, sessionID)
	hub.Publish(context.Background(), sessionID, models.WSMessage{Type: models.EventThinking})

	if msg := readEvent(t, conn); msg.Type != models.EventThinking {
		t.Fatalf("expected thinking event, got %q", msg.Type)
	}
}

func TestHub_RedisPublish(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	auth := middleware.NewSessionAuth("secret", time.Hour)
	hub := NewHub(client, auth)
	sessionID := uuid.New()

	conn := dialSession(t, hub, auth, sessionID)

	// Wait for the subscription to be active before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for len(mr.PubSubChannels(channelName(sessionID))) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscription never became active")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Publish(context.Background(), sessionID, models.WSMessage{
		Type:    models.EventReply,
		Payload: models.ReplyEvent{Content: "hello"},
	})

	if msg := readEvent(t, conn); msg.Type != models.EventReply {
		t.Fatalf("expected reply event, got %q", msg.Type)
	}
}

func TestHub_RejectsMissingToken(t *testing.T) {
	hub := NewHub(nil, middleware.NewSessionAuth("secret", time.Hour))

	rr := httptest.NewRecorder()
	hub.HandleWebSocket(rr, httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestHub_DropsStalledConnection(t *testing.T) {
	auth := middleware.NewSessionAuth("secret", time.Hour)
	hub := NewHub(nil, auth)
	hub.writeWait = 50 * time.Millisecond

	stalled := uuid.New()
	dialSession(t, hub, auth, stalled) // never reads
	other := uuid.New()
	otherConn := dialSession(t, hub, auth, other)

	// Large events fill the socket buffers of the client that never reads.
	big := models.WSMessage{Type: models.EventReply, Payload: models.ReplyEvent{Content: strings.Repeat("x", 1<<20)}}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 256 && hub.connectionCount(stalled) > 0; i++ {
			hub.Publish(context.Background(), stalled, big)
		}
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatalf("publishing to a stalled connection never returned")
	}
	if n := hub.connectionCount(stalled); n != 0 {
		t.Fatalf("expected stalled connection to be dropped, still %d", n)
	}

	hub.Publish(context.Background(), other, models.WSMessage{Type: models.EventThinking})
	if msg := readEvent(t, otherConn); msg.Type != models.EventThinking {
		t.Fatalf("expected other session to keep receiving, got %q", msg.Type)
	}
}
