package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadchat-backend/internal/models"
)

func TestMemorySessionRepo_GetReturnsCopy(t *testing.T) {
	repo := NewMemorySessionRepo(time.Hour)
	ctx := context.Background()

	s := models.NewConversationSession()
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got.AppendMessage(models.RoleUser, "not saved")

	again, _ := repo.Get(ctx, s.ID)
	if len(again.Messages) != 0 {
		t.Fatalf("expected unsaved mutation to stay local, got %d messages", len(again.Messages))
	}

	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("save: %v", err)
	}
	again, _ = repo.Get(ctx, s.ID)
	if len(again.Messages) != 1 {
		t.Fatalf("expected saved message, got %d", len(again.Messages))
	}
}

func TestMemorySessionRepo_Expiry(t *testing.T) {
	repo := NewMemorySessionRepo(time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	s := models.NewConversationSession()
	repo.Create(ctx, s)

	now = now.Add(30 * time.Second)
	if _, err := repo.Get(ctx, s.ID); err != nil {
		t.Fatalf("expected session to be alive: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := repo.Get(ctx, s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestMemorySessionRepo_Lock(t *testing.T) {
	repo := NewMemorySessionRepo(time.Hour)
	ctx := context.Background()
	id := uuid.New()

	unlock, err := repo.Lock(ctx, id)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, err := repo.Lock(ctx, id); !errors.Is(err, ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}

	unlock()
	unlock()

	if _, err := repo.Lock(ctx, id); err != nil {
		t.Fatalf("expected lock to be free again: %v", err)
	}
}

func TestMemorySessionRepo_CreateSweepsExpired(t *testing.T) {
	repo := NewMemorySessionRepo(time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		if err := repo.Create(ctx, models.NewConversationSession()); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	now = now.Add(time.Hour)
	fresh := models.NewConversationSession()
	if err := repo.Create(ctx, fresh); err != nil {
		t.Fatalf("create: %v", err)
	}

	repo.mu.Lock()
	held := len(repo.sessions)
	repo.mu.Unlock()
	if held != 1 {
		t.Fatalf("expected only the live session to be held, got %d", held)
	}
	if _, err := repo.Get(ctx, fresh.ID); err != nil {
		t.Fatalf("expected new session to be alive: %v", err)
	}
}
