package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"leadchat-backend/internal/models"
)

const memorySweepInterval = time.Minute

// MemorySessionRepo keeps sessions in process memory. Entries expire after
// ttl of inactivity. Expired entries are dropped on access, and Create sweeps
// the whole map at most once per memorySweepInterval.
type MemorySessionRepo struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]memoryEntry
	busy      map[uuid.UUID]bool
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemorySessionRepo(ttl time.Duration) *MemorySessionRepo {
	return &MemorySessionRepo{
		sessions: make(map[uuid.UUID]memoryEntry),
		busy:     make(map[uuid.UUID]bool),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *MemorySessionRepo) Create(ctx context.Context, s *models.ConversationSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweep()
	if _, ok := r.lookup(s.ID); ok {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	return r.store(s)
}

func (r *MemorySessionRepo) Get(ctx context.Context, id uuid.UUID) (*models.ConversationSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.lookup(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	// Callers get a copy so that mutations only land through Save.
	var s models.ConversationSession
	if err := json.Unmarshal(entry.data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if s.Messages == nil {
		s.Messages = []models.ChatMessage{}
	}
	return &s, nil
}

func (r *MemorySessionRepo) Save(ctx context.Context, s *models.ConversationSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.UpdatedAt = r.now().UTC()
	return r.store(s)
}

func (r *MemorySessionRepo) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.busy[id] {
		return nil, ErrSessionBusy
	}
	r.busy[id] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.busy, id)
			r.mu.Unlock()
		})
	}, nil
}

func (r *MemorySessionRepo) lookup(id uuid.UUID) (memoryEntry, bool) {
	entry, ok := r.sessions[id]
	if !ok {
		return memoryEntry{}, false
	}
	if r.ttl > 0 && r.now().After(entry.expiresAt) {
		delete(r.sessions, id)
		return memoryEntry{}, false
	}
	return entry, true
}

// sweep drops every expired entry. Callers hold r.mu.
func (r *MemorySessionRepo) sweep() {
	if r.ttl <= 0 {
		return
	}
	now := r.now()
	if now.Sub(r.lastSweep) < memorySweepInterval {
		return
	}
	r.lastSweep = now
	for id, entry := range r.sessions {
		if now.After(entry.expiresAt) {
			delete(r.sessions, id)
		}
	}
}

func (r *MemorySessionRepo) store(s *models.ConversationSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	r.sessions[s.ID] = memoryEntry{data: data, expiresAt: r.now().Add(r.ttl)}
	return nil
}
