package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"leadchat-backend/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionBusy     = errors.New("session is busy")
)

const sessionLockTTL = 5 * time.Minute

// RedisSessionRepo keeps sessions as JSON values with a sliding TTL.
type RedisSessionRepo struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisSessionRepo(client *redis.Client, ttl time.Duration) *RedisSessionRepo {
	return &RedisSessionRepo{redis: client, ttl: ttl}
}

func (r *RedisSessionRepo) Create(ctx context.Context, s *models.ConversationSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	ok, err := r.redis.SetNX(ctx, sessionKey(s.ID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	if !ok {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	return nil
}

func (r *RedisSessionRepo) Get(ctx context.Context, id uuid.UUID) (*models.ConversationSession, error) {
	data, err := r.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s models.ConversationSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if s.Messages == nil {
		s.Messages = []models.ChatMessage{}
	}
	return &s, nil
}

func (r *RedisSessionRepo) Save(ctx context.Context, s *models.ConversationSession) error {
	s.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.redis.Set(ctx, sessionKey(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// Lock takes a short-lived SETNX lock so one turn runs per session at a time.
func (r *RedisSessionRepo) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	key := sessionLockKey(id)
	token := uuid.NewString()

	locked, err := r.redis.SetNX(ctx, key, token, sessionLockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}
	if !locked {
		return nil, ErrSessionBusy
	}

	return func() {
		// Only release our own lock; it may have expired and been retaken.
		ctx := context.Background()
		if v, err := r.redis.Get(ctx, key).Result(); err == nil && v == token {
			r.redis.Del(ctx, key)
		}
	}, nil
}

func sessionKey(id uuid.UUID) string {
	return fmt.Sprintf("chat_session:%s", id.String())
}

func sessionLockKey(id uuid.UUID) string {
	return fmt.Sprintf("chat_session_lock:%s", id.String())
}
