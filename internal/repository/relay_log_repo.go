package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadchat-backend/internal/models"
)

type RelayLogRepo struct {
	pool *pgxpool.Pool
}

func NewRelayLogRepo(pool *pgxpool.Pool) *RelayLogRepo {
	return &RelayLogRepo{pool: pool}
}

func (r *RelayLogRepo) Record(ctx context.Context, a *models.RelayAttempt) error {
	a.ID = uuid.New()

	query := `INSERT INTO relay_attempts (id, session_id, conversation_id, trigger, success, status_code, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		a.ID, a.SessionID, a.ConversationID, string(a.Trigger), a.Success, a.StatusCode, a.Message,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record relay attempt: %w", err)
	}
	return nil
}

func (r *RelayLogRepo) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*models.RelayAttempt, error) {
	query := `SELECT id, session_id, conversation_id, trigger, success, status_code, message, created_at
		FROM relay_attempts WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list relay attempts: %w", err)
	}
	defer rows.Close()

	attempts := []*models.RelayAttempt{}
	for rows.Next() {
		a := &models.RelayAttempt{}
		var trigger string
		if err := rows.Scan(&a.ID, &a.SessionID, &a.ConversationID, &trigger, &a.Success, &a.StatusCode, &a.Message, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Trigger = models.RelayTrigger(trigger)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
