package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nova-hq/nova/internal/domain"
)

type SessionRepo struct {
	db *pgxpool.Pool
}

func NewSessionRepo(db *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{db: db}
}

// ListByUser returns all sessions for a user, most recently updated first,
// each with its messages in ascending creation order.
func (r *SessionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Session, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, title, model, temperature, created_at, updated_at
		FROM chat_sessions
		WHERE user_id = $1
		ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	for i := range sessions {
		msgs, err := r.ListMessages(ctx, sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].Messages = msgs
	}
	return sessions, nil
}

func (r *SessionRepo) Create(ctx context.Context, userID uuid.UUID, title, model string, temperature decimal.Decimal) (*domain.Session, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO chat_sessions (user_id, title, model, temperature)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, title, model, temperature, created_at, updated_at`,
		userID, title, model, temperature)

	s, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.Messages = []domain.Message{}
	return s, nil
}

func (r *SessionRepo) Rename(ctx context.Context, id uuid.UUID, title string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE chat_sessions SET title = $2, updated_at = now() WHERE id = $1`, id, title)
	if err != nil {
		return fmt.Errorf("rename session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Delete removes the session; messages cascade in SQL.
func (r *SessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM chat_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Touch bumps updated_at and returns the new timestamp.
func (r *SessionRepo) Touch(ctx context.Context, id uuid.UUID) (time.Time, error) {
	var updatedAt time.Time
	err := r.db.QueryRow(ctx, `
		UPDATE chat_sessions SET updated_at = now() WHERE id = $1
		RETURNING updated_at`, id).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, domain.ErrSessionNotFound
		}
		return time.Time{}, fmt.Errorf("touch session: %w", err)
	}
	return updatedAt, nil
}

func (r *SessionRepo) InsertMessage(ctx context.Context, sessionID uuid.UUID, role, content string) (*domain.Message, error) {
	var m domain.Message
	err := r.db.QueryRow(ctx, `
		INSERT INTO chat_messages (session_id, role, content)
		VALUES ($1, $2, $3)
		RETURNING id, session_id, role, content, created_at`,
		sessionID, role, content).
		Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &m, nil
}

func (r *SessionRepo) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]domain.Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, session_id, role, content, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	msgs := []domain.Message{}
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

func (r *SessionRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `
		SELECT count(*) FROM chat_sessions WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var (
		s    domain.Session
		temp decimal.Decimal
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.Title, &s.Model, &temp, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Temperature = decimalToFloat(temp)
	return &s, nil
}
