package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nova-hq/nova/internal/domain"
)

type IntegrationRepo struct {
	db *pgxpool.Pool
}

func NewIntegrationRepo(db *pgxpool.Pool) *IntegrationRepo {
	return &IntegrationRepo{db: db}
}

// ListByUser returns the user's integration rows, pinned first, then by
// most recently updated.
func (r *IntegrationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Integration, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, service, status, pinned, updated_at
		FROM integrations
		WHERE user_id = $1
		ORDER BY pinned DESC, updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list integrations: %w", err)
	}
	defer rows.Close()

	list := []domain.Integration{}
	for rows.Next() {
		var in domain.Integration
		if err := rows.Scan(&in.UserID, &in.Service, &in.Status, &in.Pinned, &in.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan integration: %w", err)
		}
		list = append(list, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list integrations: %w", err)
	}
	return list, nil
}

func (r *IntegrationRepo) Get(ctx context.Context, userID uuid.UUID, service string) (*domain.Integration, error) {
	var in domain.Integration
	err := r.db.QueryRow(ctx, `
		SELECT user_id, service, status, pinned, updated_at
		FROM integrations
		WHERE user_id = $1 AND service = $2`, userID, service).
		Scan(&in.UserID, &in.Service, &in.Status, &in.Pinned, &in.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIntegrationNotFound
		}
		return nil, fmt.Errorf("get integration: %w", err)
	}
	return &in, nil
}

// SetStatus upserts the row with the given status, preserving pinned state.
func (r *IntegrationRepo) SetStatus(ctx context.Context, userID uuid.UUID, service, status string) (*domain.Integration, error) {
	var in domain.Integration
	err := r.db.QueryRow(ctx, `
		INSERT INTO integrations (user_id, service, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, service) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = now()
		RETURNING user_id, service, status, pinned, updated_at`,
		userID, service, status).
		Scan(&in.UserID, &in.Service, &in.Status, &in.Pinned, &in.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("set integration status: %w", err)
	}
	return &in, nil
}

// SetPinned upserts the row with the given pinned flag; a row created this
// way starts disconnected, matching pin-before-connect in the UI.
func (r *IntegrationRepo) SetPinned(ctx context.Context, userID uuid.UUID, service string, pinned bool) (*domain.Integration, error) {
	var in domain.Integration
	err := r.db.QueryRow(ctx, `
		INSERT INTO integrations (user_id, service, status, pinned)
		VALUES ($1, $2, 'disconnected', $3)
		ON CONFLICT (user_id, service) DO UPDATE SET
			pinned = EXCLUDED.pinned,
			updated_at = now()
		RETURNING user_id, service, status, pinned, updated_at`,
		userID, service, pinned).
		Scan(&in.UserID, &in.Service, &in.Status, &in.Pinned, &in.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("set integration pinned: %w", err)
	}
	return &in, nil
}

func (r *IntegrationRepo) CountConnected(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `
		SELECT count(*) FROM integrations
		WHERE user_id = $1 AND status = 'connected'`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count connected integrations: %w", err)
	}
	return count, nil
}
