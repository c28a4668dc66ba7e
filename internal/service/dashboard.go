package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nova-hq/nova/internal/domain"
)

type sessionCounter interface {
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type taskCounter interface {
	CountOpenByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	CountDueBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (int64, error)
}

type integrationCounter interface {
	CountConnected(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Summary is the aggregate card data on the dashboard.
type Summary struct {
	OpenTasks             int64 `json:"open_tasks"`
	TasksDueToday         int64 `json:"tasks_due_today"`
	ChatSessions          int64 `json:"chat_sessions"`
	ConnectedIntegrations int64 `json:"connected_integrations"`
}

type DashboardService struct {
	sessions     sessionCounter
	tasks        taskCounter
	integrations integrationCounter
	notifier     Notifier
	now          func() time.Time
}

func NewDashboardService(sessions sessionCounter, tasks taskCounter, integrations integrationCounter, notifier Notifier) *DashboardService {
	return &DashboardService{
		sessions:     sessions,
		tasks:        tasks,
		integrations: integrations,
		notifier:     notifier,
		now:          time.Now,
	}
}

func (s *DashboardService) Summary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	var (
		sum Summary
		err error
	)

	if sum.OpenTasks, err = s.tasks.CountOpenByUser(ctx, userID); err != nil {
		return nil, s.fail(userID, "count open tasks", err)
	}

	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if sum.TasksDueToday, err = s.tasks.CountDueBetween(ctx, userID, dayStart, dayStart.AddDate(0, 0, 1)); err != nil {
		return nil, s.fail(userID, "count due tasks", err)
	}

	if sum.ChatSessions, err = s.sessions.CountByUser(ctx, userID); err != nil {
		return nil, s.fail(userID, "count sessions", err)
	}

	if sum.ConnectedIntegrations, err = s.integrations.CountConnected(ctx, userID); err != nil {
		return nil, s.fail(userID, "count integrations", err)
	}

	return &sum, nil
}

func (s *DashboardService) fail(userID uuid.UUID, op string, err error) error {
	slog.Error(op, "error", err, "user_id", userID)
	s.notifier.Error(userID, "Failed to load dashboard")
	return fmt.Errorf("%w: %s: %w", domain.ErrRemoteFetch, op, err)
}
