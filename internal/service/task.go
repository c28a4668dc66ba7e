package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nova-hq/nova/internal/domain"
	"github.com/nova-hq/nova/internal/repository"
)

// TaskStore is the remote-table surface the task service writes through.
// Implemented by repository.TaskRepo.
type TaskStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Task, error)
	ListByDeadlineRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Task, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	Create(ctx context.Context, p repository.CreateTaskParams) (*domain.Task, error)
	Update(ctx context.Context, p repository.UpdateTaskParams) (*domain.Task, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	CreateSubtask(ctx context.Context, taskID uuid.UUID, title string) (*domain.Subtask, error)
	ListSubtasks(ctx context.Context, taskID uuid.UUID) ([]domain.Subtask, error)
	GetSubtask(ctx context.Context, id uuid.UUID) (*domain.Subtask, error)
	SetSubtaskComplete(ctx context.Context, id uuid.UUID, complete bool) (*domain.Subtask, error)
	DeleteSubtask(ctx context.Context, id uuid.UUID) error
}

type TaskService struct {
	repo     TaskStore
	notifier Notifier
}

func NewTaskService(repo TaskStore, notifier Notifier) *TaskService {
	return &TaskService{repo: repo, notifier: notifier}
}

func (s *TaskService) List(ctx context.Context, userID uuid.UUID) ([]domain.Task, error) {
	tasks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		slog.Error("list tasks", "error", err, "user_id", userID)
		s.notifier.Error(userID, "Failed to load tasks")
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteFetch, err)
	}
	return tasks, nil
}

// Calendar returns the user's tasks with a deadline inside [from, to).
func (s *TaskService) Calendar(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Task, error) {
	tasks, err := s.repo.ListByDeadlineRange(ctx, userID, from, to)
	if err != nil {
		slog.Error("calendar tasks", "error", err, "user_id", userID)
		s.notifier.Error(userID, "Failed to load tasks")
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteFetch, err)
	}
	return tasks, nil
}

type TaskInput struct {
	Title       string
	Description string
	Deadline    *time.Time
	Priority    string
	Category    string
	Subtasks    []string
}

func (s *TaskService) Create(ctx context.Context, userID uuid.UUID, in TaskInput) (*domain.Task, error) {
	if in.Priority == "" {
		in.Priority = domain.TaskPriorityMedium
	}
	if !domain.ValidTaskPriority(in.Priority) {
		return nil, fmt.Errorf("invalid priority %q", in.Priority)
	}

	task, err := s.repo.Create(ctx, repository.CreateTaskParams{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Deadline:    in.Deadline,
		Status:      domain.TaskStatusPending,
		Priority:    in.Priority,
		Category:    in.Category,
	})
	if err != nil {
		slog.Error("create task", "error", err, "user_id", userID)
		s.notifier.Error(userID, "Failed to create task")
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteWrite, err)
	}

	for _, title := range in.Subtasks {
		st, err := s.repo.CreateSubtask(ctx, task.ID, title)
		if err != nil {
			slog.Error("create subtask", "error", err, "task_id", task.ID)
			s.notifier.Error(userID, "Failed to create subtask")
			return nil, fmt.Errorf("%w: %w", domain.ErrRemoteWrite, err)
		}
		task.Subtasks = append(task.Subtasks, *st)
	}

	s.notifier.Success(userID, "Task created successfully")
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, userID, id uuid.UUID, in TaskInput) (*domain.Task, error) {
	if !domain.ValidTaskPriority(in.Priority) {
		return nil, fmt.Errorf("invalid priority %q", in.Priority)
	}

	task, err := s.repo.Update(ctx, repository.UpdateTaskParams{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Deadline:    in.Deadline,
		Priority:    in.Priority,
		Category:    in.Category,
	})
	if err != nil {
		slog.Error("update task", "error", err, "task_id", id)
		s.notifier.Error(userID, "Failed to update task")
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteWrite, err)
	}

	s.notifier.Success(userID, "Task updated successfully")
	return task, nil
}

func (s *TaskService) SetStatus(ctx context.Context, userID, id uuid.UUID, status string) error {
	if !domain.ValidTaskStatus(status) {
		return fmt.Errorf("invalid status %q", status)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		slog.Error("update task status", "error", err, "task_id", id)
		s.notifier.Error(userID, "Failed to update task status")
		return fmt.Errorf("%w: %w", domain.ErrRemoteWrite, err)
	}
	return nil
}

func (s *TaskService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		slog.Error("delete task", "error", err, "task_id", id)
		s.notifier.Error(userID, "Failed to delete task")
		return fmt.Errorf("%w: %w", domain.ErrRemoteWrite, err)
	}
	s.notifier.Success(userID, "Task deleted successfully")
	return nil
}

func (s *TaskService) AddSubtask(ctx context.Context, userID, taskID uuid.UUID, title string) (*domain.Subtask, error) {
	st, err := s.repo.CreateSubtask(ctx, taskID, title)
	if err != nil {
		slog.Error("create subtask", "error", err, "task_id", taskID)
		s.notifier.Error(userID, "Failed to create subtask")
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteWrite, err)
	}
	return st, nil
}

// ToggleSubtask flips one subtask and keeps the parent task's status in
// step: all subtasks complete marks the task completed, and unchecking a
// subtask of a completed task reopens it.
func (s *TaskService) ToggleSubtask(ctx context.Context, userID, id uuid.UUID) (*domain.Subtask, error) {
	current, err := s.repo.GetSubtask(ctx, id)
	if err != nil {
		slog.Error("get subtask", "error", err, "subtask_id", id)
		s.notifier.Error(userID, "Failed to update subtask")
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteFetch, err)
	}

	st, err := s.repo.SetSubtaskComplete(ctx, id, !current.IsComplete)
	if err != nil {
		slog.Error("toggle subtask", "error", err, "subtask_id", id)
		s.notifier.Error(userID, "Failed to update subtask")
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteWrite, err)
	}

	if err := s.reconcileTaskStatus(ctx, st.TaskID); err != nil {
		slog.Error("reconcile task status", "error", err, "task_id", st.TaskID)
	}
	return st, nil
}

func (s *TaskService) DeleteSubtask(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.DeleteSubtask(ctx, id); err != nil {
		slog.Error("delete subtask", "error", err, "subtask_id", id)
		s.notifier.Error(userID, "Failed to delete subtask")
		return fmt.Errorf("%w: %w", domain.ErrRemoteWrite, err)
	}
	s.notifier.Success(userID, "Subtask deleted successfully")
	return nil
}

func (s *TaskService) reconcileTaskStatus(ctx context.Context, taskID uuid.UUID) error {
	subs, err := s.repo.ListSubtasks(ctx, taskID)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}

	allComplete := true
	for _, st := range subs {
		if !st.IsComplete {
			allComplete = false
			break
		}
	}

	task, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return err
	}

	switch {
	case allComplete && task.Status != domain.TaskStatusCompleted:
		return s.repo.UpdateStatus(ctx, taskID, domain.TaskStatusCompleted)
	case !allComplete && task.Status == domain.TaskStatusCompleted:
		return s.repo.UpdateStatus(ctx, taskID, domain.TaskStatusPending)
	}
	return nil
}
