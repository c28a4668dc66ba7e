package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nova-hq/nova/internal/domain"
	"github.com/nova-hq/nova/internal/repository"
)

type fakeTaskStore struct {
	tasks    map[uuid.UUID]*domain.Task
	subtasks map[uuid.UUID]*domain.Subtask

	createErr error
	statusErr error
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{
		tasks:    make(map[uuid.UUID]*domain.Task),
		subtasks: make(map[uuid.UUID]*domain.Subtask),
	}
}

func (f *fakeTaskStore) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range f.tasks {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) ListByDeadlineRange(_ context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range f.tasks {
		if t.UserID != userID || t.Deadline == nil {
			continue
		}
		if !t.Deadline.Before(from) && t.Deadline.Before(to) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) Get(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTaskStore) Create(_ context.Context, p repository.CreateTaskParams) (*domain.Task, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	t := &domain.Task{
		ID:          uuid.New(),
		UserID:      p.UserID,
		Title:       p.Title,
		Description: p.Description,
		Deadline:    p.Deadline,
		Status:      p.Status,
		Priority:    p.Priority,
		Category:    p.Category,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.tasks[t.ID] = t
	cp := *t
	return &cp, nil
}

func (f *fakeTaskStore) Update(_ context.Context, p repository.UpdateTaskParams) (*domain.Task, error) {
	t, ok := f.tasks[p.ID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	t.Title = p.Title
	t.Description = p.Description
	t.Deadline = p.Deadline
	t.Priority = p.Priority
	t.Category = p.Category
	t.UpdatedAt = time.Now()
	cp := *t
	return &cp, nil
}

func (f *fakeTaskStore) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	t, ok := f.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	t.Status = status
	return nil
}

func (f *fakeTaskStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskStore) CreateSubtask(_ context.Context, taskID uuid.UUID, title string) (*domain.Subtask, error) {
	if _, ok := f.tasks[taskID]; !ok {
		return nil, domain.ErrTaskNotFound
	}
	st := &domain.Subtask{
		ID:        uuid.New(),
		TaskID:    taskID,
		Title:     title,
		CreatedAt: time.Now(),
	}
	f.subtasks[st.ID] = st
	cp := *st
	return &cp, nil
}

func (f *fakeTaskStore) ListSubtasks(_ context.Context, taskID uuid.UUID) ([]domain.Subtask, error) {
	var out []domain.Subtask
	for _, st := range f.subtasks {
		if st.TaskID == taskID {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) GetSubtask(_ context.Context, id uuid.UUID) (*domain.Subtask, error) {
	st, ok := f.subtasks[id]
	if !ok {
		return nil, domain.ErrSubtaskNotFound
	}
	cp := *st
	return &cp, nil
}

func (f *fakeTaskStore) SetSubtaskComplete(_ context.Context, id uuid.UUID, complete bool) (*domain.Subtask, error) {
	st, ok := f.subtasks[id]
	if !ok {
		return nil, domain.ErrSubtaskNotFound
	}
	st.IsComplete = complete
	cp := *st
	return &cp, nil
}

func (f *fakeTaskStore) DeleteSubtask(_ context.Context, id uuid.UUID) error {
	if _, ok := f.subtasks[id]; !ok {
		return domain.ErrSubtaskNotFound
	}
	delete(f.subtasks, id)
	return nil
}

func newTestTasks(t *testing.T) (*TaskService, *fakeTaskStore, *fakeNotifier, uuid.UUID) {
	t.Helper()
	store := newFakeTaskStore()
	notifier := &fakeNotifier{}
	return NewTaskService(store, notifier), store, notifier, uuid.New()
}

func TestCreateTaskDefaultsAndSubtasks(t *testing.T) {
	svc, _, notifier, userID := newTestTasks(t)

	task, err := svc.Create(context.Background(), userID, TaskInput{
		Title:    "Ship release",
		Subtasks: []string{"write changelog", "tag build"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TaskStatusPending, task.Status)
	assert.Equal(t, domain.TaskPriorityMedium, task.Priority)
	require.Len(t, task.Subtasks, 2)
	assert.Equal(t, "write changelog", task.Subtasks[0].Title)
	assert.Contains(t, notifier.all(), "success: Task created successfully")
}

func TestCreateTaskInvalidPriority(t *testing.T) {
	svc, store, _, userID := newTestTasks(t)

	_, err := svc.Create(context.Background(), userID, TaskInput{Title: "x", Priority: "urgent"})
	require.Error(t, err)
	assert.Empty(t, store.tasks)
}

func TestCreateTaskRemoteFailure(t *testing.T) {
	svc, store, notifier, userID := newTestTasks(t)
	store.createErr = errors.New("insert refused")

	_, err := svc.Create(context.Background(), userID, TaskInput{Title: "x"})
	require.ErrorIs(t, err, domain.ErrRemoteWrite)
	assert.Contains(t, notifier.all(), "error: Failed to create task")
}

func TestSetStatusValidation(t *testing.T) {
	svc, _, _, userID := newTestTasks(t)

	err := svc.SetStatus(context.Background(), userID, uuid.New(), "done")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrRemoteWrite)
}

func TestCalendarRangeIsHalfOpen(t *testing.T) {
	svc, _, _, userID := newTestTasks(t)
	ctx := context.Background()

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	inside := from.Add(24 * time.Hour)
	boundary := to

	_, err := svc.Create(ctx, userID, TaskInput{Title: "inside", Deadline: &inside})
	require.NoError(t, err)
	_, err = svc.Create(ctx, userID, TaskInput{Title: "next month", Deadline: &boundary})
	require.NoError(t, err)
	_, err = svc.Create(ctx, userID, TaskInput{Title: "no deadline"})
	require.NoError(t, err)

	tasks, err := svc.Calendar(ctx, userID, from, to)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "inside", tasks[0].Title)
}

func TestToggleSubtaskCompletesTask(t *testing.T) {
	svc, store, _, userID := newTestTasks(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, userID, TaskInput{Title: "x", Subtasks: []string{"a", "b"}})
	require.NoError(t, err)

	for _, st := range task.Subtasks {
		_, err := svc.ToggleSubtask(ctx, userID, st.ID)
		require.NoError(t, err)
	}

	// All subtasks complete: the parent task is marked completed.
	assert.Equal(t, domain.TaskStatusCompleted, store.tasks[task.ID].Status)
}

func TestToggleSubtaskReopensCompletedTask(t *testing.T) {
	svc, store, _, userID := newTestTasks(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, userID, TaskInput{Title: "x", Subtasks: []string{"a"}})
	require.NoError(t, err)

	sub := task.Subtasks[0]
	_, err = svc.ToggleSubtask(ctx, userID, sub.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TaskStatusCompleted, store.tasks[task.ID].Status)

	// Unchecking reopens the task.
	_, err = svc.ToggleSubtask(ctx, userID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, store.tasks[task.ID].Status)
}

func TestToggleSubtaskSurvivesReconcileFailure(t *testing.T) {
	svc, store, _, userID := newTestTasks(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, userID, TaskInput{Title: "x", Subtasks: []string{"a"}})
	require.NoError(t, err)

	// Reconcile failures are logged, not surfaced: the toggle itself stands.
	store.statusErr = errors.New("status refused")
	st, err := svc.ToggleSubtask(ctx, userID, task.Subtasks[0].ID)
	require.NoError(t, err)
	assert.True(t, st.IsComplete)
	assert.Equal(t, domain.TaskStatusPending, store.tasks[task.ID].Status)
}
