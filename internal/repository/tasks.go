package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nova-hq/nova/internal/domain"
)

type TaskRepo struct {
	db *pgxpool.Pool
}

func NewTaskRepo(db *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{db: db}
}

const taskColumns = "id, user_id, title, description, deadline, status, priority, category, created_at, updated_at"

// ListByUser returns the user's tasks, newest first, each with its subtasks
// in ascending creation order.
func (r *TaskRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Task, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	for i := range tasks {
		subs, err := r.ListSubtasks(ctx, tasks[i].ID)
		if err != nil {
			return nil, err
		}
		tasks[i].Subtasks = subs
	}
	return tasks, nil
}

// ListByDeadlineRange returns tasks whose deadline falls in [from, to).
func (r *TaskRepo) ListByDeadlineRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Task, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = $1 AND deadline >= $2 AND deadline < $3
		ORDER BY deadline ASC`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list tasks by deadline: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks by deadline: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	row := r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	subs, err := r.ListSubtasks(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Subtasks = subs
	return t, nil
}

type CreateTaskParams struct {
	UserID      uuid.UUID
	Title       string
	Description string
	Deadline    *time.Time
	Status      string
	Priority    string
	Category    string
}

func (r *TaskRepo) Create(ctx context.Context, p CreateTaskParams) (*domain.Task, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO tasks (user_id, title, description, deadline, status, priority, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+taskColumns,
		p.UserID, p.Title, p.Description, p.Deadline, p.Status, p.Priority, p.Category)
	t, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	t.Subtasks = []domain.Subtask{}
	return t, nil
}

type UpdateTaskParams struct {
	ID          uuid.UUID
	Title       string
	Description string
	Deadline    *time.Time
	Priority    string
	Category    string
}

func (r *TaskRepo) Update(ctx context.Context, p UpdateTaskParams) (*domain.Task, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE tasks
		SET title = $2, description = $3, deadline = $4, priority = $5, category = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+taskColumns,
		p.ID, p.Title, p.Description, p.Deadline, p.Priority, p.Category)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	return t, nil
}

func (r *TaskRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE tasks SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// Delete removes the task; subtasks cascade in SQL.
func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepo) CreateSubtask(ctx context.Context, taskID uuid.UUID, title string) (*domain.Subtask, error) {
	var st domain.Subtask
	err := r.db.QueryRow(ctx, `
		INSERT INTO subtasks (task_id, title)
		VALUES ($1, $2)
		RETURNING id, task_id, title, is_complete, created_at`,
		taskID, title).
		Scan(&st.ID, &st.TaskID, &st.Title, &st.IsComplete, &st.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create subtask: %w", err)
	}
	return &st, nil
}

func (r *TaskRepo) ListSubtasks(ctx context.Context, taskID uuid.UUID) ([]domain.Subtask, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, task_id, title, is_complete, created_at
		FROM subtasks
		WHERE task_id = $1
		ORDER BY created_at ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	defer rows.Close()

	subs := []domain.Subtask{}
	for rows.Next() {
		var st domain.Subtask
		if err := rows.Scan(&st.ID, &st.TaskID, &st.Title, &st.IsComplete, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subtask: %w", err)
		}
		subs = append(subs, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	return subs, nil
}

// SetSubtaskComplete flips is_complete and returns the updated subtask.
func (r *TaskRepo) SetSubtaskComplete(ctx context.Context, id uuid.UUID, complete bool) (*domain.Subtask, error) {
	var st domain.Subtask
	err := r.db.QueryRow(ctx, `
		UPDATE subtasks SET is_complete = $2 WHERE id = $1
		RETURNING id, task_id, title, is_complete, created_at`,
		id, complete).
		Scan(&st.ID, &st.TaskID, &st.Title, &st.IsComplete, &st.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSubtaskNotFound
		}
		return nil, fmt.Errorf("set subtask complete: %w", err)
	}
	return &st, nil
}

func (r *TaskRepo) GetSubtask(ctx context.Context, id uuid.UUID) (*domain.Subtask, error) {
	var st domain.Subtask
	err := r.db.QueryRow(ctx, `
		SELECT id, task_id, title, is_complete, created_at
		FROM subtasks WHERE id = $1`, id).
		Scan(&st.ID, &st.TaskID, &st.Title, &st.IsComplete, &st.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSubtaskNotFound
		}
		return nil, fmt.Errorf("get subtask: %w", err)
	}
	return &st, nil
}

func (r *TaskRepo) DeleteSubtask(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM subtasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subtask: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubtaskNotFound
	}
	return nil
}

func (r *TaskRepo) CountOpenByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `
		SELECT count(*) FROM tasks WHERE user_id = $1 AND status <> 'completed'`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count open tasks: %w", err)
	}
	return count, nil
}

func (r *TaskRepo) CountDueBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `
		SELECT count(*) FROM tasks
		WHERE user_id = $1 AND status <> 'completed' AND deadline >= $2 AND deadline < $3`,
		userID, from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count due tasks: %w", err)
	}
	return count, nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Deadline,
		&t.Status, &t.Priority, &t.Category, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
