package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

type Task struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Title       string
	Description string
	Deadline    *time.Time
	Status      string
	Priority    string
	Category    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Subtasks    []Subtask
}

type Subtask struct {
	ID         uuid.UUID
	TaskID     uuid.UUID
	Title      string
	IsComplete bool
	CreatedAt  time.Time
}

func ValidTaskStatus(s string) bool {
	return s == TaskStatusPending || s == TaskStatusInProgress || s == TaskStatusCompleted
}

func ValidTaskPriority(p string) bool {
	return p == TaskPriorityLow || p == TaskPriorityMedium || p == TaskPriorityHigh
}
