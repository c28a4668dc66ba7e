package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Session struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Title       string
	Model       string
	Temperature float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Messages    []Message
}

// Message is one turn in a session. Immutable once created.
type Message struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Role      string
	Content   string
	CreatedAt time.Time
}
