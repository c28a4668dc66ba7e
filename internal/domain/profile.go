package domain

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID          uuid.UUID
	DisplayName string
	Bio         string
	Email       string
	Phone       string
	Website     string
	Location    string
	Company     string
	JobTitle    string
	BirthDate   *time.Time
	Language    string

	NotificationPreferences NotificationPreferences

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NotificationPreferences is stored as a JSONB column on profiles.
type NotificationPreferences struct {
	Email   bool `json:"email"`
	Push    bool `json:"push"`
	Desktop bool `json:"desktop"`
}

func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{Email: true, Push: true, Desktop: true}
}
