package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	IntegrationConnected    = "connected"
	IntegrationDisconnected = "disconnected"
)

type Integration struct {
	UserID    uuid.UUID
	Service   string
	Status    string
	Pinned    bool
	UpdatedAt time.Time
}

// IntegrationService is a catalog entry for a connectable third-party service.
type IntegrationService struct {
	ID          string
	Name        string
	Description string
	Category    string
	Website     string
}

func (i *Integration) IsConnected() bool {
	return i.Status == IntegrationConnected
}
