package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nova-hq/nova/internal/domain"
)

// IntegrationStore is implemented by repository.IntegrationRepo.
type IntegrationStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Integration, error)
	Get(ctx context.Context, userID uuid.UUID, service string) (*domain.Integration, error)
	SetStatus(ctx context.Context, userID uuid.UUID, service, status string) (*domain.Integration, error)
	SetPinned(ctx context.Context, userID uuid.UUID, service string, pinned bool) (*domain.Integration, error)
}

// Catalog of connectable services shown in the integration hub.
var integrationCatalog = []domain.IntegrationService{
	{ID: "slack", Name: "Slack", Description: "Team messaging and collaboration", Category: "Communication", Website: "https://slack.com"},
	{ID: "github", Name: "GitHub", Description: "Code hosting and review", Category: "Development", Website: "https://github.com"},
	{ID: "google_drive", Name: "Google Drive", Description: "Cloud file storage and sharing", Category: "Storage", Website: "https://drive.google.com"},
	{ID: "notion", Name: "Notion", Description: "Docs, wikis and knowledge bases", Category: "Productivity", Website: "https://notion.so"},
	{ID: "figma", Name: "Figma", Description: "Collaborative interface design", Category: "Design", Website: "https://figma.com"},
	{ID: "aws", Name: "AWS", Description: "Cloud computing services and infrastructure", Category: "Infrastructure", Website: "https://aws.amazon.com"},
	{ID: "stripe", Name: "Stripe", Description: "Payments infrastructure", Category: "Finance", Website: "https://stripe.com"},
	{ID: "zoom", Name: "Zoom", Description: "Video meetings and webinars", Category: "Communication", Website: "https://zoom.us"},
	{ID: "trello", Name: "Trello", Description: "Kanban boards for project tracking", Category: "Productivity", Website: "https://trello.com"},
	{ID: "dropbox", Name: "Dropbox", Description: "File sync and backup", Category: "Storage", Website: "https://dropbox.com"},
	{ID: "salesforce", Name: "Salesforce", Description: "Customer relationship management", Category: "Sales", Website: "https://salesforce.com"},
	{ID: "hubspot", Name: "HubSpot", Description: "Marketing and CRM platform", Category: "Sales", Website: "https://hubspot.com"},
}

// IntegrationEntry is a catalog entry merged with the user's row, if any.
type IntegrationEntry struct {
	domain.IntegrationService
	Connected bool
	Pinned    bool
}

type IntegrationHub struct {
	repo     IntegrationStore
	notifier Notifier
}

func NewIntegrationHub(repo IntegrationStore, notifier Notifier) *IntegrationHub {
	return &IntegrationHub{repo: repo, notifier: notifier}
}

// Catalog returns the known services.
func Catalog() []domain.IntegrationService {
	out := make([]domain.IntegrationService, len(integrationCatalog))
	copy(out, integrationCatalog)
	return out
}

func catalogEntry(service string) (domain.IntegrationService, bool) {
	for _, svc := range integrationCatalog {
		if svc.ID == service {
			return svc, true
		}
	}
	return domain.IntegrationService{}, false
}

// List merges the catalog with the user's integration rows, pinned
// services first.
func (h *IntegrationHub) List(ctx context.Context, userID uuid.UUID) ([]IntegrationEntry, error) {
	rows, err := h.repo.ListByUser(ctx, userID)
	if err != nil {
		slog.Error("list integrations", "error", err, "user_id", userID)
		h.notifier.Error(userID, "Failed to load integrations")
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteFetch, err)
	}

	byService := make(map[string]domain.Integration, len(rows))
	for _, r := range rows {
		byService[r.Service] = r
	}

	var pinned, rest []IntegrationEntry
	for _, svc := range integrationCatalog {
		entry := IntegrationEntry{IntegrationService: svc}
		if row, ok := byService[svc.ID]; ok {
			entry.Connected = row.IsConnected()
			entry.Pinned = row.Pinned
		}
		if entry.Pinned {
			pinned = append(pinned, entry)
		} else {
			rest = append(rest, entry)
		}
	}
	return append(pinned, rest...), nil
}

func (h *IntegrationHub) Connect(ctx context.Context, userID uuid.UUID, service string) (*domain.Integration, error) {
	if _, ok := catalogEntry(service); !ok {
		return nil, domain.ErrUnknownService
	}
	in, err := h.repo.SetStatus(ctx, userID, service, domain.IntegrationConnected)
	if err != nil {
		slog.Error("connect integration", "error", err, "service", service)
		h.notifier.Error(userID, "Failed to connect integration")
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteWrite, err)
	}
	h.notifier.Success(userID, "Integration connected successfully")
	return in, nil
}

func (h *IntegrationHub) Disconnect(ctx context.Context, userID uuid.UUID, service string) (*domain.Integration, error) {
	if _, ok := catalogEntry(service); !ok {
		return nil, domain.ErrUnknownService
	}
	in, err := h.repo.SetStatus(ctx, userID, service, domain.IntegrationDisconnected)
	if err != nil {
		slog.Error("disconnect integration", "error", err, "service", service)
		h.notifier.Error(userID, "Failed to disconnect integration")
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteWrite, err)
	}
	h.notifier.Success(userID, "Integration disconnected")
	return in, nil
}

// TogglePin flips the pinned flag, creating a disconnected row when the
// user pins a service before connecting it.
func (h *IntegrationHub) TogglePin(ctx context.Context, userID uuid.UUID, service string) (*domain.Integration, error) {
	if _, ok := catalogEntry(service); !ok {
		return nil, domain.ErrUnknownService
	}

	pinned := true
	existing, err := h.repo.Get(ctx, userID, service)
	if err == nil {
		pinned = !existing.Pinned
	} else if err != domain.ErrIntegrationNotFound {
		slog.Error("get integration", "error", err, "service", service)
		h.notifier.Error(userID, "Failed to update favorites")
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteFetch, err)
	}

	in, err := h.repo.SetPinned(ctx, userID, service, pinned)
	if err != nil {
		slog.Error("pin integration", "error", err, "service", service)
		h.notifier.Error(userID, "Failed to update favorites")
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteWrite, err)
	}

	if pinned {
		h.notifier.Success(userID, "Integration pinned to favorites")
	} else {
		h.notifier.Success(userID, "Integration unpinned from favorites")
	}
	return in, nil
}
