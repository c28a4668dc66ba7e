package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nova-hq/nova/internal/domain"
	"github.com/nova-hq/nova/internal/middleware"
	"github.com/nova-hq/nova/internal/service"
)

type integrationEntryResponse struct {
	Service     string `json:"service"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Website     string `json:"website"`
	Connected   bool   `json:"connected"`
	Pinned      bool   `json:"pinned"`
}

type integrationResponse struct {
	Service   string    `json:"service"`
	Status    string    `json:"status"`
	Pinned    bool      `json:"pinned"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toIntegrationEntryResponse(e service.IntegrationEntry) integrationEntryResponse {
	return integrationEntryResponse{
		Service:     e.ID,
		Name:        e.Name,
		Description: e.Description,
		Category:    e.Category,
		Website:     e.Website,
		Connected:   e.Connected,
		Pinned:      e.Pinned,
	}
}

func toIntegrationResponse(in domain.Integration) integrationResponse {
	return integrationResponse{
		Service:   in.Service,
		Status:    in.Status,
		Pinned:    in.Pinned,
		UpdatedAt: in.UpdatedAt,
	}
}

func (h *Handler) handleListIntegrations(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	entries, err := h.integrations.List(r.Context(), userID)
	if err != nil {
		Fail(w, err)
		return
	}

	out := make([]integrationEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = toIntegrationEntryResponse(e)
	}
	JSON(w, http.StatusOK, out)
}

func (h *Handler) handleConnectIntegration(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	in, err := h.integrations.Connect(r.Context(), userID, chi.URLParam(r, "service"))
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, toIntegrationResponse(*in))
}

func (h *Handler) handleDisconnectIntegration(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	in, err := h.integrations.Disconnect(r.Context(), userID, chi.URLParam(r, "service"))
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, toIntegrationResponse(*in))
}

func (h *Handler) handlePinIntegration(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	in, err := h.integrations.TogglePin(r.Context(), userID, chi.URLParam(r, "service"))
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, toIntegrationResponse(*in))
}

// handleIntegrationPreview scrapes display metadata from the service's
// website.
func (h *Handler) handleIntegrationPreview(w http.ResponseWriter, r *http.Request) {
	svc := chi.URLParam(r, "service")

	var website string
	for _, entry := range service.Catalog() {
		if entry.ID == svc {
			website = entry.Website
			break
		}
	}
	if website == "" {
		Fail(w, domain.ErrUnknownService)
		return
	}

	preview, err := h.previews.Fetch(r.Context(), website)
	if err != nil {
		Error(w, http.StatusBadGateway, err.Error())
		return
	}
	JSON(w, http.StatusOK, preview)
}

func (h *Handler) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	sum, err := h.dashboard.Summary(r.Context(), userID)
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, sum)
}
