// Package api provides HTTP handlers for the Nova API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nova-hq/nova/internal/domain"
	"github.com/nova-hq/nova/internal/notify"
	"github.com/nova-hq/nova/internal/service"
)

// Handler holds all dependencies needed by the route handlers.
type Handler struct {
	chat         *service.ChatService
	tasks        *service.TaskService
	profiles     *service.ProfileService
	integrations *service.IntegrationHub
	dashboard    *service.DashboardService
	previews     *service.LinkPreviewService
	sink         *notify.Sink
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Chat         *service.ChatService
	Tasks        *service.TaskService
	Profiles     *service.ProfileService
	Integrations *service.IntegrationHub
	Dashboard    *service.DashboardService
	Previews     *service.LinkPreviewService
	Sink         *notify.Sink
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		chat:         deps.Chat,
		tasks:        deps.Tasks,
		profiles:     deps.Profiles,
		integrations: deps.Integrations,
		dashboard:    deps.Dashboard,
		previews:     deps.Previews,
		sink:         deps.Sink,
	}
}

// RegisterRoutes mounts all API routes on the given router. The caller is
// expected to have the user loader middleware installed already.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/chat", func(r chi.Router) {
		r.Get("/sessions", h.handleLoadSessions)
		r.Post("/sessions", h.handleCreateSession)
		r.Patch("/sessions/{id}", h.handleRenameSession)
		r.Delete("/sessions/{id}", h.handleDeleteSession)
		r.Post("/sessions/{id}/activate", h.handleActivateSession)
		r.Post("/messages", h.handleSendMessage)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.handleListTasks)
		r.Post("/", h.handleCreateTask)
		r.Get("/calendar", h.handleCalendar)
		r.Patch("/{id}", h.handleUpdateTask)
		r.Patch("/{id}/status", h.handleTaskStatus)
		r.Delete("/{id}", h.handleDeleteTask)
		r.Post("/{id}/subtasks", h.handleAddSubtask)
	})

	r.Route("/subtasks", func(r chi.Router) {
		r.Patch("/{id}/toggle", h.handleToggleSubtask)
		r.Delete("/{id}", h.handleDeleteSubtask)
	})

	r.Get("/profile", h.handleGetProfile)
	r.Put("/profile", h.handleSaveProfile)

	r.Route("/integrations", func(r chi.Router) {
		r.Get("/", h.handleListIntegrations)
		r.Post("/{service}/connect", h.handleConnectIntegration)
		r.Post("/{service}/disconnect", h.handleDisconnectIntegration)
		r.Post("/{service}/pin", h.handlePinIntegration)
		r.Get("/{service}/preview", h.handleIntegrationPreview)
	})

	r.Get("/dashboard/summary", h.handleDashboardSummary)

	r.Get("/notifications", h.handleNotifications)
	r.Get("/notifications/ws", h.handleNotificationsWS)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Fail maps a service error to an HTTP status and writes it.
func Fail(w http.ResponseWriter, err error) {
	Error(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrSubtaskNotFound),
		errors.Is(err, domain.ErrProfileNotFound),
		errors.Is(err, domain.ErrIntegrationNotFound),
		errors.Is(err, domain.ErrUnknownService):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoActiveSession),
		errors.Is(err, domain.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrActiveRequest):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrCompletion),
		errors.Is(err, domain.ErrRemoteFetch),
		errors.Is(err, domain.ErrRemoteWrite):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
