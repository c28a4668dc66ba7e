package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nova-hq/nova/internal/domain"
	"github.com/nova-hq/nova/internal/middleware"
)

type sessionResponse struct {
	ID        uuid.UUID         `json:"id"`
	UserID    uuid.UUID         `json:"user_id"`
	Title     string            `json:"title"`
	Model     string            `json:"model"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Messages  []messageResponse `json:"messages"`
}

type messageResponse struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionListResponse struct {
	Sessions []sessionResponse `json:"sessions"`
	ActiveID *uuid.UUID        `json:"active_id"`
}

func toSessionResponse(s domain.Session) sessionResponse {
	msgs := make([]messageResponse, len(s.Messages))
	for i, m := range s.Messages {
		msgs[i] = toMessageResponse(m)
	}
	return sessionResponse{
		ID:        s.ID,
		UserID:    s.UserID,
		Title:     s.Title,
		Model:     s.Model,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Messages:  msgs,
	}
}

func toMessageResponse(m domain.Message) messageResponse {
	return messageResponse{
		ID:        m.ID,
		SessionID: m.SessionID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func (h *Handler) sessionList(userID uuid.UUID, sessions []domain.Session) sessionListResponse {
	resp := sessionListResponse{Sessions: make([]sessionResponse, len(sessions))}
	for i, s := range sessions {
		resp.Sessions[i] = toSessionResponse(s)
	}
	if id := h.chat.ActiveID(userID); id != uuid.Nil {
		resp.ActiveID = &id
	}
	return resp
}

// handleLoadSessions hydrates the session list from the remote store.
func (h *Handler) handleLoadSessions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	sessions, err := h.chat.LoadSessions(r.Context(), userID)
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, h.sessionList(userID, sessions))
}

// handleCreateSession creates a new chat and activates it, matching the
// sidebar's new-chat flow.
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	sess, err := h.chat.CreateSession(r.Context(), userID)
	if err != nil {
		Fail(w, err)
		return
	}
	if err := h.chat.SetActive(userID, sess.ID); err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusCreated, toSessionResponse(*sess))
}

type renameSessionRequest struct {
	Title string `json:"title"`
}

func (h *Handler) handleRenameSession(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid session id")
		return
	}

	var req renameSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Titles are accepted as-is, blank included.
	if err := h.chat.RenameSession(r.Context(), userID, id, req.Title); err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid session id")
		return
	}

	if err := h.chat.DeleteSession(r.Context(), userID, id); err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, h.sessionList(userID, h.chat.Sessions(userID)))
}

func (h *Handler) handleActivateSession(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid session id")
		return
	}

	if err := h.chat.SetActive(userID, id); err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "activated"})
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

type sendMessageResponse struct {
	UserMessage      messageResponse  `json:"user_message"`
	AssistantMessage *messageResponse `json:"assistant_message"`
}

// handleSendMessage runs one exchange against the active session. The call
// blocks until the assistant reply is written or the chain fails.
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ex, err := h.chat.SendMessage(r.Context(), userID, req.Content)
	if err != nil {
		Fail(w, err)
		return
	}

	resp := sendMessageResponse{UserMessage: toMessageResponse(*ex.UserMessage)}
	if ex.AssistantMessage != nil {
		m := toMessageResponse(*ex.AssistantMessage)
		resp.AssistantMessage = &m
	}
	JSON(w, http.StatusOK, resp)
}
