package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nova-hq/nova/internal/domain"
	"github.com/nova-hq/nova/internal/middleware"
	"github.com/nova-hq/nova/internal/service"
)

type taskResponse struct {
	ID          uuid.UUID         `json:"id"`
	UserID      uuid.UUID         `json:"user_id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Deadline    *time.Time        `json:"deadline"`
	Status      string            `json:"status"`
	Priority    string            `json:"priority"`
	Category    string            `json:"category"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Subtasks    []subtaskResponse `json:"subtasks"`
}

type subtaskResponse struct {
	ID         uuid.UUID `json:"id"`
	TaskID     uuid.UUID `json:"task_id"`
	Title      string    `json:"title"`
	IsComplete bool      `json:"is_complete"`
	CreatedAt  time.Time `json:"created_at"`
}

func toTaskResponse(t domain.Task) taskResponse {
	subs := make([]subtaskResponse, len(t.Subtasks))
	for i, st := range t.Subtasks {
		subs[i] = toSubtaskResponse(st)
	}
	return taskResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Deadline:    t.Deadline,
		Status:      t.Status,
		Priority:    t.Priority,
		Category:    t.Category,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Subtasks:    subs,
	}
}

func toSubtaskResponse(st domain.Subtask) subtaskResponse {
	return subtaskResponse{
		ID:         st.ID,
		TaskID:     st.TaskID,
		Title:      st.Title,
		IsComplete: st.IsComplete,
		CreatedAt:  st.CreatedAt,
	}
}

func toTaskListResponse(tasks []domain.Task) []taskResponse {
	out := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = toTaskResponse(t)
	}
	return out
}

func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	tasks, err := h.tasks.List(r.Context(), userID)
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, toTaskListResponse(tasks))
}

// handleCalendar returns tasks with a deadline inside [from, to), both
// RFC 3339. Defaults to the current month.
func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 1, 0)

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			Error(w, http.StatusBadRequest, "invalid from timestamp")
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			Error(w, http.StatusBadRequest, "invalid to timestamp")
			return
		}
		to = t
	}

	tasks, err := h.tasks.Calendar(r.Context(), userID, from, to)
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, toTaskListResponse(tasks))
}

type taskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	Subtasks    []string   `json:"subtasks"`
}

func (r taskRequest) input() service.TaskInput {
	return service.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		Deadline:    r.Deadline,
		Priority:    r.Priority,
		Category:    r.Category,
		Subtasks:    r.Subtasks,
	}
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		Error(w, http.StatusBadRequest, "title is required")
		return
	}

	task, err := h.tasks.Create(r.Context(), userID, req.input())
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusCreated, toTaskResponse(*task))
}

func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.tasks.Update(r.Context(), userID, id, req.input())
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, toTaskResponse(*task))
}

type taskStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req taskStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.tasks.SetStatus(r.Context(), userID, id, req.Status); err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid task id")
		return
	}

	if err := h.tasks.Delete(r.Context(), userID, id); err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type subtaskRequest struct {
	Title string `json:"title"`
}

func (h *Handler) handleAddSubtask(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req subtaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		Error(w, http.StatusBadRequest, "title is required")
		return
	}

	st, err := h.tasks.AddSubtask(r.Context(), userID, taskID, req.Title)
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusCreated, toSubtaskResponse(*st))
}

func (h *Handler) handleToggleSubtask(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid subtask id")
		return
	}

	st, err := h.tasks.ToggleSubtask(r.Context(), userID, id)
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, toSubtaskResponse(*st))
}

func (h *Handler) handleDeleteSubtask(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid subtask id")
		return
	}

	if err := h.tasks.DeleteSubtask(r.Context(), userID, id); err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
