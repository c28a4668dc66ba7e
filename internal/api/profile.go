package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nova-hq/nova/internal/domain"
	"github.com/nova-hq/nova/internal/middleware"
	"github.com/nova-hq/nova/internal/service"
)

type profileResponse struct {
	ID                      uuid.UUID                      `json:"id"`
	DisplayName             string                         `json:"display_name"`
	Bio                     string                         `json:"bio"`
	Email                   string                         `json:"email"`
	Phone                   string                         `json:"phone"`
	Website                 string                         `json:"website"`
	Location                string                         `json:"location"`
	Company                 string                         `json:"company"`
	JobTitle                string                         `json:"job_title"`
	BirthDate               *string                        `json:"birth_date"`
	Language                string                         `json:"language"`
	NotificationPreferences domain.NotificationPreferences `json:"notification_preferences"`
	CreatedAt               time.Time                      `json:"created_at"`
	UpdatedAt               time.Time                      `json:"updated_at"`
}

func toProfileResponse(p domain.Profile) profileResponse {
	var birthDate *string
	if p.BirthDate != nil {
		s := p.BirthDate.Format("2006-01-02")
		birthDate = &s
	}
	return profileResponse{
		ID:                      p.ID,
		DisplayName:             p.DisplayName,
		Bio:                     p.Bio,
		Email:                   p.Email,
		Phone:                   p.Phone,
		Website:                 p.Website,
		Location:                p.Location,
		Company:                 p.Company,
		JobTitle:                p.JobTitle,
		BirthDate:               birthDate,
		Language:                p.Language,
		NotificationPreferences: p.NotificationPreferences,
		CreatedAt:               p.CreatedAt,
		UpdatedAt:               p.UpdatedAt,
	}
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	p, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, toProfileResponse(*p))
}

type profileRequest struct {
	DisplayName             string                         `json:"display_name"`
	Bio                     string                         `json:"bio"`
	Email                   string                         `json:"email"`
	Phone                   string                         `json:"phone"`
	Website                 string                         `json:"website"`
	Location                string                         `json:"location"`
	Company                 string                         `json:"company"`
	JobTitle                string                         `json:"job_title"`
	BirthDate               *string                        `json:"birth_date"`
	Language                string                         `json:"language"`
	NotificationPreferences domain.NotificationPreferences `json:"notification_preferences"`
}

func (h *Handler) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.BirthDate != nil {
		if _, err := time.Parse("2006-01-02", *req.BirthDate); err != nil {
			Error(w, http.StatusBadRequest, "invalid birth_date, expected YYYY-MM-DD")
			return
		}
	}

	p, err := h.profiles.Save(r.Context(), userID, service.ProfileInput{
		DisplayName:             req.DisplayName,
		Bio:                     req.Bio,
		Email:                   req.Email,
		Phone:                   req.Phone,
		Website:                 req.Website,
		Location:                req.Location,
		Company:                 req.Company,
		JobTitle:                req.JobTitle,
		BirthDate:               req.BirthDate,
		Language:                req.Language,
		NotificationPreferences: req.NotificationPreferences,
	})
	if err != nil {
		Fail(w, err)
		return
	}
	JSON(w, http.StatusOK, toProfileResponse(*p))
}
