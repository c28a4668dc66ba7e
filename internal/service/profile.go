package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nova-hq/nova/internal/domain"
	"github.com/nova-hq/nova/internal/repository"
)

// ProfileStore is implemented by repository.ProfileRepo.
type ProfileStore interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	Upsert(ctx context.Context, p repository.UpsertProfileParams) (*domain.Profile, error)
}

type ProfileService struct {
	repo     ProfileStore
	notifier Notifier
}

func NewProfileService(repo ProfileStore, notifier Notifier) *ProfileService {
	return &ProfileService{repo: repo, notifier: notifier}
}

func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		slog.Error("get profile", "error", err, "user_id", userID)
		s.notifier.Error(userID, "Failed to load profile")
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteFetch, err)
	}
	return p, nil
}

type ProfileInput struct {
	DisplayName             string
	Bio                     string
	Email                   string
	Phone                   string
	Website                 string
	Location                string
	Company                 string
	JobTitle                string
	BirthDate               *string // YYYY-MM-DD
	Language                string
	NotificationPreferences domain.NotificationPreferences
}

func (s *ProfileService) Save(ctx context.Context, userID uuid.UUID, in ProfileInput) (*domain.Profile, error) {
	if in.Language == "" {
		in.Language = "en"
	}

	p, err := s.repo.Upsert(ctx, repository.UpsertProfileParams{
		ID:                      userID,
		DisplayName:             in.DisplayName,
		Bio:                     in.Bio,
		Email:                   in.Email,
		Phone:                   in.Phone,
		Website:                 in.Website,
		Location:                in.Location,
		Company:                 in.Company,
		JobTitle:                in.JobTitle,
		BirthDate:               in.BirthDate,
		Language:                in.Language,
		NotificationPreferences: in.NotificationPreferences,
	})
	if err != nil {
		slog.Error("save profile", "error", err, "user_id", userID)
		s.notifier.Error(userID, "Failed to update profile")
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteWrite, err)
	}

	s.notifier.Success(userID, "Profile updated successfully")
	return p, nil
}
