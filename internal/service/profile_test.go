package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nova-hq/nova/internal/domain"
	"github.com/nova-hq/nova/internal/repository"
)

type fakeProfileStore struct {
	profiles  map[uuid.UUID]*domain.Profile
	upsertErr error
	lastSave  repository.UpsertProfileParams
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[uuid.UUID]*domain.Profile)}
}

func (f *fakeProfileStore) Get(_ context.Context, id uuid.UUID) (*domain.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileStore) Upsert(_ context.Context, p repository.UpsertProfileParams) (*domain.Profile, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	f.lastSave = p

	var birthDate *time.Time
	if p.BirthDate != nil {
		d, err := time.Parse("2006-01-02", *p.BirthDate)
		if err != nil {
			return nil, err
		}
		birthDate = &d
	}
	out := &domain.Profile{
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
		UpdatedAt:               time.Now(),
	}
	f.profiles[p.ID] = out
	cp := *out
	return &cp, nil
}

func TestSaveProfileDefaultsLanguage(t *testing.T) {
	store := newFakeProfileStore()
	notifier := &fakeNotifier{}
	svc := NewProfileService(store, notifier)
	userID := uuid.New()

	p, err := svc.Save(context.Background(), userID, ProfileInput{DisplayName: "Nova Pilot"})
	require.NoError(t, err)

	assert.Equal(t, "en", p.Language)
	assert.Equal(t, "Nova Pilot", store.lastSave.DisplayName)
	assert.Contains(t, notifier.all(), "success: Profile updated successfully")
}

func TestSaveProfileRemoteFailure(t *testing.T) {
	store := newFakeProfileStore()
	store.upsertErr = errors.New("upsert refused")
	notifier := &fakeNotifier{}
	svc := NewProfileService(store, notifier)
	userID := uuid.New()

	_, err := svc.Save(context.Background(), userID, ProfileInput{})
	require.ErrorIs(t, err, domain.ErrRemoteWrite)
	assert.Contains(t, notifier.all(), "error: Failed to update profile")
}

func TestGetProfileMissing(t *testing.T) {
	svc := NewProfileService(newFakeProfileStore(), &fakeNotifier{})

	_, err := svc.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrRemoteFetch)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}
