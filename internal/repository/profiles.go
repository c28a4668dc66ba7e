package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nova-hq/nova/internal/domain"
)

type ProfileRepo struct {
	db *pgxpool.Pool
}

func NewProfileRepo(db *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{db: db}
}

const profileColumns = `id, display_name, bio, email, phone, website, location, company,
	job_title, birth_date, language, notification_preferences, created_at, updated_at`

func (r *ProfileRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	row := r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

type UpsertProfileParams struct {
	ID                      uuid.UUID
	DisplayName             string
	Bio                     string
	Email                   string
	Phone                   string
	Website                 string
	Location                string
	Company                 string
	JobTitle                string
	BirthDate               *string // YYYY-MM-DD, nil clears
	Language                string
	NotificationPreferences domain.NotificationPreferences
}

func (r *ProfileRepo) Upsert(ctx context.Context, p UpsertProfileParams) (*domain.Profile, error) {
	prefs, err := json.Marshal(p.NotificationPreferences)
	if err != nil {
		return nil, fmt.Errorf("marshal notification preferences: %w", err)
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO profiles (id, display_name, bio, email, phone, website, location, company,
			job_title, birth_date, language, notification_preferences)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			bio = EXCLUDED.bio,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			website = EXCLUDED.website,
			location = EXCLUDED.location,
			company = EXCLUDED.company,
			job_title = EXCLUDED.job_title,
			birth_date = EXCLUDED.birth_date,
			language = EXCLUDED.language,
			notification_preferences = EXCLUDED.notification_preferences,
			updated_at = now()
		RETURNING `+profileColumns,
		p.ID, p.DisplayName, p.Bio, p.Email, p.Phone, p.Website, p.Location, p.Company,
		p.JobTitle, p.BirthDate, p.Language, prefs)

	prof, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return prof, nil
}

// EnsureExists creates an empty profile row for a user seen for the first
// time. Authentication itself happens upstream; Nova only mirrors the id.
func (r *ProfileRepo) EnsureExists(ctx context.Context, id uuid.UUID) error {
	prefs, err := json.Marshal(domain.DefaultNotificationPreferences())
	if err != nil {
		return fmt.Errorf("marshal notification preferences: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO profiles (id, notification_preferences)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`, id, prefs)
	if err != nil {
		return fmt.Errorf("ensure profile: %w", err)
	}
	return nil
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var (
		p     domain.Profile
		prefs []byte
	)
	if err := row.Scan(&p.ID, &p.DisplayName, &p.Bio, &p.Email, &p.Phone, &p.Website,
		&p.Location, &p.Company, &p.JobTitle, &p.BirthDate, &p.Language, &prefs,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &p.NotificationPreferences); err != nil {
			return nil, fmt.Errorf("unmarshal notification preferences: %w", err)
		}
	}
	return &p, nil
}
