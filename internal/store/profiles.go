package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/medpulse-ai/backend/internal/health"
)

func (p *PG) GetProfile(ctx context.Context, userID string) (*health.Profile, error) {
	var (
		profile   health.Profile
		birthDate *time.Time
		createdAt *time.Time
	)
	err := p.pool.QueryRow(
		ctx,
		`SELECT id, COALESCE(full_name, ''), birth_date, COALESCE(phone, ''), COALESCE(email, ''), created_at
		 FROM profiles
		 WHERE id = $1`,
		userID,
	).Scan(&profile.ID, &profile.FullName, &birthDate, &profile.Phone, &profile.Email, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get profile", err)
	}
	if birthDate != nil {
		profile.BirthDate = formatDate(*birthDate)
	}
	profile.CreatedAt = createdAt
	return &profile, nil
}

func (p *PG) GetAllProfiles(ctx context.Context) ([]health.Profile, error) {
	rows, err := p.pool.Query(
		ctx,
		`SELECT id, COALESCE(full_name, ''), birth_date, COALESCE(phone, ''), COALESCE(email, ''), created_at
		 FROM profiles
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, storageErr("list profiles", err)
	}
	defer rows.Close()

	profiles := make([]health.Profile, 0)
	for rows.Next() {
		var (
			profile   health.Profile
			birthDate *time.Time
			createdAt *time.Time
		)
		if err := rows.Scan(&profile.ID, &profile.FullName, &birthDate, &profile.Phone, &profile.Email, &createdAt); err != nil {
			return nil, storageErr("list profiles", err)
		}
		if birthDate != nil {
			profile.BirthDate = formatDate(*birthDate)
		}
		profile.CreatedAt = createdAt
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list profiles", err)
	}
	return profiles, nil
}
