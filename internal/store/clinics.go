package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/medpulse-ai/backend/internal/health"
)

func (p *PG) GetAllClinics(ctx context.Context) ([]health.Clinic, error) {
	rows, err := p.pool.Query(
		ctx,
		`SELECT id, COALESCE(name, ''), COALESCE(category, ''), COALESCE(email, '')
		 FROM clinics
		 ORDER BY name ASC`,
	)
	if err != nil {
		return nil, storageErr("list clinics", err)
	}
	defer rows.Close()
	return scanClinics(rows, "list clinics")
}

func (p *PG) GetClinicsByCategory(ctx context.Context, substring string) ([]health.Clinic, error) {
	rows, err := p.pool.Query(
		ctx,
		`SELECT id, COALESCE(name, ''), COALESCE(category, ''), COALESCE(email, '')
		 FROM clinics
		 WHERE category ILIKE '%' || $1 || '%'
		 ORDER BY name ASC`,
		substring,
	)
	if err != nil {
		return nil, storageErr("list clinics by category", err)
	}
	defer rows.Close()
	return scanClinics(rows, "list clinics by category")
}

func (p *PG) GetClinic(ctx context.Context, id string) (*health.Clinic, error) {
	var clinic health.Clinic
	err := p.pool.QueryRow(
		ctx,
		`SELECT id, COALESCE(name, ''), COALESCE(category, ''), COALESCE(email, '')
		 FROM clinics
		 WHERE id = $1`,
		id,
	).Scan(&clinic.ID, &clinic.Name, &clinic.Category, &clinic.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get clinic", err)
	}
	return &clinic, nil
}

func scanClinics(rows pgx.Rows, op string) ([]health.Clinic, error) {
	clinics := make([]health.Clinic, 0)
	for rows.Next() {
		var clinic health.Clinic
		if err := rows.Scan(&clinic.ID, &clinic.Name, &clinic.Category, &clinic.Email); err != nil {
			return nil, storageErr(op, err)
		}
		clinics = append(clinics, clinic)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return clinics, nil
}
