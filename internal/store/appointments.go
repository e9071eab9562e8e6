package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medpulse-ai/backend/internal/health"
)

func (p *PG) GetUserAppointments(ctx context.Context, userID string, activeOnly bool) ([]health.Appointment, error) {
	query := `SELECT a.id, a.user_id, a.clinic_id, a.appointment_date, a.active, a.created_at,
	        c.id, c.name, c.category, c.email
	 FROM appointments a
	 LEFT JOIN clinics c ON c.id = a.clinic_id
	 WHERE a.user_id = $1`
	if activeOnly {
		query += ` AND a.active = TRUE`
	}
	query += ` ORDER BY a.appointment_date ASC, a.created_at ASC`

	rows, err := p.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, storageErr("list appointments", err)
	}
	defer rows.Close()

	appointments := make([]health.Appointment, 0)
	for rows.Next() {
		var (
			appointment     health.Appointment
			appointmentDate time.Time
			createdAt       time.Time
			clinicID        *string
			clinicName      *string
			clinicCategory  *string
			clinicEmail     *string
		)
		if err := rows.Scan(
			&appointment.ID,
			&appointment.UserID,
			&appointment.ClinicID,
			&appointmentDate,
			&appointment.Active,
			&createdAt,
			&clinicID,
			&clinicName,
			&clinicCategory,
			&clinicEmail,
		); err != nil {
			return nil, storageErr("list appointments", err)
		}
		appointment.Date = formatDate(appointmentDate)
		appointment.CreatedAt = createdAt.UTC()
		if clinicID != nil {
			clinic := health.Clinic{ID: *clinicID}
			if clinicName != nil {
				clinic.Name = *clinicName
			}
			if clinicCategory != nil {
				clinic.Category = *clinicCategory
			}
			if clinicEmail != nil {
				clinic.Email = *clinicEmail
			}
			appointment.Clinic = &clinic
		}
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list appointments", err)
	}
	return appointments, nil
}

func (p *PG) CreateAppointment(ctx context.Context, userID, clinicID string, date time.Time) (health.Appointment, error) {
	id := uuid.NewString()
	var createdAt time.Time
	err := p.pool.QueryRow(
		ctx,
		`INSERT INTO appointments (id, user_id, clinic_id, appointment_date, active, created_at)
		 VALUES ($1, $2, $3, $4, TRUE, NOW())
		 RETURNING created_at`,
		id,
		userID,
		clinicID,
		date.UTC(),
	).Scan(&createdAt)
	if err != nil {
		return health.Appointment{}, storageErr("create appointment", err)
	}
	return health.Appointment{
		ID:        id,
		UserID:    userID,
		ClinicID:  clinicID,
		Date:      formatDate(date),
		Active:    true,
		CreatedAt: createdAt.UTC(),
	}, nil
}

func (p *PG) UpdateAppointmentStatus(ctx context.Context, id string, active bool) (*health.Appointment, error) {
	var (
		appointment     health.Appointment
		appointmentDate time.Time
		createdAt       time.Time
	)
	err := p.pool.QueryRow(
		ctx,
		`UPDATE appointments
		 SET active = $2
		 WHERE id = $1
		 RETURNING id, user_id, clinic_id, appointment_date, active, created_at`,
		id,
		active,
	).Scan(
		&appointment.ID,
		&appointment.UserID,
		&appointment.ClinicID,
		&appointmentDate,
		&appointment.Active,
		&createdAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("update appointment status", err)
	}
	appointment.Date = formatDate(appointmentDate)
	appointment.CreatedAt = createdAt.UTC()
	return &appointment, nil
}
