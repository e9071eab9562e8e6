// Package store is the Postgres adapter for profiles, health records,
// clinics, appointments, and the LLM usage audit log, plus the daily and
// weekly summary builders layered on top of those reads.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medpulse-ai/backend/internal/health"
)

// Store is the surface the rest of the service depends on. Single-entity
// lookups return nil, nil when the row is absent; every other failure is a
// *StorageError wrapping the cause.
type Store interface {
	Ping(ctx context.Context) error

	GetProfile(ctx context.Context, userID string) (*health.Profile, error)
	GetAllProfiles(ctx context.Context) ([]health.Profile, error)

	SelectRecords(ctx context.Context, userID string, date *time.Time, category health.Category) ([]health.Record, error)
	SelectRecordsByRange(ctx context.Context, userID string, start, end time.Time, category health.Category) ([]health.Record, error)
	InsertRecord(ctx context.Context, userID string, date time.Time, details map[string]any, category health.Category) (health.Record, error)

	GetAllClinics(ctx context.Context) ([]health.Clinic, error)
	GetClinicsByCategory(ctx context.Context, substring string) ([]health.Clinic, error)
	GetClinic(ctx context.Context, id string) (*health.Clinic, error)

	GetUserAppointments(ctx context.Context, userID string, activeOnly bool) ([]health.Appointment, error)
	CreateAppointment(ctx context.Context, userID, clinicID string, date time.Time) (health.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id string, active bool) (*health.Appointment, error)

	RecordLLMUsage(ctx context.Context, usage health.LLMUsage) error

	BuildDailySummary(ctx context.Context, userID string, date time.Time) (health.Summary, error)
	BuildWeeklySummary(ctx context.Context, userID string, endDate time.Time) (health.Summary, error)
}

// StorageError is the single failure kind every storage operation reports.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// PG implements Store over a shared pgx pool.
type PG struct {
	pool *pgxpool.Pool
}

var _ Store = (*PG)(nil)

func New(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

// Ping checks database reachability for the status endpoint.
func (p *PG) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return storageErr("ping", err)
	}
	return nil
}

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
