package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medpulse-ai/backend/internal/health"
)

const recordColumns = `id, user_id, COALESCE(category, ''), record_date, COALESCE(details, ''), created_at`

func (p *PG) SelectRecords(ctx context.Context, userID string, date *time.Time, category health.Category) ([]health.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM health_records WHERE user_id = $1`
	args := []any{userID}
	if date != nil {
		args = append(args, date.UTC())
		query += fmt.Sprintf(" AND record_date = $%d", len(args))
	}
	if category != "" {
		args = append(args, string(category))
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("select records", err)
	}
	defer rows.Close()
	return scanRecords(rows, "select records")
}

func (p *PG) SelectRecordsByRange(ctx context.Context, userID string, start, end time.Time, category health.Category) ([]health.Record, error) {
	query := `SELECT ` + recordColumns + `
	 FROM health_records
	 WHERE user_id = $1
	   AND record_date >= $2
	   AND record_date <= $3`
	args := []any{userID, start.UTC(), end.UTC()}
	if category != "" {
		args = append(args, string(category))
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	query += ` ORDER BY record_date DESC, created_at DESC`

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("select records by range", err)
	}
	defer rows.Close()
	return scanRecords(rows, "select records by range")
}

func (p *PG) InsertRecord(ctx context.Context, userID string, date time.Time, details map[string]any, category health.Category) (health.Record, error) {
	id := uuid.NewString()
	encoded := health.EncodeDetails(details)

	var createdAt time.Time
	err := p.pool.QueryRow(
		ctx,
		`INSERT INTO health_records (id, user_id, category, record_date, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 RETURNING created_at`,
		id,
		userID,
		string(category),
		date.UTC(),
		encoded,
	).Scan(&createdAt)
	if err != nil {
		return health.Record{}, storageErr("insert record", err)
	}

	return health.Record{
		ID:        id,
		UserID:    userID,
		Category:  category,
		Date:      formatDate(date),
		Details:   health.DecodeDetails(encoded),
		CreatedAt: createdAt.UTC(),
	}, nil
}

func scanRecords(rows pgx.Rows, op string) ([]health.Record, error) {
	records := make([]health.Record, 0)
	for rows.Next() {
		var (
			record     health.Record
			category   string
			recordDate time.Time
			rawDetails string
			createdAt  time.Time
		)
		if err := rows.Scan(&record.ID, &record.UserID, &category, &recordDate, &rawDetails, &createdAt); err != nil {
			return nil, storageErr(op, err)
		}
		record.Category = health.Category(category)
		record.Date = formatDate(recordDate)
		record.Details = health.DecodeDetails(rawDetails)
		record.CreatedAt = createdAt.UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return records, nil
}
