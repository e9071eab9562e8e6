package store

import (
	"context"
	"fmt"
	"strings"
)

// EnsureSchema creates the tables this service owns when they do not exist
// yet. Local runs and the integration test harness call it; hosted
// deployments keep running their own migrations and rely on ValidateSchema
// at boot instead.
func (p *PG) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			full_name TEXT,
			birth_date DATE,
			phone TEXT,
			email TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS health_records (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			category TEXT,
			record_date DATE NOT NULL,
			details TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_health_records_user_date ON health_records(user_id, record_date)`,
		`CREATE TABLE IF NOT EXISTS clinics (
			id TEXT PRIMARY KEY,
			name TEXT,
			category TEXT,
			email TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS appointments (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			clinic_id TEXT REFERENCES clinics(id),
			appointment_date DATE NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_user ON appointments(user_id)`,
		`CREATE TABLE IF NOT EXISTS llm_usage_log (
			id TEXT PRIMARY KEY,
			user_id TEXT,
			kind TEXT,
			model TEXT,
			prompt_tokens INT NOT NULL DEFAULT 0,
			completion_tokens INT NOT NULL DEFAULT 0,
			total_tokens INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return storageErr("ensure schema", err)
		}
	}
	return nil
}

// ValidateSchema confirms the columns this service reads and writes exist
// before the server starts taking traffic.
func (p *PG) ValidateSchema(ctx context.Context) error {
	requiredColumns := []struct {
		table  string
		column string
	}{
		{table: "profiles", column: "id"},
		{table: "profiles", column: "full_name"},
		{table: "health_records", column: "user_id"},
		{table: "health_records", column: "category"},
		{table: "health_records", column: "record_date"},
		{table: "health_records", column: "details"},
		{table: "clinics", column: "name"},
		{table: "clinics", column: "category"},
		{table: "appointments", column: "clinic_id"},
		{table: "appointments", column: "active"},
		{table: "llm_usage_log", column: "total_tokens"},
	}

	for _, item := range requiredColumns {
		ok, err := p.columnExists(ctx, item.table, item.column)
		if err != nil {
			return storageErr(fmt.Sprintf("check schema for %s.%s", item.table, item.column), err)
		}
		if !ok {
			return storageErr(
				"validate schema",
				fmt.Errorf("required column %s.%s is missing; run migrations or start with EnsureSchema in a local environment", item.table, item.column),
			)
		}
	}
	return nil
}

func (p *PG) columnExists(ctx context.Context, tableName, columnName string) (bool, error) {
	table := strings.TrimSpace(tableName)
	column := strings.TrimSpace(columnName)
	if table == "" || column == "" {
		return false, fmt.Errorf("table/column must not be empty")
	}
	var exists bool
	err := p.pool.QueryRow(
		ctx,
		`SELECT EXISTS (
		   SELECT 1
		   FROM information_schema.columns
		   WHERE table_schema = current_schema()
		     AND lower(table_name) = lower($1)
		     AND lower(column_name) = lower($2)
		 )`,
		table,
		column,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
