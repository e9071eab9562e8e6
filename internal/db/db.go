// Package db builds the shared pgx connection pool. Hosted Postgres
// providers hand out URLs with pooler-specific query keys (pgbouncer,
// connection_limit, schema) that pgx refuses to parse, so the raw URL is
// normalized before the pool is configured.
package db

import (
	"context"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var supportedPGQueryKeys = map[string]struct{}{
	"application_name":          {},
	"channel_binding":           {},
	"client_encoding":           {},
	"connect_timeout":           {},
	"host":                      {},
	"keepalives":                {},
	"keepalives_count":          {},
	"keepalives_idle":           {},
	"keepalives_interval":       {},
	"options":                   {},
	"passfile":                  {},
	"pool_health_check_period":  {},
	"pool_max_conn_idle_time":   {},
	"pool_max_conn_lifetime":    {},
	"pool_max_conns":            {},
	"pool_min_conns":            {},
	"service":                   {},
	"sslcert":                   {},
	"sslcrl":                    {},
	"sslkey":                    {},
	"sslmode":                   {},
	"sslpassword":               {},
	"sslrootcert":               {},
	"target_session_attrs":      {},
}

func Connect(ctx context.Context, rawURL string) (*pgxpool.Pool, error) {
	normalized := normalizeDatabaseURL(rawURL)
	cfg, err := pgxpool.ParseConfig(normalized)
	if err != nil {
		return nil, err
	}
	return pgxpool.NewWithConfig(ctx, cfg)
}

func normalizeDatabaseURL(rawURL string) string {
	normalized := strings.TrimSpace(rawURL)
	if strings.HasPrefix(normalized, "postgresql+asyncpg://") {
		normalized = strings.Replace(normalized, "postgresql+asyncpg://", "postgres://", 1)
	}
	if strings.HasPrefix(normalized, "postgresql+psycopg://") {
		normalized = strings.Replace(normalized, "postgresql+psycopg://", "postgres://", 1)
	}
	if strings.HasPrefix(normalized, "postgresql://") {
		normalized = strings.Replace(normalized, "postgresql://", "postgres://", 1)
	}

	parsed, err := url.Parse(normalized)
	if err != nil {
		return normalized
	}
	if parsed.Scheme != "postgres" {
		return normalized
	}

	queries := parsed.Query()
	filtered := make(url.Values)
	for key, values := range queries {
		if _, ok := supportedPGQueryKeys[key]; ok {
			for _, v := range values {
				filtered.Add(key, v)
			}
		}
	}
	parsed.RawQuery = filtered.Encode()
	return parsed.String()
}
