package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/medpulse-ai/backend/internal/ai"
	"github.com/medpulse-ai/backend/internal/config"
	"github.com/medpulse-ai/backend/internal/db"
	"github.com/medpulse-ai/backend/internal/health"
	"github.com/medpulse-ai/backend/internal/insight"
	"github.com/medpulse-ai/backend/internal/metrics"
	"github.com/medpulse-ai/backend/internal/store"
)

var (
	testPool              *pgxpool.Pool
	testStore             *store.PG
	integrationDBReady    bool
	integrationSkipReason string
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	testDatabaseURL := strings.TrimSpace(os.Getenv("TEST_DATABASE_URL"))
	if testDatabaseURL == "" {
		integrationSkipReason = "integration tests skipped: TEST_DATABASE_URL is not set"
		fmt.Fprintln(os.Stderr, integrationSkipReason)
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.Connect(ctx, testDatabaseURL)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "integration test setup failed: cannot connect TEST_DATABASE_URL: %v\n", err)
		os.Exit(1)
	}

	pg := store.New(pool)
	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	err = pg.EnsureSchema(ctx)
	cancel()
	if err != nil {
		pool.Close()
		fmt.Fprintf(os.Stderr, "integration test setup failed: schema bootstrap failed: %v\n", err)
		os.Exit(1)
	}

	testPool = pool
	testStore = pg
	integrationDBReady = true

	exitCode := m.Run()
	testPool.Close()
	os.Exit(exitCode)
}

func newTestConfig() config.Config {
	return config.Config{
		AppEnv:        "test",
		AppName:       "MedPulse API Test",
		APIPrefix:     "/api/v1",
		OpenAIModel:   "gpt-test",
		ReplyLanguage: "English",
		CORSAllowOrigins: []string{
			"http://localhost:5173",
			"http://localhost:3000",
		},
	}
}

// newTestApp wires a full App over any store/gateway pair. Unit tests pass
// fakes; integration tests pass the shared Postgres store.
func newTestApp(cfg config.Config, st store.Store, client ai.Client) *App {
	m := metrics.New()
	insights := insight.New(st, client, m, zerolog.Nop(), cfg)
	return New(cfg, st, client, insights, m, zerolog.Nop())
}

func performRequest(t *testing.T, handler http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		request.Header.Set(key, value)
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	decoded := map[string]any{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response body %q: %v", recorder.Body.String(), err)
	}
	return decoded
}

func requireIntegration(t *testing.T) {
	t.Helper()
	if !integrationDBReady {
		t.Skip(integrationSkipReason)
	}
}

func resetDatabase(t *testing.T) {
	t.Helper()
	requireIntegration(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := testPool.Exec(
		ctx,
		`TRUNCATE TABLE llm_usage_log, appointments, health_records, clinics, profiles CASCADE`,
	)
	if err != nil {
		t.Fatalf("reset database: %v", err)
	}
}

func seedProfile(t *testing.T, fullName string) string {
	t.Helper()
	requireIntegration(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	userID := uuid.NewString()
	_, err := testPool.Exec(
		ctx,
		`INSERT INTO profiles (id, full_name, birth_date, phone, email)
		 VALUES ($1, $2, $3, $4, $5)`,
		userID,
		fullName,
		time.Date(1990, 5, 2, 0, 0, 0, 0, time.UTC),
		"+40-700-111-222",
		strings.ToLower(strings.ReplaceAll(fullName, " ", "."))+"@example.com",
	)
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return userID
}

func seedClinic(t *testing.T, name, category string) string {
	t.Helper()
	requireIntegration(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clinicID := uuid.NewString()
	_, err := testPool.Exec(
		ctx,
		`INSERT INTO clinics (id, name, category, email) VALUES ($1, $2, $3, $4)`,
		clinicID,
		name,
		category,
		"clinic@example.com",
	)
	if err != nil {
		t.Fatalf("seed clinic: %v", err)
	}
	return clinicID
}

// seedRecord goes through the store so tests cover the same serialization
// boundary the API writes through.
func seedRecord(t *testing.T, userID string, category health.Category, date time.Time, details map[string]any) health.Record {
	t.Helper()
	requireIntegration(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	record, err := testStore.InsertRecord(ctx, userID, date, details, category)
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return record
}

// seedRawRecord bypasses category validation so tests can plant rows with
// unknown tags or undecodable detail text.
func seedRawRecord(t *testing.T, userID, category string, date time.Time, rawDetails string) string {
	t.Helper()
	requireIntegration(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	recordID := uuid.NewString()
	_, err := testPool.Exec(
		ctx,
		`INSERT INTO health_records (id, user_id, category, record_date, details)
		 VALUES ($1, $2, $3, $4, $5)`,
		recordID,
		userID,
		category,
		date,
		rawDetails,
	)
	if err != nil {
		t.Fatalf("seed raw record: %v", err)
	}
	return recordID
}
