package server

import (
	"context"
	"time"

	"github.com/medpulse-ai/backend/internal/ai"
	"github.com/medpulse-ai/backend/internal/health"
)

// fakeStore implements store.Store with overridable function fields so
// handler tests run without Postgres.
type fakeStore struct {
	pingFn           func(ctx context.Context) error
	getProfileFn     func(ctx context.Context, userID string) (*health.Profile, error)
	getAllProfilesFn func(ctx context.Context) ([]health.Profile, error)
	selectRecordsFn  func(ctx context.Context, userID string, date *time.Time, category health.Category) ([]health.Record, error)
	selectByRangeFn  func(ctx context.Context, userID string, start, end time.Time, category health.Category) ([]health.Record, error)
	insertRecordFn   func(ctx context.Context, userID string, date time.Time, details map[string]any, category health.Category) (health.Record, error)
	getAllClinicsFn  func(ctx context.Context) ([]health.Clinic, error)
	getClinicsByCatFn func(ctx context.Context, substring string) ([]health.Clinic, error)
	getClinicFn      func(ctx context.Context, id string) (*health.Clinic, error)
	getAppointmentsFn func(ctx context.Context, userID string, activeOnly bool) ([]health.Appointment, error)
	createApptFn     func(ctx context.Context, userID, clinicID string, date time.Time) (health.Appointment, error)
	updateApptFn     func(ctx context.Context, id string, active bool) (*health.Appointment, error)
	buildDailyFn     func(ctx context.Context, userID string, date time.Time) (health.Summary, error)
	buildWeeklyFn    func(ctx context.Context, userID string, endDate time.Time) (health.Summary, error)
	usageRows        []health.LLMUsage
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

func (f *fakeStore) GetProfile(ctx context.Context, userID string) (*health.Profile, error) {
	if f.getProfileFn != nil {
		return f.getProfileFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeStore) GetAllProfiles(ctx context.Context) ([]health.Profile, error) {
	if f.getAllProfilesFn != nil {
		return f.getAllProfilesFn(ctx)
	}
	return nil, nil
}

func (f *fakeStore) SelectRecords(ctx context.Context, userID string, date *time.Time, category health.Category) ([]health.Record, error) {
	if f.selectRecordsFn != nil {
		return f.selectRecordsFn(ctx, userID, date, category)
	}
	return nil, nil
}

func (f *fakeStore) SelectRecordsByRange(ctx context.Context, userID string, start, end time.Time, category health.Category) ([]health.Record, error) {
	if f.selectByRangeFn != nil {
		return f.selectByRangeFn(ctx, userID, start, end, category)
	}
	return nil, nil
}

func (f *fakeStore) InsertRecord(ctx context.Context, userID string, date time.Time, details map[string]any, category health.Category) (health.Record, error) {
	if f.insertRecordFn != nil {
		return f.insertRecordFn(ctx, userID, date, details, category)
	}
	return health.Record{}, nil
}

func (f *fakeStore) GetAllClinics(ctx context.Context) ([]health.Clinic, error) {
	if f.getAllClinicsFn != nil {
		return f.getAllClinicsFn(ctx)
	}
	return nil, nil
}

func (f *fakeStore) GetClinicsByCategory(ctx context.Context, substring string) ([]health.Clinic, error) {
	if f.getClinicsByCatFn != nil {
		return f.getClinicsByCatFn(ctx, substring)
	}
	return nil, nil
}

func (f *fakeStore) GetClinic(ctx context.Context, id string) (*health.Clinic, error) {
	if f.getClinicFn != nil {
		return f.getClinicFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeStore) GetUserAppointments(ctx context.Context, userID string, activeOnly bool) ([]health.Appointment, error) {
	if f.getAppointmentsFn != nil {
		return f.getAppointmentsFn(ctx, userID, activeOnly)
	}
	return nil, nil
}

func (f *fakeStore) CreateAppointment(ctx context.Context, userID, clinicID string, date time.Time) (health.Appointment, error) {
	if f.createApptFn != nil {
		return f.createApptFn(ctx, userID, clinicID, date)
	}
	return health.Appointment{}, nil
}

func (f *fakeStore) UpdateAppointmentStatus(ctx context.Context, id string, active bool) (*health.Appointment, error) {
	if f.updateApptFn != nil {
		return f.updateApptFn(ctx, id, active)
	}
	return nil, nil
}

func (f *fakeStore) RecordLLMUsage(ctx context.Context, usage health.LLMUsage) error {
	f.usageRows = append(f.usageRows, usage)
	return nil
}

func (f *fakeStore) BuildDailySummary(ctx context.Context, userID string, date time.Time) (health.Summary, error) {
	if f.buildDailyFn != nil {
		return f.buildDailyFn(ctx, userID, date)
	}
	return health.NewSummary(userID), nil
}

func (f *fakeStore) BuildWeeklySummary(ctx context.Context, userID string, endDate time.Time) (health.Summary, error) {
	if f.buildWeeklyFn != nil {
		return f.buildWeeklyFn(ctx, userID, endDate)
	}
	return health.NewSummary(userID), nil
}

// fakeAI records every request and answers with canned text.
type fakeAI struct {
	completeFn func(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error)
	chatFn     func(ctx context.Context, req ai.ChatRequest) (ai.CompletionResponse, error)
	requests   []ai.CompletionRequest
	chats      []ai.ChatRequest
}

func (f *fakeAI) Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error) {
	f.requests = append(f.requests, req)
	if f.completeFn != nil {
		return f.completeFn(ctx, req)
	}
	return ai.CompletionResponse{Text: "ok", Model: "fake"}, nil
}

func (f *fakeAI) CompleteChat(ctx context.Context, req ai.ChatRequest) (ai.CompletionResponse, error) {
	f.chats = append(f.chats, req)
	if f.chatFn != nil {
		return f.chatFn(ctx, req)
	}
	return ai.CompletionResponse{Text: "ok", Model: "fake"}, nil
}
