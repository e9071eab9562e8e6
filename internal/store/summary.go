package store

import (
	"context"
	"time"

	"github.com/medpulse-ai/backend/internal/health"
)

// weeklyWindowDays is the lookback of the weekly summary: the range is
// [endDate - weeklyWindowDays, endDate] inclusive.
const weeklyWindowDays = 7

func (p *PG) BuildDailySummary(ctx context.Context, userID string, date time.Time) (health.Summary, error) {
	profile, err := p.GetProfile(ctx, userID)
	if err != nil {
		return health.Summary{}, err
	}
	records, err := p.SelectRecords(ctx, userID, &date, "")
	if err != nil {
		return health.Summary{}, err
	}
	return composeDailySummary(userID, date, profile, records), nil
}

func (p *PG) BuildWeeklySummary(ctx context.Context, userID string, endDate time.Time) (health.Summary, error) {
	profile, err := p.GetProfile(ctx, userID)
	if err != nil {
		return health.Summary{}, err
	}
	start := endDate.UTC().AddDate(0, 0, -weeklyWindowDays)
	records, err := p.SelectRecordsByRange(ctx, userID, start, endDate, "")
	if err != nil {
		return health.Summary{}, err
	}
	return composeWeeklySummary(userID, start, endDate, profile, records), nil
}

// composeDailySummary buckets one day of records. TotalRecords is the raw
// fetched count: rows with unrecognized category tags are dropped from the
// buckets but still counted, and the no-data branch downstream keys off this
// same number.
func composeDailySummary(userID string, date time.Time, profile *health.Profile, records []health.Record) health.Summary {
	summary := health.NewSummary(userID)
	summary.Profile = profile
	summary.Date = formatDate(date)
	summary.TotalRecords = len(records)
	for _, record := range records {
		category, ok := health.ParseCategory(string(record.Category))
		if !ok {
			continue
		}
		summary.Add(category, health.SummaryEntry{
			ID:        record.ID,
			Details:   record.Details,
			CreatedAt: record.CreatedAt,
		})
	}
	return summary
}

// composeWeeklySummary is the range variant: entries carry the record date
// where daily entries carry the record id.
func composeWeeklySummary(userID string, start, end time.Time, profile *health.Profile, records []health.Record) health.Summary {
	summary := health.NewSummary(userID)
	summary.Profile = profile
	summary.StartDate = formatDate(start)
	summary.EndDate = formatDate(end)
	summary.TotalRecords = len(records)
	for _, record := range records {
		category, ok := health.ParseCategory(string(record.Category))
		if !ok {
			continue
		}
		summary.Add(category, health.SummaryEntry{
			Date:      record.Date,
			Details:   record.Details,
			CreatedAt: record.CreatedAt,
		})
	}
	return summary
}
