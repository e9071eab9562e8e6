package server

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medpulse-ai/backend/internal/health"
)

func (a *App) getDailySummary(c *gin.Context) {
	userID := c.Param("user_id")
	date, ok := dateOrToday(c, c.Query("date"))
	if !ok {
		return
	}

	summary, err := a.store.BuildDailySummary(c.Request.Context(), userID, date)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	if summary.Profile == nil {
		writeError(c, http.StatusNotFound, "User not found")
		return
	}
	writeOK(c, gin.H{"summary": summary})
}

func (a *App) getWeeklySummary(c *gin.Context) {
	userID := c.Param("user_id")
	endDate, ok := dateOrToday(c, c.Query("end_date"))
	if !ok {
		return
	}

	summary, err := a.store.BuildWeeklySummary(c.Request.Context(), userID, endDate)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	if summary.Profile == nil {
		writeError(c, http.StatusNotFound, "User not found")
		return
	}
	writeOK(c, gin.H{"summary": summary})
}

func (a *App) getRecords(c *gin.Context) {
	userID := c.Param("user_id")

	var date *time.Time
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
			return
		}
		date = &parsed
	}

	var category health.Category
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		parsed, ok := health.ParseCategory(raw)
		if !ok {
			writeError(c, http.StatusBadRequest, "Unknown category: "+raw)
			return
		}
		category = parsed
	}

	profile, err := a.store.GetProfile(c.Request.Context(), userID)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	if profile == nil {
		writeError(c, http.StatusNotFound, "User not found")
		return
	}

	records, err := a.store.SelectRecords(c.Request.Context(), userID, date, category)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	writeOK(c, gin.H{"records": records, "count": len(records)})
}

type createRecordRequest struct {
	Date     string         `json:"date"`
	Category string         `json:"category"`
	Details  map[string]any `json:"details"`
}

func (a *App) createRecord(c *gin.Context) {
	userID := c.Param("user_id")

	var req createRecordRequest
	if !mustJSON(c, &req) {
		return
	}
	category, ok := health.ParseCategory(req.Category)
	if !ok {
		writeError(c, http.StatusBadRequest, "Unknown category: "+req.Category)
		return
	}
	date, ok := dateOrToday(c, req.Date)
	if !ok {
		return
	}

	profile, err := a.store.GetProfile(c.Request.Context(), userID)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	if profile == nil {
		writeError(c, http.StatusNotFound, "User not found")
		return
	}

	record, err := a.store.InsertRecord(c.Request.Context(), userID, date, req.Details, category)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "record": record})
}

var csvExportHeader = []string{"record_id", "category", "date", "details", "created_at"}

func (a *App) exportRecordsCSV(c *gin.Context) {
	userID := c.Param("user_id")

	profile, err := a.store.GetProfile(c.Request.Context(), userID)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	if profile == nil {
		writeError(c, http.StatusNotFound, "User not found")
		return
	}

	records, err := a.store.SelectRecords(c.Request.Context(), userID, nil, "")
	if err != nil {
		a.writeServiceError(c, err)
		return
	}

	var buffer bytes.Buffer
	writer := csv.NewWriter(&buffer)
	if err := writer.Write(csvExportHeader); err != nil {
		a.writeServiceError(c, err)
		return
	}
	for _, record := range records {
		row := []string{
			record.ID,
			string(record.Category),
			record.Date,
			detailsCSVCell(record.Details),
			record.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			a.writeServiceError(c, err)
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		a.writeServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("health_records_%s.csv", sanitizeCSVFilename(profile.FullName))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buffer.Bytes())
}

// detailsCSVCell flattens a decoded detail map into "key=value; ..." with
// sorted keys so exports are reproducible. Undecoded raw text passes through.
func detailsCSVCell(details any) string {
	detailMap, ok := details.(map[string]any)
	if !ok {
		return health.DetailString(details)
	}
	keys := make([]string, 0, len(detailMap))
	for key := range detailMap {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+health.DetailString(detailMap[key]))
	}
	return strings.Join(parts, "; ")
}

// sanitizeCSVFilename keeps filenames header-safe: non-alphanumeric runs
// collapse to single underscores.
func sanitizeCSVFilename(input string) string {
	var builder strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(input) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			builder.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				builder.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	result := strings.Trim(builder.String(), "_")
	if result == "" {
		return "user"
	}
	return result
}
