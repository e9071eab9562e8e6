// Package health holds the domain types shared by the store, the prompt
// pipeline, and the HTTP layer: user profiles, category-tagged records,
// the derived five-bucket summary, clinics, and appointments.
package health

import (
	"strings"
	"time"
)

// Category is one of the five fixed health-data kinds.
type Category string

const (
	CategoryNutrition  Category = "nutrition"
	CategorySleep      Category = "sleep"
	CategoryVitals     Category = "vitals"
	CategoryExercise   Category = "exercise"
	CategoryMedication Category = "medication"
)

var validCategories = map[Category]struct{}{
	CategoryNutrition:  {},
	CategorySleep:      {},
	CategoryVitals:     {},
	CategoryExercise:   {},
	CategoryMedication: {},
}

// Categories returns the five buckets in their canonical order.
func Categories() []Category {
	return []Category{
		CategoryNutrition,
		CategorySleep,
		CategoryVitals,
		CategoryExercise,
		CategoryMedication,
	}
}

// ParseCategory normalizes a raw tag and reports whether it names one of the
// five known categories. Unknown tags come back normalized but not valid.
func ParseCategory(input string) (Category, bool) {
	category := Category(strings.ToLower(strings.TrimSpace(input)))
	if category == "" {
		return "", false
	}
	_, ok := validCategories[category]
	return category, ok
}

// Profile is one user row. Created and updated outside this service.
type Profile struct {
	ID        string     `json:"id"`
	FullName  string     `json:"full_name"`
	BirthDate string     `json:"birth_date,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Email     string     `json:"email,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Record is one logged observation. Details is the decoded detail map, or
// the raw stored text when decoding failed.
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Category  Category  `json:"category"`
	Date      string    `json:"date"`
	Details   any       `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// SummaryEntry is the projection of a record inside a summary bucket.
// Daily summaries carry the record id; weekly summaries carry the date.
type SummaryEntry struct {
	ID        string    `json:"id,omitempty"`
	Date      string    `json:"date,omitempty"`
	Details   any       `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary is the derived per-user view over one date or one date range.
// TotalRecords counts every fetched row, including rows whose category tag
// matches none of the five buckets; those rows appear in no bucket. The
// no-data branch downstream gates on this same raw count.
type Summary struct {
	UserID       string         `json:"user_id"`
	Profile      *Profile       `json:"profile"`
	Date         string         `json:"date,omitempty"`
	StartDate    string         `json:"start_date,omitempty"`
	EndDate      string         `json:"end_date,omitempty"`
	Nutrition    []SummaryEntry `json:"nutrition"`
	Sleep        []SummaryEntry `json:"sleep"`
	Vitals       []SummaryEntry `json:"vitals"`
	Exercise     []SummaryEntry `json:"exercise"`
	Medication   []SummaryEntry `json:"medication"`
	TotalRecords int            `json:"total_records"`
}

// NewSummary returns a summary with all five buckets allocated so JSON
// output renders empty arrays, never null.
func NewSummary(userID string) Summary {
	return Summary{
		UserID:     userID,
		Nutrition:  []SummaryEntry{},
		Sleep:      []SummaryEntry{},
		Vitals:     []SummaryEntry{},
		Exercise:   []SummaryEntry{},
		Medication: []SummaryEntry{},
	}
}

// Bucket returns the entries for one category.
func (s *Summary) Bucket(category Category) []SummaryEntry {
	switch category {
	case CategoryNutrition:
		return s.Nutrition
	case CategorySleep:
		return s.Sleep
	case CategoryVitals:
		return s.Vitals
	case CategoryExercise:
		return s.Exercise
	case CategoryMedication:
		return s.Medication
	default:
		return nil
	}
}

// Add places an entry into the bucket for category and reports whether the
// category was one of the five known buckets.
func (s *Summary) Add(category Category, entry SummaryEntry) bool {
	switch category {
	case CategoryNutrition:
		s.Nutrition = append(s.Nutrition, entry)
	case CategorySleep:
		s.Sleep = append(s.Sleep, entry)
	case CategoryVitals:
		s.Vitals = append(s.Vitals, entry)
	case CategoryExercise:
		s.Exercise = append(s.Exercise, entry)
	case CategoryMedication:
		s.Medication = append(s.Medication, entry)
	default:
		return false
	}
	return true
}

// BucketedRecords returns the sum over the five buckets. It can be lower
// than TotalRecords when unknown-category rows were fetched.
func (s *Summary) BucketedRecords() int {
	return len(s.Nutrition) + len(s.Sleep) + len(s.Vitals) + len(s.Exercise) + len(s.Medication)
}

// Clinic is read-only reference data.
type Clinic struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Email    string `json:"email,omitempty"`
}

// Appointment links a user to a clinic on a date. Reads embed the clinic.
type Appointment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ClinicID  string    `json:"clinic_id"`
	Clinic    *Clinic   `json:"clinic,omitempty"`
	Date      string    `json:"date"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Recommendation is one ranked clinic suggestion extracted from model
// output. Score is clamped to [1, 100]; Reasoning is the model's own text.
type Recommendation struct {
	Clinic    Clinic `json:"clinic"`
	Score     int    `json:"score,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
}

// LLMUsage is one audit row for a gateway call.
type LLMUsage struct {
	UserID           string
	Kind             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
