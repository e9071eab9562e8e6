package insight

import (
	"strings"
	"testing"

	"github.com/medpulse-ai/backend/internal/ai"
	"github.com/medpulse-ai/backend/internal/health"
)

func emptySummary() *health.Summary {
	s := health.NewSummary("u1")
	s.Profile = &health.Profile{ID: "u1", FullName: "Maria Ionescu", BirthDate: "1958-03-14"}
	s.Date = "2026-08-20"
	return &s
}

func TestEveryTemplateRendersPlaceholderForEmptyBuckets(t *testing.T) {
	t.Parallel()

	summary := emptySummary()
	clinics := []health.Clinic{{ID: "c1", Name: "Cardio Center", Category: "cardiology"}}

	prompts := map[string]string{}
	_, prompts["alert"] = AlertPrompt(summary, "English")
	_, prompts["short alert"] = ShortAlertPrompt(summary, "English")
	_, prompts["score"] = HealthScorePrompt(summary)
	_, prompts["qa"] = QAPrompt(summary, "How am I doing?", "English")
	_, prompts["selection"] = ClinicSelectionPrompt("Where should I go?", "prior feedback", summary, clinics)

	for name, prompt := range prompts {
		if !strings.Contains(prompt, "- No data recorded") {
			t.Errorf("%s prompt is missing the empty-bucket placeholder:\n%s", name, prompt)
		}
		if strings.Contains(prompt, "Record 1:") {
			t.Errorf("%s prompt rendered records for an empty summary", name)
		}
	}
}

func TestFormatDataSectionRendersSortedDetailKeys(t *testing.T) {
	t.Parallel()

	entries := []health.SummaryEntry{
		{Details: map[string]any{"water_l": 2.0, "calories": float64(1800), "meals": float64(3)}},
	}
	got := formatDataSection(entries)
	want := "  Record 1: calories: 1800, meals: 3, water_l: 2"
	if got != want {
		t.Fatalf("formatDataSection = %q, want %q", got, want)
	}
}

func TestFormatDataSectionPassesRawDetailsThrough(t *testing.T) {
	t.Parallel()

	entries := []health.SummaryEntry{{Details: "slept badly, see notes"}}
	got := formatDataSection(entries)
	if got != "  Record 1: slept badly, see notes" {
		t.Fatalf("unexpected raw detail rendering: %q", got)
	}
}

func TestAlertPromptExcludesMedicationSection(t *testing.T) {
	t.Parallel()

	summary := emptySummary()
	summary.Medication = []health.SummaryEntry{
		{Details: map[string]any{"name": "aspirin", "dose_mg": float64(100)}},
	}
	_, alertPrompt := AlertPrompt(summary, "English")
	if strings.Contains(alertPrompt, "MEDICATION") {
		t.Fatal("alert prompt must not contain the medication section")
	}

	_, qaPrompt := QAPrompt(summary, "anything", "English")
	if !strings.Contains(qaPrompt, "MEDICATION") {
		t.Fatal("qa prompt must contain the medication section")
	}
	if !strings.Contains(qaPrompt, "aspirin") {
		t.Fatal("qa prompt must render medication entries")
	}
}

func TestPromptsInterpolateReplyLanguage(t *testing.T) {
	t.Parallel()

	summary := emptySummary()
	_, alertPrompt := AlertPrompt(summary, "Romanian")
	if !strings.Contains(alertPrompt, "Respond in Romanian.") {
		t.Fatalf("alert prompt did not interpolate the reply language:\n%s", alertPrompt)
	}
	_, qaPrompt := QAPrompt(summary, "q", "Spanish")
	if !strings.Contains(qaPrompt, "Respond in Spanish.") {
		t.Fatal("qa prompt did not interpolate the reply language")
	}
}

func TestCategoryBriefPromptUsesFirstThreeRecords(t *testing.T) {
	t.Parallel()

	entries := []health.SummaryEntry{
		{Details: map[string]any{"meal": "breakfast"}},
		{Details: map[string]any{"meal": "lunch"}},
		{Details: map[string]any{"meal": "dinner"}},
		{Details: map[string]any{"meal": "snack"}},
	}
	_, prompt := CategoryBriefPrompt(health.CategoryNutrition, entries, "English")
	if !strings.Contains(prompt, "Record 3:") {
		t.Fatal("expected the third record to render")
	}
	if strings.Contains(prompt, "Record 4:") {
		t.Fatal("expected at most 3 records in the brief prompt")
	}
	if !strings.Contains(prompt, "6-8 words") {
		t.Fatal("expected the word-count instruction")
	}
}

func TestEnumerateClinics(t *testing.T) {
	t.Parallel()

	clinics := []health.Clinic{
		{ID: "c-101", Name: "Green Cross", Category: "general"},
		{ID: "c-202", Name: "Harbor Cardio", Category: "cardiology"},
	}
	got := EnumerateClinics(clinics)
	want := "1. Green Cross - general (id: c-101)\n2. Harbor Cardio - cardiology (id: c-202)"
	if got != want {
		t.Fatalf("EnumerateClinics = %q, want %q", got, want)
	}
}

func TestRecommendationPromptCarriesTranscriptAndCounts(t *testing.T) {
	t.Parallel()

	summary := emptySummary()
	summary.Sleep = []health.SummaryEntry{{Details: map[string]any{"hours": 7.5}}}
	transcript := []ai.ChatMessage{
		{Role: "user", Content: "my skin is itchy"},
		{Role: "assistant", Content: "how long has this lasted?"},
	}
	clinics := []health.Clinic{{ID: "c1", Name: "Derma Plus", Category: "dermatology"}}

	_, prompt := ClinicRecommendationPrompt(transcript, summary, clinics, "English")
	if !strings.Contains(prompt, "user: my skin is itchy") {
		t.Fatal("expected the transcript in the prompt")
	}
	if !strings.Contains(prompt, "sleep=1") {
		t.Fatal("expected per-category record counts in the prompt")
	}
	if !strings.Contains(prompt, `"recommendations"`) {
		t.Fatal("expected the JSON shape instruction")
	}
}

func TestHealthScorePromptEmbedsRubric(t *testing.T) {
	t.Parallel()

	summary := emptySummary()
	_, prompt := HealthScorePrompt(summary)
	for _, fragment := range []string{
		"0-100",
		"Max score 60",
		"Penalty -15 points",
		"50 base points",
		"Respond ONLY with the number",
	} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("score prompt missing %q:\n%s", fragment, prompt)
		}
	}
}
