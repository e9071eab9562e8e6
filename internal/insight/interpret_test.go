package insight

import (
	"testing"

	"github.com/medpulse-ai/backend/internal/health"
)

func TestExtractScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reply string
		want  int
	}{
		{"score with slash total", "Scor: 73/100", 73},
		{"no digits", "N/A", 50},
		{"empty reply", "", 50},
		{"above range", "150", 100},
		{"negative sign ignored", "-5", 5},
		{"plain number", "45", 45},
		{"zero", "Score: 0", 0},
		{"digits after prose", "I would rate this day 81 out of 100.", 81},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractScore(tc.reply); got != tc.want {
				t.Fatalf("ExtractScore(%q) = %d, want %d", tc.reply, got, tc.want)
			}
		})
	}
}

func TestMatchClinic(t *testing.T) {
	t.Parallel()

	clinics := []health.Clinic{
		{ID: "c1", Name: "Cardio"},
		{ID: "c2", Name: "Derma"},
	}

	tests := []struct {
		name   string
		reply  string
		wantID string
	}{
		{"exact id", "c2", "c2"},
		{"id with whitespace", "  c2\n", "c2"},
		{"name substring", "I recommend Cardio for this patient", "c1"},
		{"name substring case insensitive", "go with DERMA", "c2"},
		{"unrecognized falls back to first", "unknown", "c1"},
		{"empty reply falls back to first", "", "c1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := MatchClinic(tc.reply, clinics)
			if got == nil {
				t.Fatal("expected a clinic")
			}
			if got.ID != tc.wantID {
				t.Fatalf("MatchClinic(%q) = %s, want %s", tc.reply, got.ID, tc.wantID)
			}
		})
	}
}

func TestMatchClinicEmptyList(t *testing.T) {
	t.Parallel()

	if got := MatchClinic("c1", nil); got != nil {
		t.Fatalf("expected nil for empty clinic list, got %+v", got)
	}
}

func TestParseRecommendationsWellFormed(t *testing.T) {
	t.Parallel()

	clinics := []health.Clinic{
		{ID: "c1", Name: "Cardio Center"},
		{ID: "c2", Name: "Derma Plus"},
	}
	reply := `{"recommendations": [
		{"clinic_name": "derma plus", "score": 91, "reasoning": "skin complaints dominate"},
		{"clinic_name": "Nonexistent", "score": 80, "reasoning": "dropped"},
		{"clinic_name": "Cardio Center", "score": 250, "reasoning": "clamped"}
	]}`

	got, ranked := ParseRecommendations(reply, clinics)
	if !ranked {
		t.Fatal("expected a ranked result")
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matched recommendations, got %d", len(got))
	}
	if got[0].Clinic.ID != "c2" || got[0].Score != 91 {
		t.Fatalf("unexpected first recommendation: %+v", got[0])
	}
	if got[0].Reasoning != "skin complaints dominate" {
		t.Fatalf("unexpected reasoning: %q", got[0].Reasoning)
	}
	if got[1].Clinic.ID != "c1" || got[1].Score != 100 {
		t.Fatalf("expected clamped score 100, got %+v", got[1])
	}
}

func TestParseRecommendationsFencedJSON(t *testing.T) {
	t.Parallel()

	clinics := []health.Clinic{{ID: "c1", Name: "Cardio Center"}}
	reply := "```json\n{\"recommendations\": [{\"clinic_name\": \"Cardio Center\", \"score\": 0, \"reasoning\": \"ok\"}]}\n```"

	got, ranked := ParseRecommendations(reply, clinics)
	if !ranked {
		t.Fatal("expected a ranked result")
	}
	if len(got) != 1 || got[0].Score != 1 {
		t.Fatalf("expected one entry with score clamped to 1, got %+v", got)
	}
}

func TestParseRecommendationsJSONInsideProse(t *testing.T) {
	t.Parallel()

	clinics := []health.Clinic{{ID: "c1", Name: "Cardio Center"}}
	reply := `Sure! Here is my ranking: {"recommendations": [{"clinic_name": "Cardio Center", "score": 70, "reasoning": "fit"}]} Hope this helps.`

	got, ranked := ParseRecommendations(reply, clinics)
	if !ranked || len(got) != 1 || got[0].Clinic.ID != "c1" {
		t.Fatalf("expected the embedded JSON to parse, got ranked=%v %+v", ranked, got)
	}
}

func TestParseRecommendationsMalformedFallsBack(t *testing.T) {
	t.Parallel()

	clinics := []health.Clinic{
		{ID: "c1", Name: "Cardio Center"},
		{ID: "c2", Name: "Derma Plus"},
	}

	for _, reply := range []string{
		"I cannot answer that.",
		`{"recommendations": "not a list"}`,
		`{"recommendations": [{"clinic_name": "Unknown", "score": 50}]}`,
		"",
	} {
		got, ranked := ParseRecommendations(reply, clinics)
		if ranked {
			t.Fatalf("reply %q: expected unranked fallback", reply)
		}
		if len(got) != len(clinics) {
			t.Fatalf("reply %q: expected full catalog fallback, got %d entries", reply, len(got))
		}
		if got[0].Score != 0 || got[0].Reasoning != "" {
			t.Fatalf("reply %q: fallback entries should be unranked, got %+v", reply, got[0])
		}
	}
}
