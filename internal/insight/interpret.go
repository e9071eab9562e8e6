package insight

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"

	"github.com/medpulse-ai/backend/internal/health"
)

// defaultHealthScore is the fallback when a score reply carries no digits.
const defaultHealthScore = 50

// ExtractScore parses the first contiguous digit run in an LLM reply and
// clamps it to [0, 100]. "Score: 73/100" yields 73; a reply with no digits
// yields the default of 50.
func ExtractScore(reply string) int {
	start := -1
	end := -1
	for i, r := range reply {
		if unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			end = i + 1
			continue
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return defaultHealthScore
	}
	score, err := strconv.Atoi(reply[start:end])
	if err != nil {
		return defaultHealthScore
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// MatchClinic resolves an LLM reply to one clinic. A clinic matches when its
// id equals the trimmed reply or its name appears case-insensitively inside
// the raw reply; the first match in list order wins, and an unrecognized
// reply falls back to the first clinic. An empty list yields nil.
func MatchClinic(reply string, clinics []health.Clinic) *health.Clinic {
	if len(clinics) == 0 {
		return nil
	}
	trimmed := strings.TrimSpace(reply)
	lowerReply := strings.ToLower(reply)
	for i := range clinics {
		if clinics[i].ID == trimmed {
			return &clinics[i]
		}
		if strings.Contains(lowerReply, strings.ToLower(clinics[i].Name)) {
			return &clinics[i]
		}
	}
	return &clinics[0]
}

type recommendationPayload struct {
	Recommendations []struct {
		ClinicName string  `json:"clinic_name"`
		Score      float64 `json:"score"`
		Reasoning  string  `json:"reasoning"`
	} `json:"recommendations"`
}

// ParseRecommendations reads a ranked recommendation list out of an LLM
// reply. Entries naming clinics that do not exist are dropped; scores clamp
// to [1, 100]. An unparseable reply, or one whose every entry got dropped,
// falls back to the full clinic list unranked. The second return reports
// whether the result came from the model's ranking.
func ParseRecommendations(reply string, clinics []health.Clinic) ([]health.Recommendation, bool) {
	byName := make(map[string]health.Clinic, len(clinics))
	for _, clinic := range clinics {
		byName[strings.ToLower(strings.TrimSpace(clinic.Name))] = clinic
	}

	var payload recommendationPayload
	if candidate := extractJSONObject(reply); candidate != "" {
		// Parse failure leaves payload empty and falls through to the
		// unranked fallback.
		_ = json.Unmarshal([]byte(candidate), &payload)
	}

	matched := make([]health.Recommendation, 0, len(payload.Recommendations))
	for _, entry := range payload.Recommendations {
		clinic, ok := byName[strings.ToLower(strings.TrimSpace(entry.ClinicName))]
		if !ok {
			continue
		}
		score := int(entry.Score)
		if score < 1 {
			score = 1
		}
		if score > 100 {
			score = 100
		}
		matched = append(matched, health.Recommendation{
			Clinic:    clinic,
			Score:     score,
			Reasoning: entry.Reasoning,
		})
	}
	if len(matched) > 0 {
		return matched, true
	}

	fallback := make([]health.Recommendation, 0, len(clinics))
	for _, clinic := range clinics {
		fallback = append(fallback, health.Recommendation{Clinic: clinic})
	}
	return fallback, false
}

// extractJSONObject pulls the outermost {...} block out of a reply that may
// wrap it in prose or Markdown code fences.
func extractJSONObject(reply string) string {
	candidate := strings.TrimSpace(reply)
	if candidate == "" {
		return ""
	}
	if strings.HasPrefix(candidate, "```") {
		candidate = strings.TrimSpace(strings.TrimPrefix(candidate, "```json"))
		candidate = strings.TrimSpace(strings.TrimPrefix(candidate, "```"))
		candidate = strings.TrimSpace(strings.TrimSuffix(candidate, "```"))
	}
	if !strings.HasPrefix(candidate, "{") {
		start := strings.Index(candidate, "{")
		end := strings.LastIndex(candidate, "}")
		if start < 0 || end <= start {
			return ""
		}
		candidate = strings.TrimSpace(candidate[start : end+1])
	}
	return candidate
}
