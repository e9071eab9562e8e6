package insight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/medpulse-ai/backend/internal/ai"
	"github.com/medpulse-ai/backend/internal/health"
)

const noDataPlaceholder = "- No data recorded"

const (
	alertSystemMessage = "You are a medical AI assistant specialized in health data analysis. " +
		"Use Markdown for formatting (bold and bullet points), no titles."
	shortAlertSystemMessage = "You are a medical AI assistant specialized in health data analysis. " +
		"Respond EXTREMELY CONCISE - maximum 2-3 sentences total. " +
		"Use Markdown for formatting (bold and bullet points), no titles."
	scoreSystemMessage = "You are a medical evaluator. Respond ONLY with a number between 0-100."
	qaSystemMessage    = "You are a caring medical AI assistant. Answer based on the patient's " +
		"recorded data. Never invent a diagnosis; when uncertain, recommend a specialist consultation."
	briefSystemMessage     = "You summarize health records in a few plain words."
	selectionSystemMessage = "You match patients to clinics. Respond ONLY with the clinic identifier, nothing else."
	recommendSystemMessage = "You are a medical assistant that recommends clinics. Respond ONLY with valid JSON."
)

// formatDataSection renders one bucket's entries. Empty buckets always render
// the fixed placeholder line so every prompt keeps a stable section structure.
func formatDataSection(entries []health.SummaryEntry) string {
	if len(entries) == 0 {
		return noDataPlaceholder
	}
	lines := make([]string, 0, len(entries))
	for i, entry := range entries {
		lines = append(lines, fmt.Sprintf("  Record %d: %s", i+1, formatDetails(entry.Details)))
	}
	return strings.Join(lines, "\n")
}

// formatDetails renders a decoded detail map as "k: v" pairs with keys in
// alphabetical order so prompt output is deterministic. Details that did not
// decode to a map pass through as their raw text.
func formatDetails(details any) string {
	asMap, ok := details.(map[string]any)
	if !ok {
		return fmt.Sprintf("%v", details)
	}
	keys := make([]string, 0, len(asMap))
	for key := range asMap {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, fmt.Sprintf("%s: %s", key, health.DetailString(asMap[key])))
	}
	return strings.Join(pairs, ", ")
}

func profileLines(summary *health.Summary) []string {
	name := "User"
	birthDate := "N/A"
	phone := "N/A"
	if summary.Profile != nil {
		if strings.TrimSpace(summary.Profile.FullName) != "" {
			name = summary.Profile.FullName
		}
		if strings.TrimSpace(summary.Profile.BirthDate) != "" {
			birthDate = summary.Profile.BirthDate
		}
		if strings.TrimSpace(summary.Profile.Phone) != "" {
			phone = summary.Profile.Phone
		}
	}
	return []string{
		"PATIENT PROFILE:",
		"- Name: " + name,
		"- Date of birth: " + birthDate,
		"- Phone: " + phone,
	}
}

func summarySections(summary *health.Summary, includeMedication bool) []string {
	lines := []string{
		"",
		"NUTRITION (meals and liquids):",
		formatDataSection(summary.Nutrition),
		"",
		"SLEEP:",
		formatDataSection(summary.Sleep),
		"",
		"VITALS (blood pressure, pulse, oxygen):",
		formatDataSection(summary.Vitals),
		"",
		"EXERCISE (physical activity):",
		formatDataSection(summary.Exercise),
	}
	if includeMedication {
		lines = append(lines,
			"",
			"MEDICATION (drugs and doses):",
			formatDataSection(summary.Medication),
		)
	}
	return lines
}

// EnumerateClinics renders the clinic list the selection and recommendation
// prompts embed: one "N. name - category (id: X)" line per clinic.
func EnumerateClinics(clinics []health.Clinic) string {
	lines := make([]string, 0, len(clinics))
	for i, clinic := range clinics {
		lines = append(lines, fmt.Sprintf("%d. %s - %s (id: %s)", i+1, clinic.Name, clinic.Category, clinic.ID))
	}
	return strings.Join(lines, "\n")
}

// AlertPrompt builds the daily feedback prompt over the four monitored
// categories. Medication is left out of alerts.
func AlertPrompt(summary *health.Summary, language string) (system, user string) {
	name := "User"
	if summary.Profile != nil && strings.TrimSpace(summary.Profile.FullName) != "" {
		name = summary.Profile.FullName
	}
	lines := []string{
		fmt.Sprintf("Analyze the daily medical data for %s from %s:", name, summary.Date),
		"",
	}
	lines = append(lines, profileLines(summary)...)
	lines = append(lines, "", fmt.Sprintf("DAILY DATA (%s):", summary.Date))
	lines = append(lines, summarySections(summary, false)...)
	lines = append(lines,
		"",
		"---",
		"",
		"Provide:",
		"- Overall assessment of the day",
		"- Warnings for any values outside normal ranges",
		"- Practical recommendations",
		"",
		"Format the response using Markdown:",
		"- Use **bold** for key words",
		"- Use bullet points for recommendations",
		"- DO NOT use section titles",
		"",
		fmt.Sprintf("Respond in %s.", language),
	)
	return alertSystemMessage, strings.Join(lines, "\n")
}

// ShortAlertPrompt is the alert prompt with a hard length cap, used by the
// scheduled batch run where the output lands in a notification.
func ShortAlertPrompt(summary *health.Summary, language string) (system, user string) {
	name := "User"
	if summary.Profile != nil && strings.TrimSpace(summary.Profile.FullName) != "" {
		name = summary.Profile.FullName
	}
	lines := []string{
		fmt.Sprintf("Analyze the daily medical data for %s from %s:", name, summary.Date),
		"",
	}
	lines = append(lines, profileLines(summary)...)
	lines = append(lines, "", fmt.Sprintf("DAILY DATA (%s):", summary.Date))
	lines = append(lines, summarySections(summary, false)...)
	lines = append(lines,
		"",
		"---",
		"",
		"Provide VERY SHORT feedback (max 2-3 sentences, under 100 words!):",
		"- Quick overall assessment (1 sentence)",
		"- 2-3 main recommendations (very concise)",
		"",
		"Format the response using Markdown:",
		"- Use **bold** for key words",
		"- Use bullet points for recommendations",
		"- DO NOT use section titles",
		"- Keep VERY SHORT - maximum 3-4 lines total!",
		"",
		fmt.Sprintf("Respond in %s, very concise.", language),
	)
	return shortAlertSystemMessage, strings.Join(lines, "\n")
}

// HealthScorePrompt asks for a single 0-100 integer. The rubric lives in the
// instructions; the caller only clamps whatever number comes back.
func HealthScorePrompt(summary *health.Summary) (system, user string) {
	name := "User"
	if summary.Profile != nil && strings.TrimSpace(summary.Profile.FullName) != "" {
		name = summary.Profile.FullName
	}
	lines := []string{
		fmt.Sprintf("Based on the medical data below for %s, evaluate overall health status with a score between 0-100:", name),
	}
	lines = append(lines, summarySections(summary, false)...)
	lines = append(lines,
		"",
		"BE CRITICAL AND REALISTIC! DO NOT give high scores if data is incomplete or not optimal.",
		"",
		"- 0-20: Critical (most data missing or very abnormal values)",
		"- 21-40: Concerning (incomplete data, multiple problems)",
		"- 41-60: Medium (partial data, suboptimal values, needs improvement)",
		"- 61-75: Acceptable (relatively complete data, but with gaps)",
		"- 76-85: Good (complete data, most values in normal ranges)",
		"- 86-95: Very good (complete data, optimal values, healthy lifestyle)",
		"- 96-100: Excellent (perfect data, all categories with ideal values)",
		"",
		"STRICT CRITERIA:",
		"- Missing entire category (nutrition/sleep/vitals/exercise)? Max score 60",
		"- Sleep under 6h or over 10h? Penalty -15 points",
		"- Abnormal vitals (BP >140/90 or <100/60, pulse >100 or <50)? Penalty -20 points",
		"- No physical activity? Penalty -15 points",
		"- Hydration under 1.5L? Penalty -10 points",
		"- Less than 2 meals per day? Penalty -10 points",
		"",
		"Start with 50 base points and adjust up/down based on data quality.",
		"",
		"Respond ONLY with the number (e.g., 45). Nothing else!",
	)
	return scoreSystemMessage, strings.Join(lines, "\n")
}

// QAPrompt interpolates a free-text question over the weekly data. All five
// categories are included here, medication too.
func QAPrompt(summary *health.Summary, question, language string) (system, user string) {
	name := "User"
	if summary.Profile != nil && strings.TrimSpace(summary.Profile.FullName) != "" {
		name = summary.Profile.FullName
	}
	lines := []string{
		fmt.Sprintf("Patient %s asks: %s", name, question),
		"",
	}
	lines = append(lines, profileLines(summary)...)
	lines = append(lines, "", "DATA FROM THE LAST 7 DAYS:")
	lines = append(lines, summarySections(summary, true)...)
	lines = append(lines,
		"",
		"---",
		"",
		"Give a short personalized answer based on the recorded data.",
		"If the data is insufficient to answer with confidence, recommend a specialist consultation instead of guessing.",
		"",
		fmt.Sprintf("Respond in %s.", language),
	)
	return qaSystemMessage, strings.Join(lines, "\n")
}

var briefExamples = map[health.Category]string{
	health.CategoryNutrition:  "Balanced meals with good hydration today",
	health.CategorySleep:      "Slept well, about eight hours",
	health.CategoryVitals:     "Blood pressure and pulse look stable",
	health.CategoryExercise:   "Light activity, thirty minutes of walking",
	health.CategoryMedication: "All scheduled medication taken on time",
}

// CategoryBriefPrompt condenses up to the first 3 records of one category
// into a 6-8 word line. The per-category example anchors the style.
func CategoryBriefPrompt(category health.Category, entries []health.SummaryEntry, language string) (system, user string) {
	if len(entries) > 3 {
		entries = entries[:3]
	}
	lines := []string{
		fmt.Sprintf("Summarize today's %s records in 6-8 words.", category),
		"",
		fmt.Sprintf("%s:", strings.ToUpper(string(category))),
		formatDataSection(entries),
		"",
		fmt.Sprintf("Example answer: %s", briefExamples[category]),
		"Respond with the summary only, no preamble.",
		"",
		fmt.Sprintf("Respond in %s.", language),
	}
	return briefSystemMessage, strings.Join(lines, "\n")
}

// ClinicSelectionPrompt asks the model to pick one clinic for the patient.
// The reply is expected to be a bare clinic identifier.
func ClinicSelectionPrompt(question, feedback string, summary *health.Summary, clinics []health.Clinic) (system, user string) {
	lines := []string{
		fmt.Sprintf("The patient asks: %s", question),
		"",
		"PRIOR ASSESSMENT:",
		feedback,
		"",
		"DATA FROM THE LAST 7 DAYS:",
	}
	lines = append(lines, summarySections(summary, true)...)
	lines = append(lines,
		"",
		"AVAILABLE CLINICS:",
		EnumerateClinics(clinics),
		"",
		"Pick the single clinic best suited for this patient.",
		"Respond ONLY with the clinic identifier (the id value). Nothing else!",
	)
	return selectionSystemMessage, strings.Join(lines, "\n")
}

// ClinicRecommendationPrompt asks for a ranked JSON recommendation list over
// the full clinic catalog.
func ClinicRecommendationPrompt(transcript []ai.ChatMessage, summary *health.Summary, clinics []health.Clinic, language string) (system, user string) {
	lines := []string{"CONVERSATION:"}
	for _, message := range transcript {
		lines = append(lines, fmt.Sprintf("%s: %s", message.Role, message.Content))
	}
	lines = append(lines,
		"",
		"RECORD COUNTS (last 7 days): "+recordCountLine(summary),
		"",
		"AVAILABLE CLINICS:",
		EnumerateClinics(clinics),
		"",
		"Rank the clinics by how well they fit this patient's needs.",
		`Respond ONLY with a JSON object of the form {"recommendations": [{"clinic_name": "...", "score": 1-100, "reasoning": "..."}]}, best match first.`,
		fmt.Sprintf("Write each reasoning in %s.", language),
	)
	return recommendSystemMessage, strings.Join(lines, "\n")
}

func recordCountLine(summary *health.Summary) string {
	parts := make([]string, 0, 5)
	for _, category := range health.Categories() {
		parts = append(parts, fmt.Sprintf("%s=%d", category, len(summary.Bucket(category))))
	}
	return strings.Join(parts, ", ")
}
