// Package insight runs the summary -> prompt -> completion -> interpretation
// pipeline: daily alerts, health scores, Q&A, per-category briefs, and clinic
// selection and recommendation.
package insight

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/medpulse-ai/backend/internal/ai"
	"github.com/medpulse-ai/backend/internal/config"
	"github.com/medpulse-ai/backend/internal/health"
	"github.com/medpulse-ai/backend/internal/metrics"
	"github.com/medpulse-ai/backend/internal/store"
)

// Completion kinds as logged to the usage table and exported as metric labels.
const (
	kindAlert       = "alert"
	kindAlertShort  = "alert_short"
	kindHealthScore = "health_score"
	kindQA          = "qa"
	kindBrief       = "category_brief"
	kindSelection   = "clinic_selection"
	kindRecommend   = "clinic_recommendation"
)

const (
	noDataFeedback = "No data recorded for this day."
	noDataBrief    = "No data recorded"
)

// NotFoundError marks an absent user or an empty required reference table.
// The HTTP layer maps it to 404.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// Service wires the store and the LLM gateway together. Stateless beyond its
// handles; safe for concurrent use.
type Service struct {
	store      store.Store
	ai         ai.Client
	metrics    *metrics.Metrics
	log        zerolog.Logger
	language   string
	alertPause time.Duration
}

func New(st store.Store, client ai.Client, m *metrics.Metrics, logger zerolog.Logger, cfg config.Config) *Service {
	language := strings.TrimSpace(cfg.ReplyLanguage)
	if language == "" {
		language = "English"
	}
	return &Service{
		store:      st,
		ai:         client,
		metrics:    m,
		log:        logger,
		language:   language,
		alertPause: time.Duration(cfg.AlertPauseMillis) * time.Millisecond,
	}
}

// AlertResult is one generated alert. HealthScore is only present on the
// short variant; Summary is omitted on the no-data path.
type AlertResult struct {
	UserID      string          `json:"user_id"`
	Date        string          `json:"date"`
	Summary     *health.Summary `json:"summary,omitempty"`
	Feedback    string          `json:"feedback"`
	HealthScore *int            `json:"health_score,omitempty"`
}

// GenerateAlert builds the daily summary for one user and asks the model for
// feedback. A day with zero fetched records returns a fixed reply without
// calling the gateway.
func (s *Service) GenerateAlert(ctx context.Context, userID string, date time.Time, short bool) (*AlertResult, error) {
	summary, err := s.store.BuildDailySummary(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if summary.Profile == nil {
		return nil, &NotFoundError{Resource: "user"}
	}
	if summary.TotalRecords == 0 {
		return &AlertResult{
			UserID:   userID,
			Date:     summary.Date,
			Feedback: noDataFeedback,
		}, nil
	}

	kind := kindAlert
	system, user := AlertPrompt(&summary, s.language)
	if short {
		kind = kindAlertShort
		system, user = ShortAlertPrompt(&summary, s.language)
	}
	feedback, err := s.complete(ctx, userID, kind, system, user, 0.7, 800)
	if err != nil {
		return nil, err
	}

	result := &AlertResult{
		UserID:   userID,
		Date:     summary.Date,
		Summary:  &summary,
		Feedback: feedback.Text,
	}
	if short {
		scoreSystem, scoreUser := HealthScorePrompt(&summary)
		scoreReply, err := s.complete(ctx, userID, kindHealthScore, scoreSystem, scoreUser, 0.3, 10)
		if err != nil {
			return nil, err
		}
		score := ExtractScore(scoreReply.Text)
		result.HealthScore = &score
		s.log.Info().Str("user_id", userID).Int("health_score", score).Msg("generated short alert")
	}
	return result, nil
}

// BatchAlertEntry is the per-user outcome of a batch run.
type BatchAlertEntry struct {
	UserID  string       `json:"user_id"`
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`
	Alert   *AlertResult `json:"alert,omitempty"`
}

// BatchAlertResult aggregates one full batch run.
type BatchAlertResult struct {
	Date      string            `json:"date"`
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Results   []BatchAlertEntry `json:"results"`
}

// GenerateAlertsForAllUsers runs GenerateAlert for every profile, strictly
// sequentially, pausing between users to stay polite to the provider.
// Per-user failures are recorded and do not abort the batch.
func (s *Service) GenerateAlertsForAllUsers(ctx context.Context, date time.Time, short bool) (*BatchAlertResult, error) {
	profiles, err := s.store.GetAllProfiles(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.AlertRunsTotal.Inc()
	s.log.Info().Int("users", len(profiles)).Str("date", date.UTC().Format("2006-01-02")).Msg("starting batch alert run")

	result := &BatchAlertResult{
		Date:    date.UTC().Format("2006-01-02"),
		Total:   len(profiles),
		Results: make([]BatchAlertEntry, 0, len(profiles)),
	}
	for i, profile := range profiles {
		alert, err := s.GenerateAlert(ctx, profile.ID, date, short)
		if err != nil {
			s.metrics.AlertFailuresTotal.Inc()
			s.log.Warn().Err(err).Str("user_id", profile.ID).Msg("alert generation failed")
			result.Failed++
			result.Results = append(result.Results, BatchAlertEntry{
				UserID: profile.ID,
				Error:  err.Error(),
			})
		} else {
			result.Succeeded++
			result.Results = append(result.Results, BatchAlertEntry{
				UserID:  profile.ID,
				Success: true,
				Alert:   alert,
			})
		}
		if i < len(profiles)-1 && s.alertPause > 0 {
			select {
			case <-time.After(s.alertPause):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	s.log.Info().Int("succeeded", result.Succeeded).Int("failed", result.Failed).Msg("batch alert run finished")
	return result, nil
}

// AnswerResult is one Q&A exchange over the weekly data.
type AnswerResult struct {
	UserID   string `json:"user_id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AnswerQuestion answers a free-text question against the last 7 days of
// records.
func (s *Service) AnswerQuestion(ctx context.Context, userID, question string) (*AnswerResult, error) {
	summary, err := s.store.BuildWeeklySummary(ctx, userID, time.Now())
	if err != nil {
		return nil, err
	}
	if summary.Profile == nil {
		return nil, &NotFoundError{Resource: "user"}
	}
	system, user := QAPrompt(&summary, question, s.language)
	reply, err := s.complete(ctx, userID, kindQA, system, user, 0.7, 600)
	if err != nil {
		return nil, err
	}
	return &AnswerResult{
		UserID:   userID,
		Question: question,
		Answer:   reply.Text,
	}, nil
}

// CategoryBrief is one per-category one-liner.
type CategoryBrief struct {
	Category health.Category `json:"category"`
	Brief    string          `json:"brief"`
	Records  int             `json:"records"`
}

// BriefsResult carries the five per-category briefs for one day.
type BriefsResult struct {
	UserID string          `json:"user_id"`
	Date   string          `json:"date"`
	Briefs []CategoryBrief `json:"briefs"`
}

// CategoryBriefs produces a short line per category for one day, calling the
// gateway once per non-empty bucket, sequentially in canonical order.
func (s *Service) CategoryBriefs(ctx context.Context, userID string, date time.Time) (*BriefsResult, error) {
	summary, err := s.store.BuildDailySummary(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if summary.Profile == nil {
		return nil, &NotFoundError{Resource: "user"}
	}

	result := &BriefsResult{
		UserID: userID,
		Date:   summary.Date,
		Briefs: make([]CategoryBrief, 0, len(health.Categories())),
	}
	for _, category := range health.Categories() {
		entries := summary.Bucket(category)
		if len(entries) == 0 {
			result.Briefs = append(result.Briefs, CategoryBrief{
				Category: category,
				Brief:    noDataBrief,
			})
			continue
		}
		system, user := CategoryBriefPrompt(category, entries, s.language)
		reply, err := s.complete(ctx, userID, kindBrief, system, user, 0.5, 30)
		if err != nil {
			return nil, err
		}
		result.Briefs = append(result.Briefs, CategoryBrief{
			Category: category,
			Brief:    strings.TrimSpace(reply.Text),
			Records:  len(entries),
		})
	}
	return result, nil
}

// ClinicSelectionResult is the outcome of the two-step clinic pick.
type ClinicSelectionResult struct {
	UserID   string         `json:"user_id"`
	Question string         `json:"question"`
	Feedback string         `json:"feedback"`
	Clinic   *health.Clinic `json:"clinic"`
}

// SelectClinic answers the question first, then asks the model to pick one
// clinic for the patient, resolving the reply against the catalog.
func (s *Service) SelectClinic(ctx context.Context, userID, question string) (*ClinicSelectionResult, error) {
	summary, err := s.store.BuildWeeklySummary(ctx, userID, time.Now())
	if err != nil {
		return nil, err
	}
	if summary.Profile == nil {
		return nil, &NotFoundError{Resource: "user"}
	}
	clinics, err := s.store.GetAllClinics(ctx)
	if err != nil {
		return nil, err
	}
	if len(clinics) == 0 {
		return nil, &NotFoundError{Resource: "clinic"}
	}

	qaSystem, qaUser := QAPrompt(&summary, question, s.language)
	feedback, err := s.complete(ctx, userID, kindQA, qaSystem, qaUser, 0.7, 600)
	if err != nil {
		return nil, err
	}

	system, user := ClinicSelectionPrompt(question, feedback.Text, &summary, clinics)
	reply, err := s.complete(ctx, userID, kindSelection, system, user, 0.2, 50)
	if err != nil {
		return nil, err
	}

	clinic := MatchClinic(reply.Text, clinics)
	s.log.Info().Str("user_id", userID).Str("clinic_id", clinic.ID).Msg("selected clinic")
	return &ClinicSelectionResult{
		UserID:   userID,
		Question: question,
		Feedback: feedback.Text,
		Clinic:   clinic,
	}, nil
}

// RecommendationResult is the ranked (or fallback unranked) clinic list.
type RecommendationResult struct {
	UserID          string                  `json:"user_id"`
	Recommendations []health.Recommendation `json:"recommendations"`
	Ranked          bool                    `json:"ranked"`
}

// RecommendClinics ranks the clinic catalog against a chat transcript and the
// user's weekly record counts.
func (s *Service) RecommendClinics(ctx context.Context, userID string, transcript []ai.ChatMessage) (*RecommendationResult, error) {
	summary, err := s.store.BuildWeeklySummary(ctx, userID, time.Now())
	if err != nil {
		return nil, err
	}
	if summary.Profile == nil {
		return nil, &NotFoundError{Resource: "user"}
	}
	clinics, err := s.store.GetAllClinics(ctx)
	if err != nil {
		return nil, err
	}
	if len(clinics) == 0 {
		return nil, &NotFoundError{Resource: "clinic"}
	}

	system, user := ClinicRecommendationPrompt(transcript, &summary, clinics, s.language)
	reply, err := s.complete(ctx, userID, kindRecommend, system, user, 0.4, 700)
	if err != nil {
		return nil, err
	}

	recommendations, ranked := ParseRecommendations(reply.Text, clinics)
	return &RecommendationResult{
		UserID:          userID,
		Recommendations: recommendations,
		Ranked:          ranked,
	}, nil
}

// Ask forwards a raw prompt to the gateway. No summary context, no usage row
// (there is no user to attribute it to), metrics only.
func (s *Service) Ask(ctx context.Context, prompt, system string, temperature float64, maxTokens int) (ai.CompletionResponse, error) {
	started := time.Now()
	reply, err := s.ai.Complete(ctx, ai.CompletionRequest{
		System:      system,
		Prompt:      prompt,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	s.observe("ask", started, reply, err)
	return reply, err
}

// AskChat forwards a full message history to the gateway.
func (s *Service) AskChat(ctx context.Context, messages []ai.ChatMessage, temperature float64, maxTokens int) (ai.CompletionResponse, error) {
	started := time.Now()
	reply, err := s.ai.CompleteChat(ctx, ai.ChatRequest{
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	s.observe("ask_chat", started, reply, err)
	return reply, err
}

func (s *Service) observe(kind string, started time.Time, reply ai.CompletionResponse, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.RecordLLMCall(kind, status, time.Since(started), reply.Usage.PromptTokens, reply.Usage.CompletionTokens)
}

// complete is the single spot every summary-driven gateway call goes through:
// one metrics observation per call, one best-effort usage row per success.
func (s *Service) complete(ctx context.Context, userID, kind, system, user string, temperature float64, maxTokens int) (ai.CompletionResponse, error) {
	started := time.Now()
	reply, err := s.ai.Complete(ctx, ai.CompletionRequest{
		System:      system,
		Prompt:      user,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	s.observe(kind, started, reply, err)
	if err != nil {
		return reply, err
	}
	if logErr := s.store.RecordLLMUsage(ctx, health.LLMUsage{
		UserID:           userID,
		Kind:             kind,
		Model:            reply.Model,
		PromptTokens:     reply.Usage.PromptTokens,
		CompletionTokens: reply.Usage.CompletionTokens,
		TotalTokens:      reply.Usage.TotalTokens,
	}); logErr != nil {
		s.log.Warn().Err(logErr).Str("kind", kind).Msg("usage log insert failed")
	}
	return reply, nil
}
