package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/medpulse-ai/backend/internal/health"
)

// RecordLLMUsage appends one audit row per gateway call. Callers treat this
// as best-effort: a failed insert is logged, never surfaced to the request.
func (p *PG) RecordLLMUsage(ctx context.Context, usage health.LLMUsage) error {
	_, err := p.pool.Exec(
		ctx,
		`INSERT INTO llm_usage_log (id, user_id, kind, model, prompt_tokens, completion_tokens, total_tokens, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		uuid.NewString(),
		usage.UserID,
		usage.Kind,
		usage.Model,
		usage.PromptTokens,
		usage.CompletionTokens,
		usage.TotalTokens,
	)
	if err != nil {
		return storageErr("record llm usage", err)
	}
	return nil
}
