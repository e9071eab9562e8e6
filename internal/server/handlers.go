package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medpulse-ai/backend/internal/ai"
)

func (a *App) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    a.cfg.AppName,
		"version": apiVersion,
		"status":  "running",
	})
}

func (a *App) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (a *App) apiStatus(c *gin.Context) {
	databaseStatus := "reachable"
	if err := a.store.Ping(c.Request.Context()); err != nil {
		a.log.Warn().Err(err).Msg("status ping failed")
		databaseStatus = "unreachable"
	}
	writeOK(c, gin.H{
		"environment":    a.cfg.AppEnv,
		"database":       databaseStatus,
		"llm_configured": strings.TrimSpace(a.cfg.OpenAIAPIKey) != "",
	})
}

// debugInfo echoes the non-secret configuration. Registered only outside
// production.
func (a *App) debugInfo(c *gin.Context) {
	writeOK(c, gin.H{
		"app_name":       a.cfg.AppName,
		"environment":    a.cfg.AppEnv,
		"api_prefix":     a.cfg.APIPrefix,
		"model":          a.cfg.OpenAIModel,
		"reply_language": a.cfg.ReplyLanguage,
		"auth_enabled":   a.cfg.AuthEnabled(),
		"alert_pause_ms": a.cfg.AlertPauseMillis,
	})
}

type askRequest struct {
	Prompt       string           `json:"prompt"`
	SystemPrompt string           `json:"system_prompt"`
	Messages     []ai.ChatMessage `json:"messages"`
	Temperature  *float64         `json:"temperature"`
	MaxTokens    int              `json:"max_tokens"`
}

// askLLM is the raw gateway passthrough: a prompt/system pair, or a full
// messages[] history which routes through the chat form instead.
func (a *App) askLLM(c *gin.Context) {
	var req askRequest
	if !mustJSON(c, &req) {
		return
	}

	temperature := 0.7
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	if temperature < 0 || temperature > 2 {
		writeError(c, http.StatusBadRequest, "temperature must be between 0 and 2")
		return
	}
	maxTokens := req.MaxTokens
	if maxTokens < 0 {
		writeError(c, http.StatusBadRequest, "max_tokens must not be negative")
		return
	}

	if len(req.Messages) > 0 {
		for _, message := range req.Messages {
			if strings.TrimSpace(message.Content) == "" {
				writeError(c, http.StatusBadRequest, "messages must not contain empty content")
				return
			}
		}
		reply, err := a.insights.AskChat(c.Request.Context(), req.Messages, temperature, maxTokens)
		if err != nil {
			a.writeServiceError(c, err)
			return
		}
		writeOK(c, gin.H{"result": reply.Text, "model": reply.Model})
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		writeError(c, http.StatusBadRequest, "prompt is required")
		return
	}
	reply, err := a.insights.Ask(c.Request.Context(), req.Prompt, req.SystemPrompt, temperature, maxTokens)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	writeOK(c, gin.H{"result": reply.Text, "model": reply.Model})
}

// bindOptionalJSON binds a body that is allowed to be absent. POST endpoints
// whose fields are all optional accept an empty body as the zero request.
func bindOptionalJSON(c *gin.Context, payload any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	err := c.ShouldBindJSON(payload)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeError(c, http.StatusBadRequest, "Invalid request payload")
	return false
}
