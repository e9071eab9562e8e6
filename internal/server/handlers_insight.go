package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medpulse-ai/backend/internal/ai"
)

type alertRequest struct {
	Date  string `json:"date"`
	Short bool   `json:"short"`
}

func (a *App) generateAlert(c *gin.Context) {
	userID := c.Param("user_id")

	var req alertRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	date, ok := dateOrToday(c, req.Date)
	if !ok {
		return
	}

	alert, err := a.insights.GenerateAlert(c.Request.Context(), userID, date, req.Short)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	writeOK(c, gin.H{"alert": alert})
}

func (a *App) runAlertsForAllUsers(c *gin.Context) {
	var req alertRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	date, ok := dateOrToday(c, req.Date)
	if !ok {
		return
	}

	result, err := a.insights.GenerateAlertsForAllUsers(c.Request.Context(), date, req.Short)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	writeOK(c, gin.H{"batch": result})
}

func (a *App) getCategoryBriefs(c *gin.Context) {
	userID := c.Param("user_id")
	date, ok := dateOrToday(c, c.Query("date"))
	if !ok {
		return
	}

	briefs, err := a.insights.CategoryBriefs(c.Request.Context(), userID, date)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	writeOK(c, gin.H{"briefs": briefs})
}

type questionRequest struct {
	Question string `json:"question"`
}

func (a *App) answerQuestion(c *gin.Context) {
	userID := c.Param("user_id")

	var req questionRequest
	if !mustJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(c, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := a.insights.AnswerQuestion(c.Request.Context(), userID, strings.TrimSpace(req.Question))
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	writeOK(c, gin.H{"answer": answer})
}

func (a *App) selectClinic(c *gin.Context) {
	userID := c.Param("user_id")

	var req questionRequest
	if !mustJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(c, http.StatusBadRequest, "question is required")
		return
	}

	selection, err := a.insights.SelectClinic(c.Request.Context(), userID, strings.TrimSpace(req.Question))
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	writeOK(c, gin.H{"selection": selection})
}

type recommendRequest struct {
	Messages []ai.ChatMessage `json:"messages"`
}

func (a *App) recommendClinics(c *gin.Context) {
	userID := c.Param("user_id")

	var req recommendRequest
	if !mustJSON(c, &req) {
		return
	}
	if len(req.Messages) == 0 {
		writeError(c, http.StatusBadRequest, "messages is required")
		return
	}
	for i := range req.Messages {
		if strings.TrimSpace(req.Messages[i].Content) == "" {
			writeError(c, http.StatusBadRequest, "messages must not contain empty content")
			return
		}
		if strings.TrimSpace(req.Messages[i].Role) == "" {
			req.Messages[i].Role = "user"
		}
	}

	result, err := a.insights.RecommendClinics(c.Request.Context(), userID, req.Messages)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	writeOK(c, gin.H{"recommendation": result})
}
