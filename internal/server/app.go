// Package server is the gin HTTP surface: routing, middleware, auth, and the
// request/response envelope over the store and insight layers.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/medpulse-ai/backend/internal/ai"
	"github.com/medpulse-ai/backend/internal/config"
	"github.com/medpulse-ai/backend/internal/insight"
	"github.com/medpulse-ai/backend/internal/metrics"
	"github.com/medpulse-ai/backend/internal/store"
)

const apiVersion = "1.0.0"

type App struct {
	cfg      config.Config
	store    store.Store
	ai       ai.Client
	insights *insight.Service
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

func New(cfg config.Config, st store.Store, client ai.Client, insights *insight.Service, m *metrics.Metrics, logger zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		store:    st,
		ai:       client,
		insights: insights,
		metrics:  m,
		log:      logger,
	}
}

func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(a.requestLogger(), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/", a.root)
	router.GET("/health", a.health)
	router.GET("/metrics", gin.WrapH(a.metrics.Handler()))

	api := router.Group(a.cfg.APIPrefix)
	if a.cfg.AuthEnabled() {
		api.Use(a.authMiddleware())
	}

	api.GET("/status", a.apiStatus)
	if a.cfg.AppEnv != "production" {
		api.GET("/debug", a.debugInfo)
	}
	api.POST("/ask", a.askLLM)

	api.GET("/users/:user_id/summary/daily", a.getDailySummary)
	api.GET("/users/:user_id/summary/weekly", a.getWeeklySummary)
	api.GET("/users/:user_id/records", a.getRecords)
	api.POST("/users/:user_id/records", a.createRecord)
	api.GET("/users/:user_id/records/export", a.exportRecordsCSV)
	api.POST("/users/:user_id/alerts", a.generateAlert)
	api.GET("/users/:user_id/briefs", a.getCategoryBriefs)
	api.POST("/users/:user_id/qa", a.answerQuestion)
	api.POST("/users/:user_id/clinics/select", a.selectClinic)
	api.POST("/users/:user_id/clinics/recommend", a.recommendClinics)
	api.GET("/users/:user_id/appointments", a.getUserAppointments)

	api.GET("/clinics", a.getClinics)
	api.GET("/clinics/:clinic_id", a.getClinic)
	api.POST("/appointments", a.createAppointment)
	api.PATCH("/appointments/:appointment_id/status", a.updateAppointmentStatus)

	api.POST("/alerts/run", a.runAlertsForAllUsers)

	return router
}

// requestLogger logs one line per request and feeds the HTTP metrics. The
// route template keeps metric label cardinality bounded.
func (a *App) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		elapsed := time.Since(started)

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		a.metrics.RecordHTTPRequest(c.Request.Method, path, fmt.Sprintf("%d", status), elapsed)

		event := a.log.Info()
		if status >= http.StatusInternalServerError {
			event = a.log.Error()
		} else if status >= http.StatusBadRequest {
			event = a.log.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("elapsed", elapsed).
			Msg("request")
	}
}

func (a *App) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			writeError(c, http.StatusUnauthorized, "Bearer token required")
			return
		}
		tokenString := strings.TrimSpace(authHeader[len("Bearer "):])
		if tokenString == "" {
			writeError(c, http.StatusUnauthorized, "Bearer token required")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if token.Method == nil || token.Method.Alg() != "HS256" {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(a.cfg.AuthJWTSecret), nil
		})
		if err != nil || !token.Valid {
			writeError(c, http.StatusUnauthorized, "Invalid bearer token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			writeError(c, http.StatusUnauthorized, "Invalid token payload")
			return
		}
		sub, _ := claims["sub"].(string)
		sub = strings.TrimSpace(sub)
		if sub == "" {
			writeError(c, http.StatusUnauthorized, "Token subject missing")
			return
		}

		c.Set("authSubject", sub)
		c.Next()
	}
}

func writeError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message})
}

func writeOK(c *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for key, value := range payload {
		body[key] = value
	}
	c.JSON(http.StatusOK, body)
}

// writeServiceError maps the service error taxonomy onto HTTP statuses:
// NotFound -> 404, storage and gateway failures -> 500 with the wrapped
// message. Interpretation fallbacks never reach here; they are successes.
func (a *App) writeServiceError(c *gin.Context, err error) {
	var notFound *insight.NotFoundError
	if errors.As(err, &notFound) {
		writeError(c, http.StatusNotFound, notFound.Error())
		return
	}

	var gatewayErr *ai.GatewayError
	var storageErr *store.StorageError
	switch {
	case errors.As(err, &gatewayErr):
		a.log.Error().Err(err).Msg("llm gateway failure")
	case errors.As(err, &storageErr):
		a.log.Error().Err(err).Msg("storage failure")
	default:
		a.log.Error().Err(err).Msg("request failed")
	}
	writeError(c, http.StatusInternalServerError, err.Error())
}

func mustJSON(c *gin.Context, payload any) bool {
	if err := c.ShouldBindJSON(payload); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func startOfUTCDay(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

// dateOrToday reads an optional YYYY-MM-DD value, defaulting to the current
// UTC day. The second return is false when the value was present but
// malformed; the caller has already received a 400.
func dateOrToday(c *gin.Context, value string) (time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		return startOfUTCDay(time.Now()), true
	}
	date, err := parseDate(value)
	if err != nil {
		writeError(c, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}
