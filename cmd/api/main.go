package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/medpulse-ai/backend/internal/ai"
	"github.com/medpulse-ai/backend/internal/config"
	"github.com/medpulse-ai/backend/internal/db"
	"github.com/medpulse-ai/backend/internal/insight"
	"github.com/medpulse-ai/backend/internal/metrics"
	"github.com/medpulse-ai/backend/internal/server"
	"github.com/medpulse-ai/backend/internal/store"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connect failed")
	}
	defer pool.Close()

	pg := store.New(pool)
	if err := pg.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("database ping failed")
	}
	if cfg.AppEnv == "local" || cfg.AppEnv == "test" {
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("schema bootstrap failed")
		}
	}
	if err := pg.ValidateSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("database schema mismatch")
	}

	var client ai.Client
	if cfg.OpenAIAPIKey == "" {
		logger.Warn().Msg("OPENAI_API_KEY is not set; using the mock LLM gateway")
		client = ai.NewMockClient(cfg.OpenAIModel)
	} else {
		client = ai.NewOpenAIClient(cfg)
	}

	m := metrics.New()
	insights := insight.New(pg, client, m, logger.With().Str("component", "insight").Logger(), cfg)
	app := server.New(cfg, pg, client, insights, m, logger.With().Str("component", "http").Logger())

	httpServer := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.AppPort).Str("env", cfg.AppEnv).Msg("api listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var writer = os.Stdout
	logger := zerolog.New(writer)
	if cfg.LogPretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Str("service", "medpulse-api").Logger()
}
