package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/valyala/fasthttp"

	"leadsite/internal/config"
	"leadsite/internal/db"
	"leadsite/internal/http/handlers"
	"leadsite/internal/http/server"
	"leadsite/internal/logging"
	"leadsite/internal/session"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	sessions, err := session.NewManager(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create session manager")
	}
	if cfg.SessionSecret == "" {
		logging.Warn().Msg("APP_SESSION_SECRET not set; sessions will not survive a restart")
	}

	sqlDB, err := db.Connect(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect database")
	}

	if err := db.EnsureBootstrapAdmin(sqlDB, cfg); err != nil {
		logging.Fatal().Err(err).Msg("failed to ensure bootstrap admin")
	}

	handlers.InitPrometheusMetrics()

	gw := db.NewGateway(sqlDB, sessions)
	srv := &fasthttp.Server{
		Handler:      server.New(gw, cfg, nil),
		Name:         "leadsite",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		// Form posts are small; analytics event_data is the largest payload.
		MaxRequestBodySize: 1 << 20,
	}

	go func() {
		logging.Info().Str("addr", cfg.ListenAddr).Msg("leadsite listening")
		if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.ShutdownWithContext(ctx); err != nil {
		logging.Error().Err(err).Msg("forced shutdown")
	}

	if raw, err := sqlDB.DB(); err == nil {
		_ = raw.Close()
	}
	logging.Info().Msg("server exited")
}
