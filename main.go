package main

import (
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"

	"sitepulse/internal/auth"
	"sitepulse/internal/config"
	"sitepulse/internal/db"
	"sitepulse/internal/http/server"
	"sitepulse/internal/logging"
	"sitepulse/internal/metrics"
	"sitepulse/internal/projects"
	"sitepulse/internal/sites"
	"sitepulse/internal/users"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}

	gdb, err := db.Connect(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect database")
	}

	if err := db.EnsureBootstrapAdmin(gdb, cfg); err != nil {
		logging.Fatal().Err(err).Msg("failed to ensure bootstrap admin")
	}

	metrics.Init()

	tokens, err := auth.NewJWTManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create token manager")
	}

	handler := server.Handler(server.Deps{
		Sites:      sites.NewService(gdb, cfg.HistoryWindowDays),
		Projects:   projects.NewService(gdb),
		Users:      users.NewService(gdb, tokens),
		Tokens:     tokens,
		Gatherer:   prometheus.DefaultGatherer,
		CORSOrigin: cfg.CORSOrigin,
	})

	logging.Info().Str("addr", cfg.ListenAddr).Msg("sitepulse listening")
	if err := fasthttp.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		logging.Fatal().Err(err).Msg("server error")
	}
}
