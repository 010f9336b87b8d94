package main

import (
	"github.com/rs/zerolog/log"

	"roastery-backend/internal/config"
)

// loadConfig đọc config chung (.env + environment) của api và worker
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("[Config] Failed to load")
	}

	log.Info().
		Str("redis", cfg.Redis.Host).
		Str("sweep_cron", cfg.Recovery.Cron).
		Int("concurrency", cfg.Worker.Concurrency).
		Msg("[Config] Loaded")

	return cfg
}
