package main

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"roastery-backend/internal/config"
	"roastery-backend/pkg/logger"
)

func main() {
	// ========================================
	// LOAD CONFIGURATION
	// ========================================
	// .env (development/local) rồi system environment variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to load config")
	}

	logger.Init(cfg.App.Environment, cfg.App.LogLevel)

	// ========================================
	// SET GIN MODE
	// ========================================
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info().Str("environment", cfg.App.Environment).Msg("🌍 Starting Roastery API")

	// Delegate toàn bộ logic sang Serve()
	Serve(cfg)
}
