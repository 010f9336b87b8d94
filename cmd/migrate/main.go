// cmd/migrate/main.go
package main

import (
	"database/sql"
	"flag"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"roastery-backend/internal/config"
	"roastery-backend/internal/infrastructure/migrations"
	"roastery-backend/pkg/logger"
)

func main() {
	down := flag.Int("down", 0, "roll back N migrations instead of applying")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("[MIGRATE] Failed to load config")
	}
	logger.Init(cfg.App.Environment, cfg.App.LogLevel)

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("[MIGRATE] Failed to open database")
	}

	if *down > 0 {
		if err := migrations.Down(db, *down); err != nil {
			log.Fatal().Err(err).Msg("[MIGRATE] Rollback failed")
		}
		log.Info().Int("steps", *down).Msg("[MIGRATE] ✓ Rolled back")
		return
	}

	if err := migrations.Up(db); err != nil {
		log.Fatal().Err(err).Msg("[MIGRATE] Failed")
	}
	log.Info().Msg("[MIGRATE] ✓ Done")
}
