// cmd/worker/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"roastery-backend/pkg/container"
	"roastery-backend/pkg/logger"
)

func main() {
	cfg := loadConfig()
	logger.Init(cfg.App.Environment, cfg.App.LogLevel)

	// Initialize container (processor, repositories, payment service)
	c, err := container.Build(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("[Container] Failed to initialize")
	}
	defer c.Cleanup()

	health, err := startServices(c)
	if err != nil {
		log.Fatal().Err(err).Msg("[Startup] Health check failed")
	}

	handlers := initializeHandlers(c)
	srv := setupAsynqServer(c.RedisClientOpt(), cfg.Worker, handlers)
	scheduler := setupScheduler(c.RedisClientOpt(), cfg.Recovery)

	waitForShutdown(srv, scheduler, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = health.Shutdown(ctx)
	})
}

func waitForShutdown(srv *asynqServer, scheduler *asynqScheduler, stopHealth func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("[Shutdown] Gracefully stopping...")
	scheduler.Shutdown()
	srv.Shutdown()
	stopHealth()
	log.Info().Msg("[Shutdown] ✓ Stopped")
}
