package main

import (
	"github.com/hibiken/asynq"

	paymentJob "roastery-backend/internal/domains/payment/job"
	"roastery-backend/internal/shared"
	"roastery-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	// Payment recovery handlers
	recoverStuckIntents *paymentJob.RecoverStuckIntentsHandler
	recoverIntent       *paymentJob.RecoverIntentHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	sweepDefaults := shared.RecoverStuckIntentsPayload{
		MinAgeSeconds: int(c.Config.Recovery.MinAge.Seconds()),
		BatchSize:     c.Config.Recovery.BatchSize,
	}

	return &HandlerRegistry{
		recoverStuckIntents: paymentJob.NewRecoverStuckIntentsHandler(c.PaymentService, sweepDefaults),
		recoverIntent:       paymentJob.NewRecoverIntentHandler(c.PaymentService),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	// Payment recovery tasks
	mux.HandleFunc(shared.TypeRecoverStuckIntents, h.recoverStuckIntents.ProcessTask)
	mux.HandleFunc(shared.TypeRecoverIntent, h.recoverIntent.ProcessTask)
}
