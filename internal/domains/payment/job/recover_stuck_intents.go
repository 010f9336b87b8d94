package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"roastery-backend/internal/domains/payment/service"
	"roastery-backend/internal/shared"
	"roastery-backend/pkg/logger"
)

// ================================================
// RECOVER STUCK INTENTS JOB HANDLER (scheduled)
// ================================================

type RecoverStuckIntentsHandler struct {
	paymentService service.PaymentService
	defaults       shared.RecoverStuckIntentsPayload
}

// defaults dùng khi payload thiếu field (task enqueue bằng tay từ asynq CLI)
func NewRecoverStuckIntentsHandler(
	paymentService service.PaymentService,
	defaults shared.RecoverStuckIntentsPayload,
) *RecoverStuckIntentsHandler {
	return &RecoverStuckIntentsHandler{
		paymentService: paymentService,
		defaults:       defaults,
	}
}

func (h *RecoverStuckIntentsHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	payload := h.defaults
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
		}
	}
	if payload.MinAgeSeconds <= 0 {
		payload.MinAgeSeconds = h.defaults.MinAgeSeconds
	}
	if payload.BatchSize <= 0 {
		payload.BatchSize = h.defaults.BatchSize
	}

	logger.Info("Starting RecoverStuckIntents job", map[string]interface{}{
		"min_age_seconds": payload.MinAgeSeconds,
		"batch_size":      payload.BatchSize,
	})

	res, err := h.paymentService.SweepStuckIntents(ctx, time.Duration(payload.MinAgeSeconds)*time.Second, payload.BatchSize)
	if err != nil {
		return fmt.Errorf("sweep stuck intents: %w", err)
	}

	logger.Info("Completed RecoverStuckIntents job", map[string]interface{}{
		"checked":   res.Checked,
		"recovered": res.Recovered,
		"abandoned": res.Abandoned,
		"pending":   res.Pending,
		"failed":    res.Failed,
	})
	return nil
}
