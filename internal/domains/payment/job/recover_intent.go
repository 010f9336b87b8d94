package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"roastery-backend/internal/domains/payment/model"
	"roastery-backend/internal/domains/payment/service"
	"roastery-backend/internal/shared"
	"roastery-backend/pkg/logger"
)

// ================================================
// RECOVER SINGLE INTENT JOB HANDLER
// ================================================
// Enqueue khi webhook succeeded không ghi được vào DB.

type RecoverIntentHandler struct {
	paymentService service.PaymentService
}

func NewRecoverIntentHandler(paymentService service.PaymentService) *RecoverIntentHandler {
	return &RecoverIntentHandler{paymentService: paymentService}
}

func (h *RecoverIntentHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload shared.RecoverIntentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	res, err := h.paymentService.RecoverMissing(ctx, payload.IntentID)
	if err != nil {
		// retry không đổi được kết quả
		if isPermanent(err) {
			logger.Info("Skip RecoverIntent", map[string]interface{}{
				"intent_id": payload.IntentID,
				"reason":    err.Error(),
			})
			return fmt.Errorf("recover intent %s: %w: %w", payload.IntentID, err, asynq.SkipRetry)
		}
		return fmt.Errorf("recover intent %s: %w", payload.IntentID, err)
	}

	logger.Info("Completed RecoverIntent job", map[string]interface{}{
		"intent_id": payload.IntentID,
		"outcome":   res.Outcome,
	})
	return nil
}

func isPermanent(err error) bool {
	return errors.Is(err, model.ErrIntentNotSucceeded) ||
		errors.Is(err, model.ErrIntentNotFound) ||
		errors.Is(err, model.ErrInvalidInput) ||
		errors.Is(err, model.ErrMalformedNotification)
}
