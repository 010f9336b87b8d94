package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"roastery-backend/internal/domains/payment/gateway"
	"roastery-backend/internal/domains/payment/model"
	"roastery-backend/pkg/database"
)

// logged payload bị cắt để log không phình
const maxLoggedPayload = 2048

// =====================================================
// RECONCILE (processor notification)
// =====================================================

// Reconcile
//
// Flow:
// 1. verify signature (trước mọi thay đổi state)
// 2. parse; lỗi -> log + lưu webhook log dạng malformed
// 3. ghi webhook event theo event id; event đã processed -> duplicate
// 4. dispatch theo event type
//
// Lỗi store ở bước 4 trả về cho handler (500) để processor gửi lại,
// đồng thời hẹn RecoverMissing cho intent đó.
func (s *paymentService) Reconcile(ctx context.Context, payload []byte, signatureHeader string) (*model.ConstructResult, error) {
	// 1. SIGNATURE
	if err := s.processor.VerifySignature(payload, signatureHeader); err != nil {
		s.metrics.WebhookRejected("invalid_signature")
		log.Warn().Err(err).Int("bytes", len(payload)).Msg("webhook signature rejected")
		return nil, model.NewInvalidSignatureError(err)
	}

	// 2. PARSE
	n, err := gateway.ParseNotification(payload)
	if err != nil {
		s.metrics.WebhookRejected("malformed")
		log.Error().Err(err).Str("payload", truncate(payload)).Msg("malformed processor notification")
		if recErr := s.webhooks.RecordMalformed(ctx, payload, err.Error()); recErr != nil {
			log.Error().Err(recErr).Msg("failed to persist malformed notification")
		}
		return nil, err
	}

	logger := log.With().
		Str("event_id", n.EventID).
		Str("event_type", n.Type).
		Str("intent_id", n.IntentID()).
		Logger()

	// 3. RECORD EVENT
	eventID := n.EventID
	var event *model.WebhookEvent
	err = database.Retry(ctx, s.opts.Retry, func(ctx context.Context) error {
		var rErr error
		event, rErr = s.webhooks.Receive(ctx, &model.WebhookEvent{
			EventID:   &eventID,
			EventType: n.Type,
			IntentID:  n.IntentID(),
			Payload:   string(payload),
		})
		return rErr
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to record webhook event")
		return nil, fmt.Errorf("record webhook event %s: %w", n.EventID, err)
	}

	if event.Status == model.WebhookStatusProcessed {
		s.metrics.ReconcileOutcome(model.SourceWebhook, model.OutcomeDuplicate)
		logger.Info().Int("attempts", event.Attempts).Msg("webhook event already processed")
		return &model.ConstructResult{Outcome: model.OutcomeDuplicate}, nil
	}

	// 4. DISPATCH
	res, err := s.dispatch(ctx, n)
	if err != nil {
		logger.Error().Err(err).Msg("webhook processing failed")
		if mErr := s.webhooks.MarkFailed(ctx, event.ID, err.Error()); mErr != nil {
			logger.Error().Err(mErr).Msg("failed to mark webhook event failed")
		}
		if n.Type == model.EventIntentSucceeded && !errors.Is(err, model.ErrMalformedNotification) {
			s.scheduleRecovery(ctx, n.IntentID())
		}
		return nil, err
	}

	if err := s.webhooks.MarkProcessed(ctx, event.ID, res.Outcome); err != nil {
		// construction đã commit; lần gửi lại sẽ đi vào nhánh duplicate
		logger.Warn().Err(err).Msg("failed to mark webhook event processed")
	}

	logger.Info().Str("outcome", res.Outcome).Msg("webhook processed")
	return res, nil
}

func (s *paymentService) dispatch(ctx context.Context, n *model.Notification) (*model.ConstructResult, error) {
	switch n.Type {
	case model.EventIntentSucceeded:
		return s.construct(ctx, model.SourceWebhook, n.Intent)

	case model.EventIntentPaymentFailed, model.EventIntentCanceled:
		s.abandon(ctx, n.Intent.ID)
		s.metrics.ReconcileOutcome(model.SourceWebhook, model.OutcomeAbandoned)
		return &model.ConstructResult{Outcome: model.OutcomeAbandoned}, nil

	case model.EventChargeRefunded:
		return s.applyRefund(ctx, n.Charge)

	default:
		s.metrics.ReconcileOutcome(model.SourceWebhook, model.OutcomeIgnored)
		return &model.ConstructResult{Outcome: model.OutcomeIgnored}, nil
	}
}

// applyRefund cập nhật payment + order. Refund tới trước khi intent được reconcile
// (webhook succeeded bị mất) thì dựng cặp từ processor trước.
func (s *paymentService) applyRefund(ctx context.Context, charge *model.ProcessorCharge) (*model.ConstructResult, error) {
	full := charge.Refunded || (charge.Amount > 0 && charge.AmountRefunded >= charge.Amount)

	markRefunded := func() (*model.ConstructResult, error) {
		var res *model.ConstructResult
		err := database.Retry(ctx, s.opts.Retry, func(ctx context.Context) error {
			var mErr error
			res, mErr = s.reconciler.MarkRefunded(ctx, charge.IntentID, charge.AmountRefunded, full)
			return mErr
		})
		return res, err
	}

	res, err := markRefunded()
	if errors.Is(err, model.ErrPaymentNotFound) {
		if _, recErr := s.recoverIntent(ctx, model.SourceWebhook, charge.IntentID); recErr != nil {
			return nil, fmt.Errorf("refund for unreconciled intent %s: %w", charge.IntentID, recErr)
		}
		res, err = markRefunded()
	}
	if err != nil {
		return nil, fmt.Errorf("apply refund for %s: %w", charge.IntentID, err)
	}

	s.metrics.ReconcileOutcome(model.SourceWebhook, model.OutcomeRefunded)
	log.Info().
		Str("intent_id", charge.IntentID).
		Int64("amount_refunded", charge.AmountRefunded).
		Bool("full", full).
		Msg("refund applied")
	return res, nil
}

func truncate(payload []byte) string {
	if len(payload) <= maxLoggedPayload {
		return string(payload)
	}
	return string(payload[:maxLoggedPayload]) + "...(truncated)"
}
