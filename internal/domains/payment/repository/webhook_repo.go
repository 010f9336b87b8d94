package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"roastery-backend/internal/domains/payment/model"
)

// =====================================================
// WEBHOOK LOG REPOSITORY IMPLEMENTATION
// =====================================================
type webhookRepository struct {
	pool *pgxpool.Pool
}

func NewWebhookRepository(pool *pgxpool.Pool) WebhookRepository {
	return &webhookRepository{pool: pool}
}

// Receive được gọi ngay sau khi chữ ký hợp lệ, trước khi xử lý.
// ON CONFLICT giữ nguyên status để caller thấy lần trước đã processed hay chưa.
func (r *webhookRepository) Receive(ctx context.Context, event *model.WebhookEvent) (*model.WebhookEvent, error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	query := `
		INSERT INTO webhook_events (id, event_id, event_type, intent_id, status, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO UPDATE
			SET attempts = webhook_events.attempts + 1
		RETURNING id, status, COALESCE(outcome, ''), attempts, received_at
	`

	stored := *event
	err := r.pool.QueryRow(ctx, query,
		event.ID,
		event.EventID,
		event.EventType,
		event.IntentID,
		model.WebhookStatusReceived,
		event.Payload,
	).Scan(&stored.ID, &stored.Status, &stored.Outcome, &stored.Attempts, &stored.ReceivedAt)
	if err != nil {
		return nil, fmt.Errorf("record webhook event: %w", err)
	}
	return &stored, nil
}

func (r *webhookRepository) MarkProcessed(ctx context.Context, id uuid.UUID, outcome string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE webhook_events
		SET status = $2, outcome = $3, processing_error = NULL, processed_at = NOW()
		WHERE id = $1`,
		id, model.WebhookStatusProcessed, outcome,
	)
	if err != nil {
		return fmt.Errorf("mark webhook processed: %w", err)
	}
	return nil
}

func (r *webhookRepository) MarkFailed(ctx context.Context, id uuid.UUID, processingErr string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE webhook_events
		SET status = $2, processing_error = $3
		WHERE id = $1 AND status <> 'processed'`,
		id, model.WebhookStatusFailed, processingErr,
	)
	if err != nil {
		return fmt.Errorf("mark webhook failed: %w", err)
	}
	return nil
}

func (r *webhookRepository) RecordMalformed(ctx context.Context, payload []byte, reason string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO webhook_events (id, status, payload, processing_error)
		VALUES ($1, $2, $3, $4)`,
		uuid.New(), model.WebhookStatusMalformed, string(payload), reason,
	)
	if err != nil {
		return fmt.Errorf("record malformed webhook: %w", err)
	}
	return nil
}
