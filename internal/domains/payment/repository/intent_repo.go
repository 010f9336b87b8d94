package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"roastery-backend/internal/domains/payment/model"
)

type intentRepository struct {
	pool *pgxpool.Pool
}

func NewIntentRepository(pool *pgxpool.Pool) IntentRepository {
	return &intentRepository{pool: pool}
}

const intentColumns = `intent_id, amount, currency, status, user_id, created_at, reconciled_at`

func scanIntent(row pgx.Row) (*model.IntentRef, error) {
	var ref model.IntentRef
	if err := row.Scan(
		&ref.IntentID,
		&ref.Amount,
		&ref.Currency,
		&ref.Status,
		&ref.UserID,
		&ref.CreatedAt,
		&ref.ReconciledAt,
	); err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *intentRepository) Create(ctx context.Context, ref *model.IntentRef) error {
	query := `
		INSERT INTO payment_intents (intent_id, amount, currency, status, user_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (intent_id) DO NOTHING
		RETURNING created_at
	`
	if ref.Status == "" {
		ref.Status = model.IntentStatusCreated
	}

	err := r.pool.QueryRow(ctx, query,
		ref.IntentID,
		ref.Amount,
		ref.Currency,
		ref.Status,
		ref.UserID,
	).Scan(&ref.CreatedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("insert payment intent: %w", err)
	}
	return nil
}

func (r *intentRepository) GetByID(ctx context.Context, intentID string) (*model.IntentRef, error) {
	ref, err := scanIntent(r.pool.QueryRow(ctx,
		`SELECT `+intentColumns+` FROM payment_intents WHERE intent_id = $1`, intentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrIntentNotFound
		}
		return nil, fmt.Errorf("get payment intent: %w", err)
	}
	return ref, nil
}

func (r *intentRepository) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]model.IntentRef, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+intentColumns+`
		FROM payment_intents
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
		LIMIT $3`,
		model.IntentStatusCreated, olderThan, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list stale intents: %w", err)
	}
	defer rows.Close()

	var refs []model.IntentRef
	for rows.Next() {
		ref, err := scanIntent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan intent: %w", err)
		}
		refs = append(refs, *ref)
	}
	return refs, rows.Err()
}

func (r *intentRepository) MarkAbandoned(ctx context.Context, intentID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payment_intents
		SET status = $2, updated_at = NOW()
		WHERE intent_id = $1 AND status = $3`,
		intentID, model.IntentStatusAbandoned, model.IntentStatusCreated,
	)
	if err != nil {
		return false, fmt.Errorf("mark intent abandoned: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
