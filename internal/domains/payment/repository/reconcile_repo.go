package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	orderModel "roastery-backend/internal/domains/order/model"
	orderRepo "roastery-backend/internal/domains/order/repository"
	"roastery-backend/internal/domains/payment/model"
	"roastery-backend/pkg/database"
)

// Constraint names (postgres default naming cho UNIQUE inline)
const (
	constraintPaymentIntent = "payment_records_intent_id_key"
	constraintOrderIntent   = "orders_payment_intent_id_key"
	constraintOrderNumber   = "orders_order_number_key"

	maxOrderNumberAttempts = 3
)

var errClaimLost = errors.New("intent already reconciled")

type reconcileRepository struct {
	pool   *pgxpool.Pool
	orders orderRepo.OrderRepository
}

func NewReconcileRepository(pool *pgxpool.Pool, orders orderRepo.OrderRepository) ReconcileRepository {
	return &reconcileRepository{pool: pool, orders: orders}
}

// =====================================================
// CONSTRUCTION STEP
// =====================================================

func (r *reconcileRepository) ConstructPaidOrder(ctx context.Context, in model.ConstructInput) (*model.ConstructResult, error) {
	var err error
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		var res *model.ConstructResult
		res, err = database.WithTransactionResult(ctx, r.pool, func(tx pgx.Tx) (*model.ConstructResult, error) {
			return r.construct(ctx, tx, in)
		})
		if err == nil {
			return res, nil
		}

		// order_number random bị trùng: sinh số mới và chạy lại cả transaction
		if violatedConstraint(err) == constraintOrderNumber {
			continue
		}
		break
	}

	switch {
	case errors.Is(err, errClaimLost), isIntentConflict(err):
		existing, findErr := r.FindByIntentID(ctx, in.IntentID)
		if findErr != nil {
			return nil, fmt.Errorf("load reconciled pair for %s: %w", in.IntentID, findErr)
		}
		existing.Outcome = model.OutcomeDuplicate
		return existing, nil
	}
	return nil, err
}

func (r *reconcileRepository) construct(ctx context.Context, tx pgx.Tx, in model.ConstructInput) (*model.ConstructResult, error) {
	// 1. CLAIM: upsert + row lock. Reconciler thứ hai block tới khi tx đầu commit,
	// rồi thấy status = reconciled và không nhận được row nào.
	var claimed string
	err := tx.QueryRow(ctx, `
		INSERT INTO payment_intents (intent_id, amount, currency, status, user_id, reconciled_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (intent_id) DO UPDATE
			SET status = EXCLUDED.status, reconciled_at = NOW(), updated_at = NOW()
			WHERE payment_intents.status <> $4
		RETURNING intent_id`,
		in.IntentID,
		in.Amount,
		model.NormalizeCurrency(in.Currency),
		model.IntentStatusReconciled,
		in.UserID,
	).Scan(&claimed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errClaimLost
		}
		return nil, fmt.Errorf("claim intent: %w", err)
	}

	// 2. ORDER + ITEMS
	order := in.BuildOrder()
	if err := r.orders.CreateWithTx(ctx, tx, order); err != nil {
		return nil, err
	}

	// 3. PAYMENT RECORD
	payment := in.BuildPayment(order.ID)
	err = tx.QueryRow(ctx, `
		INSERT INTO payment_records (
			id, order_id, intent_id, status, method, brand, last4,
			amount, amount_refunded, currency
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		payment.ID,
		payment.OrderID,
		payment.IntentID,
		payment.Status,
		payment.Method,
		payment.Brand,
		payment.Last4,
		payment.Amount,
		payment.AmountRefunded,
		payment.Currency,
	).Scan(&payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert payment record: %w", err)
	}

	return &model.ConstructResult{
		Outcome: model.OutcomeCreated,
		Order:   order,
		Payment: payment,
	}, nil
}

// =====================================================
// LOOKUP
// =====================================================

const paymentColumns = `
	id, order_id, intent_id, status, method, brand, last4,
	amount, amount_refunded, currency, created_at, updated_at`

func scanPayment(row pgx.Row) (*model.PaymentRecord, error) {
	var p model.PaymentRecord
	err := row.Scan(
		&p.ID,
		&p.OrderID,
		&p.IntentID,
		&p.Status,
		&p.Method,
		&p.Brand,
		&p.Last4,
		&p.Amount,
		&p.AmountRefunded,
		&p.Currency,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *reconcileRepository) FindByIntentID(ctx context.Context, intentID string) (*model.ConstructResult, error) {
	payment, err := scanPayment(r.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payment_records WHERE intent_id = $1`, intentID))
	if err != nil {
		if errors.Is(err, model.ErrPaymentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get payment record: %w", err)
	}

	order, err := r.orders.GetByID(ctx, payment.OrderID)
	if err != nil {
		return nil, fmt.Errorf("get order for payment: %w", err)
	}

	return &model.ConstructResult{Order: order, Payment: payment}, nil
}

// =====================================================
// REFUND
// =====================================================

func (r *reconcileRepository) MarkRefunded(ctx context.Context, intentID string, amountRefunded int64, full bool) (*model.ConstructResult, error) {
	status := model.PaymentStatusPartiallyRefunded
	if full {
		status = model.PaymentStatusRefunded
	}

	return database.WithTransactionResult(ctx, r.pool, func(tx pgx.Tx) (*model.ConstructResult, error) {
		payment, err := scanPayment(tx.QueryRow(ctx, `
			UPDATE payment_records
			SET amount_refunded = $2, status = $3, updated_at = NOW()
			WHERE intent_id = $1
			RETURNING `+paymentColumns,
			intentID, model.MinorToDecimal(amountRefunded), status,
		))
		if err != nil {
			if errors.Is(err, model.ErrPaymentNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("mark payment refunded: %w", err)
		}

		var order *orderModel.Order
		if full {
			order, err = r.orders.MarkRefundedWithTx(ctx, tx, intentID)
		} else {
			order, err = r.orders.GetByIntentIDWithTx(ctx, tx, intentID)
		}
		if err != nil {
			return nil, err
		}

		return &model.ConstructResult{Outcome: model.OutcomeRefunded, Order: order, Payment: payment}, nil
	})
}

// =====================================================
// HELPERS
// =====================================================

func violatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.ConstraintName
	}
	return ""
}

// isIntentConflict: unique constraint theo intent_id bắn => reconciler khác đã thắng
func isIntentConflict(err error) bool {
	switch violatedConstraint(err) {
	case constraintPaymentIntent, constraintOrderIntent:
		return true
	}
	return false
}
