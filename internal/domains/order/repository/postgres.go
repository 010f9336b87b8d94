package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"roastery-backend/internal/domains/order/model"
	"roastery-backend/internal/shared/utils"
)

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================
type postgresOrderRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &postgresOrderRepository{pool: pool}
}

// querier là phần chung của pgxpool.Pool và pgx.Tx
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const orderColumns = `
	id, order_number, user_id, payment_intent_id, status,
	total, currency, customer, shipping, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.UserID,
		&o.PaymentIntentID,
		&o.Status,
		&o.Total,
		&o.Currency,
		&o.Customer,
		&o.Shipping,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

// =====================================================
// CREATE ORDER
// =====================================================

func (r *postgresOrderRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.OrderNumber == "" {
		order.OrderNumber = model.NewOrderNumber(time.Now())
	}

	query := `
		INSERT INTO orders (
			id, order_number, user_id, payment_intent_id, status,
			total, currency, customer, shipping
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := tx.QueryRow(ctx, query,
		order.ID,
		order.OrderNumber,
		order.UserID,
		order.PaymentIntentID,
		order.Status,
		order.Total,
		order.Currency,
		order.Customer,
		order.Shipping,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if len(order.Items) == 0 {
		return nil
	}

	// batch insert items
	batch := &pgx.Batch{}
	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID
		batch.Queue(`
			INSERT INTO order_items (id, order_id, product_id, name, variation, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			item.ID, item.OrderID, item.ProductID, item.Name, item.Variation,
			item.Quantity, item.UnitPrice, item.LineTotal,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

// =====================================================
// GET ORDER
// =====================================================

func (r *postgresOrderRepository) getOne(ctx context.Context, q querier, where string, arg any) (*model.Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := r.loadItems(ctx, q, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *postgresOrderRepository) loadItems(ctx context.Context, q querier, orderID uuid.UUID) ([]model.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, name, variation, quantity, unit_price, line_total
		FROM order_items WHERE order_id = $1 ORDER BY name`, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Variation,
			&it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *postgresOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.getOne(ctx, r.pool, "id = $1", id)
}

func (r *postgresOrderRepository) GetByIntentID(ctx context.Context, intentID string) (*model.Order, error) {
	return r.getOne(ctx, r.pool, "payment_intent_id = $1", intentID)
}

func (r *postgresOrderRepository) GetByIntentIDWithTx(ctx context.Context, tx pgx.Tx, intentID string) (*model.Order, error) {
	return r.getOne(ctx, tx, "payment_intent_id = $1", intentID)
}

// =====================================================
// LIST
// =====================================================

func (r *postgresOrderRepository) List(ctx context.Context, userID *uuid.UUID, req model.ListOrdersRequest) ([]model.OrderSummary, int64, error) {
	clauses := []string{"1=1"}
	args := []interface{}{}

	if userID != nil {
		args = append(args, *userID)
		clauses = append(clauses, fmt.Sprintf("o.user_id = $%d", len(args)))
	}
	if req.Status != "" {
		args = append(args, req.Status)
		clauses = append(clauses, fmt.Sprintf("o.status = $%d", len(args)))
	}
	where := " WHERE " + utils.JoinWithAnd(clauses)

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders o`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT o.id, o.order_number, o.status, o.total, o.currency,
			(SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.id),
			o.customer->>'email', o.created_at
		FROM orders o%s
		ORDER BY o.created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, req.Limit, req.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]model.OrderSummary, 0, req.Limit)
	for rows.Next() {
		var s model.OrderSummary
		var email *string
		if err := rows.Scan(&s.ID, &s.OrderNumber, &s.Status, &s.Total, &s.Currency,
			&s.ItemsCount, &email, &s.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		if email != nil {
			s.Customer = *email
		}
		orders = append(orders, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, total, nil
}

// =====================================================
// UPDATE STATUS
// =====================================================

func (r *postgresOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (*model.Order, error) {
	query := `
		UPDATE orders SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + orderColumns
	o, err := scanOrder(r.pool.QueryRow(ctx, query, id, from, to))
	if err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return nil, model.ErrStatusConflict
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return o, nil
}

func (r *postgresOrderRepository) MarkRefundedWithTx(ctx context.Context, tx pgx.Tx, intentID string) (*model.Order, error) {
	query := `
		UPDATE orders SET status = 'refunded', updated_at = NOW()
		WHERE payment_intent_id = $1
		RETURNING ` + orderColumns
	o, err := scanOrder(tx.QueryRow(ctx, query, intentID))
	if err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("mark order refunded: %w", err)
	}
	return o, nil
}
